package chroma

import (
	"math"
	"testing"
)

// reference computes the matrix with plain rounding for comparison.
func reference(y, cb, cr float64) [3]int {
	clamp := func(v float64) int {
		v = math.Floor(v + 0.5)
		return int(math.Max(0, math.Min(255, v)))
	}
	return [3]int{
		clamp(y + 45*cr/32),
		clamp(y - (11*cb+23*cr)/32),
		clamp(y + 113*cb/64),
	}
}

func TestToRGB(t *testing.T) {
	tests := []struct {
		y, cb, cr float64
		want      [3]int
	}{
		{128, 0, 0, [3]int{128, 128, 128}},
		{0, 0, 0, [3]int{0, 0, 0}},
		{255, 0, 0, [3]int{255, 255, 255}},
		{100, 0, 32, [3]int{145, 77, 100}},
		{100, 64, 0, [3]int{100, 78, 213}},
		{300, 0, 0, [3]int{255, 255, 255}},
		{-20, 0, 0, [3]int{0, 0, 0}},
		{76, -43, 127, [3]int{255, 0, 0}},
	}
	for _, tt := range tests {
		r, g, b := ToRGB(tt.y, tt.cb, tt.cr)
		got := [3]int{int(r), int(g), int(b)}
		if got != tt.want {
			t.Errorf("ToRGB(%v, %v, %v) = %v, expected %v", tt.y, tt.cb, tt.cr, got, tt.want)
		}
	}
}

func TestToRGBMatchesMatrix(t *testing.T) {
	for y := -16.0; y <= 272; y += 17 {
		for cb := -128.0; cb <= 128; cb += 19 {
			for cr := -128.0; cr <= 128; cr += 23 {
				r, g, b := ToRGB(y, cb, cr)
				got := [3]int{int(r), int(g), int(b)}
				if want := reference(y, cb, cr); got != want {
					t.Fatalf("ToRGB(%v, %v, %v) = %v, expected %v", y, cb, cr, got, want)
				}
			}
		}
	}
}

func TestClampRoundsHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{0.49, 0},
		{0.5, 1},
		{254.5, 255},
		{-0.5, 0},
		{1e9, 255},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}

func TestDelayLineReturnsPreviousLine(t *testing.T) {
	d := NewDelayLine(100)
	const n = 40

	for k := 0; k < n; k++ {
		if got := d.Exchange(float64(k) + 0.5); got != 0 {
			t.Fatalf("first line Exchange at %d = %v, expected 0", k, got)
		}
	}
	d.Rewind()
	for k := 0; k < n; k++ {
		if got, want := d.Exchange(-float64(k)), float64(k)+0.5; got != want {
			t.Errorf("second line Exchange at %d = %v, expected %v", k, got, want)
		}
	}
	d.Rewind()
	for k := 0; k < n; k++ {
		if got, want := d.Exchange(0), -float64(k); got != want {
			t.Errorf("third line Exchange at %d = %v, expected %v", k, got, want)
		}
	}
}

func TestDelayLineShorterLineKeepsTail(t *testing.T) {
	d := NewDelayLine(10)
	for k := 0; k < 8; k++ {
		d.Exchange(float64(k + 1))
	}
	d.Rewind()
	for k := 0; k < 4; k++ {
		d.Exchange(100)
	}
	d.Rewind()
	want := []float64{100, 100, 100, 100, 5, 6, 7, 8, 0, 0}
	for k, w := range want {
		if got := d.Exchange(0); got != w {
			t.Errorf("Exchange at %d = %v, expected %v", k, got, w)
		}
	}
}

func TestDelayLineSuppressesWritesPastCapacity(t *testing.T) {
	d := NewDelayLine(4)
	for k := 0; k < 10; k++ {
		d.Exchange(float64(k + 1))
	}
	if d.Index() != 4 {
		t.Errorf("Index() = %d, expected 4", d.Index())
	}
	d.Rewind()
	for k := 0; k < 4; k++ {
		if got := d.Exchange(0); got != float64(k+1) {
			t.Errorf("Exchange at %d = %v, expected %v", k, got, float64(k+1))
		}
	}
}

func TestDelayCapacity(t *testing.T) {
	if got := DelayCapacity(48000); got != 4800 {
		t.Errorf("DelayCapacity(48000) = %d, expected 4800", got)
	}
	if got := DelayCapacity(44100); got != 4410 {
		t.Errorf("DelayCapacity(44100) = %d, expected 4410", got)
	}
}

func TestDemodulatorFieldSelectsComponents(t *testing.T) {
	d := NewDemodulator(48000)

	// First line carries Cr = 40 with no previous line.
	d.Field = 0
	r, g, b := d.Decode(100, 40)
	if want := reference(100, 0, 40); [3]int{int(r), int(g), int(b)} != want {
		t.Errorf("field 0 first line = %v, expected %v", [3]int{int(r), int(g), int(b)}, want)
	}

	// Next line carries Cb = -30; the delayed 40 is Cr.
	d.Delay.Rewind()
	d.Toggle()
	r, g, b = d.Decode(100, -30)
	if want := reference(100, -30, 40); [3]int{int(r), int(g), int(b)} != want {
		t.Errorf("field 1 = %v, expected %v", [3]int{int(r), int(g), int(b)}, want)
	}

	// And back: current is Cr = 10, delayed -30 is Cb.
	d.Delay.Rewind()
	d.Toggle()
	r, g, b = d.Decode(100, 10)
	if want := reference(100, -30, 10); [3]int{int(r), int(g), int(b)} != want {
		t.Errorf("field 0 = %v, expected %v", [3]int{int(r), int(g), int(b)}, want)
	}
}
