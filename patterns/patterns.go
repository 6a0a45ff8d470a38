// Package patterns provides test pictures for the synthetic encoder.
package patterns

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/sergev/cvdecode/signal"
	_ "golang.org/x/image/bmp"
)

// ErrUnknownPattern is returned for a pattern name that is not built in.
var ErrUnknownPattern = errors.New("unknown pattern")

// BarColors are the colors of the vertical bars pattern, left to right.
var BarColors = [8][3]float64{
	{1, 1, 1}, // White
	{1, 1, 0}, // Yellow
	{0, 1, 1}, // Cyan
	{0, 1, 0}, // Green
	{1, 0, 1}, // Magenta
	{1, 0, 0}, // Red
	{0, 0, 1}, // Blue
	{0, 0, 0}, // Black
}

var patternMap = map[string]signal.Picture{
	"bars":    bars,
	"ramp":    ramp,
	"checker": checker,
	"grid":    grid,
	"hues":    hues,
}

// Names returns the built-in pattern names in sorted order.
func Names() []string {
	names := make([]string, 0, len(patternMap))
	for name := range patternMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPattern returns a picture by name. A name with an "image:" prefix
// loads a picture file instead (PNG, JPEG, GIF or BMP).
func GetPattern(name string) (signal.Picture, error) {
	if path, ok := strings.CutPrefix(name, "image:"); ok {
		return LoadImage(path)
	}
	p, ok := patternMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownPattern, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

func bars(x, y float64) (r, g, b float64) {
	c := BarColors[index(x, len(BarColors))]
	return c[0], c[1], c[2]
}

func ramp(x, y float64) (r, g, b float64) {
	return x, x, x
}

func checker(x, y float64) (r, g, b float64) {
	if (index(x, 8)+index(y, 6))%2 == 0 {
		return 1, 1, 1
	}
	return 0, 0, 0
}

func grid(x, y float64) (r, g, b float64) {
	const lines, width = 10, 0.015
	fx := x*lines - math.Floor(x*lines)
	fy := y*lines - math.Floor(y*lines)
	if fx < width*lines || fy < width*lines {
		return 1, 1, 1
	}
	return 0, 0, 0
}

// hues sweeps the hue left to right and the brightness top to bottom.
func hues(x, y float64) (r, g, b float64) {
	h := x * 6
	f := h - math.Floor(h)
	v := 1 - y*0.75
	switch int(h) % 6 {
	case 0:
		r, g, b = 1, f, 0
	case 1:
		r, g, b = 1-f, 1, 0
	case 2:
		r, g, b = 0, 1, f
	case 3:
		r, g, b = 0, 1-f, 1
	case 4:
		r, g, b = f, 0, 1
	default:
		r, g, b = 1, 0, 1-f
	}
	return r * v, g * v, b * v
}

// index maps v in [0,1) to one of n cells.
func index(v float64, n int) int {
	i := int(v * float64(n))
	switch {
	case i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}

// LoadImage reads a picture file.
func LoadImage(path string) (signal.Picture, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open picture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode picture %s: %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage returns a picture sampling img, stretched to the screen.
func FromImage(img image.Image) signal.Picture {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	return func(x, y float64) (r, g, b float64) {
		if w == 0 || h == 0 {
			return 0, 0, 0
		}
		px := bounds.Min.X + index(x, w)
		py := bounds.Min.Y + index(y, h)
		cr, cg, cb, _ := img.At(px, py).RGBA()
		return float64(cr) / 0xffff, float64(cg) / 0xffff, float64(cb) / 0xffff
	}
}
