// Package render draws scanline records as horizontal gradient strokes,
// the way a browser canvas front end would, and saves the result as PNG.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/sergev/cvdecode/scanline"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FadeAlpha is the opacity of the black wash applied by each fade.
const FadeAlpha = 0.05

// Options describe the canvas.
type Options struct {
	Width       int     // Output width in pixels
	Height      int     // Output height in pixels
	LineWidth   float64 // Stroke width in output pixels
	Blend       bool    // Combine strokes with "screen" blending instead of painting over
	Supersample int     // Internal resolution multiplier
}

// DefaultOptions returns the settings of the reference front end.
func DefaultOptions() Options {
	return Options{
		Width:       640,
		Height:      480,
		LineWidth:   2.5,
		Blend:       true,
		Supersample: 2,
	}
}

// Canvas accumulates strokes.
type Canvas struct {
	opts  Options
	img   *image.RGBA // Supersampled drawing surface
	scale float64
	lines uint64
	stops []stop
}

type stop struct {
	pos     float64
	r, g, b float64
}

// New creates a black canvas.
func New(opts Options) (*Canvas, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if !(opts.LineWidth > 0) {
		opts.LineWidth = 1
	}
	s := opts.Supersample
	c := &Canvas{
		opts:  opts,
		img:   image.NewRGBA(image.Rect(0, 0, opts.Width*s, opts.Height*s)),
		scale: float64(s),
	}
	c.Clear()
	return c, nil
}

// Lines returns the number of strokes drawn.
func (c *Canvas) Lines() uint64 {
	return c.lines
}

// Clear paints the canvas black.
func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
}

// Fade darkens the whole canvas by FadeAlpha, so that old strokes
// disappear over time.
func (c *Canvas) Fade() {
	keep := 1 - FadeAlpha
	pix := c.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i] = uint8(float64(pix[i]) * keep)
		pix[i+1] = uint8(float64(pix[i+1]) * keep)
		pix[i+2] = uint8(float64(pix[i+2]) * keep)
	}
}

// Draw strokes one scanline from (X1,Y) to (X2,Y) in screen units, with
// each sample as a gradient stop at Phase/MaxPhase.
func (c *Canvas) Draw(l *scanline.Line) {
	if len(l.Samples) == 0 || l.X1 == l.X2 {
		return
	}
	c.lines++

	c.stops = c.stops[:0]
	for i, s := range l.Samples {
		c.stops = append(c.stops, stop{
			pos: l.Stop(i),
			r:   float64(s.R),
			g:   float64(s.G),
			b:   float64(s.B),
		})
	}

	b := c.img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	x1, x2 := l.X1*w, l.X2*w
	yc := l.Y * h
	half := c.opts.LineWidth * c.scale / 2

	top := max(int(math.Floor(yc-half)), 0)
	bottom := min(int(math.Ceil(yc+half)), b.Dy())
	left := max(int(math.Floor(math.Min(x1, x2))), 0)
	right := min(int(math.Ceil(math.Max(x1, x2))), b.Dx())

	for px := left; px < right; px++ {
		t := (float64(px) + 0.5 - x1) / (x2 - x1)
		r, g, bl := c.colorAt(t)
		for py := top; py < bottom; py++ {
			c.paint(px, py, r, g, bl)
		}
	}
}

// colorAt interpolates the gradient stops at position t.
func (c *Canvas) colorAt(t float64) (r, g, b float64) {
	stops := c.stops
	first, last := stops[0], stops[len(stops)-1]
	switch {
	case t <= first.pos:
		return first.r, first.g, first.b
	case t >= last.pos:
		return last.r, last.g, last.b
	}
	// Stops are in increasing order of position.
	i := 1
	for i < len(stops)-1 && stops[i].pos < t {
		i++
	}
	a, z := stops[i-1], stops[i]
	if z.pos <= a.pos {
		return z.r, z.g, z.b
	}
	f := (t - a.pos) / (z.pos - a.pos)
	return a.r + (z.r-a.r)*f, a.g + (z.g-a.g)*f, a.b + (z.b-a.b)*f
}

func (c *Canvas) paint(x, y int, r, g, b float64) {
	i := c.img.PixOffset(x, y)
	pix := c.img.Pix[i : i+4 : i+4]
	if c.opts.Blend {
		r = screen(float64(pix[0]), r)
		g = screen(float64(pix[1]), g)
		b = screen(float64(pix[2]), b)
	}
	pix[0] = uint8(math.Round(r))
	pix[1] = uint8(math.Round(g))
	pix[2] = uint8(math.Round(b))
	pix[3] = 0xff
}

// screen combines two 0..255 values as 1-(1-a)(1-b).
func screen(a, b float64) float64 {
	return a + b - a*b/255
}

// Image returns the canvas at output resolution, with an optional
// legend in the top left corner.
func (c *Canvas) Image(legend string) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, c.opts.Width, c.opts.Height))
	draw.BiLinear.Scale(out, out.Bounds(), c.img, c.img.Bounds(), draw.Src, nil)

	if legend != "" {
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(color.RGBA{0xff, 0xff, 0x80, 0xff}),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(4, basicfont.Face7x13.Ascent+4),
		}
		d.DrawString(legend)
	}
	return out
}

// WritePNG saves the canvas.
func (c *Canvas) WritePNG(path, legend string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, c.Image(legend)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
