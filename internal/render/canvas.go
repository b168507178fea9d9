package render

import (
	"image"
	"io"

	"github.com/fogleman/gg"

	"github.com/inkroom-app/inkroom/internal/board"
)

// Canvas is a raster drawing surface for strokes. Erase strokes are painted
// in the board background color at their recorded width, which is visually
// identical to destination-out compositing on an opaque board.
type Canvas struct {
	ctx        *gg.Context
	width      int
	height     int
	background string
	opaque     bool
}

// NewCanvas returns an opaque surface filled with the background color.
// Suitable for the persistent history layer and server-side snapshots.
func NewCanvas(width, height int, background string) *Canvas {
	c := &Canvas{
		ctx:        gg.NewContext(width, height),
		width:      width,
		height:     height,
		background: background,
		opaque:     true,
	}
	c.Clear()
	return c
}

// NewOverlay returns a transparent surface for the in-progress local stroke.
func NewOverlay(width, height int, background string) *Canvas {
	return &Canvas{
		ctx:        gg.NewContext(width, height),
		width:      width,
		height:     height,
		background: background,
	}
}

// Clear resets the surface to its background (or to fully transparent for
// overlays).
func (c *Canvas) Clear() {
	if c.opaque {
		c.ctx.SetHexColor(c.background)
	} else {
		c.ctx.SetRGBA(0, 0, 0, 0)
	}
	c.ctx.Clear()
}

// DrawStroke renders the full polyline of a stroke. Strokes with fewer than
// two points render nothing.
func (c *Canvas) DrawStroke(s board.Stroke) {
	if len(s.Points) < 2 {
		return
	}
	c.applyStyle(s.Color, s.Width, s.Composite)
	c.ctx.MoveTo(s.Points[0].X, s.Points[0].Y)
	for _, p := range s.Points[1:] {
		c.ctx.LineTo(p.X, p.Y)
	}
	c.ctx.Stroke()
}

// DrawSegments draws connecting line segments from a known previous point
// through a batch of new points.
func (c *Canvas) DrawSegments(color string, width float64, mode board.CompositeMode, from board.Point, points []board.Point) {
	if len(points) == 0 {
		return
	}
	c.applyStyle(color, width, mode)
	c.ctx.MoveTo(from.X, from.Y)
	for _, p := range points {
		c.ctx.LineTo(p.X, p.Y)
	}
	c.ctx.Stroke()
}

func (c *Canvas) applyStyle(color string, width float64, mode board.CompositeMode) {
	if mode == board.CompositeDestinationOut {
		c.ctx.SetHexColor(c.background)
	} else {
		c.ctx.SetHexColor(color)
	}
	c.ctx.SetLineWidth(width)
	c.ctx.SetLineCap(gg.LineCapRound)
	c.ctx.SetLineJoin(gg.LineJoinRound)
}

func (c *Canvas) Image() image.Image {
	return c.ctx.Image()
}

func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// EncodePNG writes the surface as a PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return c.ctx.EncodePNG(w)
}

// Snapshot rasterizes an ordered stroke list onto a fresh opaque canvas.
func Snapshot(strokes []board.Stroke, width, height int, background string) *Canvas {
	c := NewCanvas(width, height, background)
	for _, s := range strokes {
		c.DrawStroke(s)
	}
	return c
}
