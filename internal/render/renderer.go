package render

import (
	"github.com/inkroom-app/inkroom/internal/board"
)

type activeStroke struct {
	last  board.Point
	color string
	width float64
	mode  board.CompositeMode
}

// StrokeRenderer draws strokes onto one canvas and tracks a per-stroke
// "last point" cursor so in-flight strokes can be extended incrementally as
// update batches arrive.
type StrokeRenderer struct {
	canvas *Canvas
	active map[string]*activeStroke
}

func NewStrokeRenderer(canvas *Canvas) *StrokeRenderer {
	return &StrokeRenderer{
		canvas: canvas,
		active: make(map[string]*activeStroke),
	}
}

// DrawStroke renders a complete stroke in one pass.
func (r *StrokeRenderer) DrawStroke(s board.Stroke) {
	r.canvas.DrawStroke(s)
}

// BeginStroke seeds the cursor for an in-flight stroke from its first point.
func (r *StrokeRenderer) BeginStroke(s board.Stroke) {
	if len(s.Points) == 0 {
		return
	}
	r.active[s.ID] = &activeStroke{
		last:  s.Points[len(s.Points)-1],
		color: s.Color,
		width: s.Width,
		mode:  s.Composite,
	}
}

// AppendPoints extends an in-flight stroke from its last known point through
// the new batch, advancing the cursor. Batches for unknown strokes are
// ignored.
func (r *StrokeRenderer) AppendPoints(strokeID string, points []board.Point) {
	a, ok := r.active[strokeID]
	if !ok || len(points) == 0 {
		return
	}
	r.canvas.DrawSegments(a.color, a.width, a.mode, a.last, points)
	a.last = points[len(points)-1]
}

// EndStroke discards the cursor for a finished stroke.
func (r *StrokeRenderer) EndStroke(strokeID string) {
	delete(r.active, strokeID)
}

// ActiveCursor reports the current cursor position for an in-flight stroke.
func (r *StrokeRenderer) ActiveCursor(strokeID string) (board.Point, bool) {
	if a, ok := r.active[strokeID]; ok {
		return a.last, true
	}
	return board.Point{}, false
}

// Reset drops all in-flight cursors, e.g. after a full resync.
func (r *StrokeRenderer) Reset() {
	r.active = make(map[string]*activeStroke)
}
