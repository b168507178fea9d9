package render

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/inkroom-app/inkroom/internal/board"
)

func pixelAt(c *Canvas, x, y int) color.RGBA {
	return color.RGBAModel.Convert(c.Image().At(x, y)).(color.RGBA)
}

func horizontal(id string, y float64) board.Stroke {
	return board.Stroke{
		ID:     id,
		Color:  "#ff0000",
		Width:  4,
		Points: []board.Point{{X: 2, Y: y}, {X: 30, Y: y}},
	}
}

func TestCanvasStartsAsBackground(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")

	px := pixelAt(c, 16, 16)
	if px.R != 255 || px.G != 255 || px.B != 255 {
		t.Errorf("Expected white background, got %+v", px)
	}
}

func TestDrawStrokePaintsPixels(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")
	c.DrawStroke(horizontal("s1", 16))

	px := pixelAt(c, 16, 16)
	if px.R != 255 || px.G != 0 || px.B != 0 {
		t.Errorf("Expected red at the stroke center, got %+v", px)
	}

	// Well away from the line the background is untouched.
	px = pixelAt(c, 16, 28)
	if px.R != 255 || px.G != 255 || px.B != 255 {
		t.Errorf("Expected white off the stroke, got %+v", px)
	}
}

func TestDrawStrokeSinglePointRendersNothing(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")
	c.DrawStroke(board.Stroke{
		ID:     "dot",
		Color:  "#ff0000",
		Width:  10,
		Points: []board.Point{{X: 16, Y: 16}},
	})

	px := pixelAt(c, 16, 16)
	if px.R != 255 || px.G != 255 || px.B != 255 {
		t.Errorf("Expected a single point to render nothing, got %+v", px)
	}
}

func TestEraseStrokePaintsBackground(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")
	c.DrawStroke(horizontal("ink", 16))

	c.DrawStroke(board.Stroke{
		ID:        "erase",
		Color:     "#000000",
		Width:     8,
		Composite: board.CompositeDestinationOut,
		Points:    []board.Point{{X: 2, Y: 16}, {X: 30, Y: 16}},
	})

	px := pixelAt(c, 16, 16)
	if px.R != 255 || px.G != 255 || px.B != 255 {
		t.Errorf("Expected erased pixels back to white, got %+v", px)
	}
}

func TestClearResetsSurface(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")
	c.DrawStroke(horizontal("s1", 16))
	c.Clear()

	px := pixelAt(c, 16, 16)
	if px.R != 255 || px.G != 255 || px.B != 255 {
		t.Errorf("Expected white after clear, got %+v", px)
	}
}

func TestSnapshotDrawsInOrder(t *testing.T) {
	strokes := []board.Stroke{
		{ID: "under", Color: "#ff0000", Width: 6, Points: []board.Point{{X: 2, Y: 16}, {X: 30, Y: 16}}},
		{ID: "over", Color: "#0000ff", Width: 6, Points: []board.Point{{X: 2, Y: 16}, {X: 30, Y: 16}}},
	}

	c := Snapshot(strokes, 32, 32, "#ffffff")
	px := pixelAt(c, 16, 16)
	if px.B != 255 || px.R != 0 {
		t.Errorf("Expected the later stroke on top, got %+v", px)
	}
}

func TestStrokeRendererIncrementalMatchesCursor(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")
	r := NewStrokeRenderer(c)

	r.BeginStroke(board.Stroke{
		ID:     "s1",
		Color:  "#ff0000",
		Width:  4,
		Points: []board.Point{{X: 2, Y: 16}},
	})

	cursor, ok := r.ActiveCursor("s1")
	if !ok || cursor.X != 2 {
		t.Fatalf("Expected cursor at x=2, got %v (ok=%v)", cursor, ok)
	}

	r.AppendPoints("s1", []board.Point{{X: 16, Y: 16}, {X: 30, Y: 16}})

	cursor, _ = r.ActiveCursor("s1")
	if cursor.X != 30 {
		t.Errorf("Expected cursor advanced to x=30, got %v", cursor)
	}

	px := pixelAt(c, 10, 16)
	if px.R != 255 || px.G != 0 {
		t.Errorf("Expected the segment painted, got %+v", px)
	}

	r.EndStroke("s1")
	if _, ok := r.ActiveCursor("s1"); ok {
		t.Error("Cursor should be gone after end")
	}
}

func TestStrokeRendererKeepsStyle(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")
	r := NewStrokeRenderer(c)

	r.BeginStroke(board.Stroke{
		ID:     "s1",
		Color:  "#0000ff",
		Width:  4,
		Points: []board.Point{{X: 2, Y: 16}},
	})
	r.AppendPoints("s1", []board.Point{{X: 30, Y: 16}})

	// Updates carry no style of their own; segments use the stroke's.
	px := pixelAt(c, 16, 16)
	if px.B != 255 || px.R != 0 {
		t.Errorf("Expected the begin-stroke style applied to updates, got %+v", px)
	}
}

func TestStrokeRendererIgnoresUnknownStroke(t *testing.T) {
	c := NewCanvas(32, 32, "#ffffff")
	r := NewStrokeRenderer(c)

	r.AppendPoints("ghost", []board.Point{{X: 2, Y: 16}, {X: 30, Y: 16}})

	px := pixelAt(c, 16, 16)
	if px.R != 255 || px.G != 255 || px.B != 255 {
		t.Errorf("Expected nothing painted for an unknown stroke, got %+v", px)
	}
}

func TestWritePDFProducesDocument(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, []board.Stroke{
		{ID: "s1", Color: "#ff0000", Width: 2, Points: []board.Point{{X: 0, Y: 0}, {X: 100, Y: 100}}},
	}, 1920, 1080)
	if err != nil {
		t.Fatalf("WritePDF failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("Output should start with a PDF header")
	}
}
