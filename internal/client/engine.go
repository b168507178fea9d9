package client

import (
	"image"
	"io"

	"github.com/inkroom-app/inkroom/internal/render"
)

// Engine owns the two client-side drawing surfaces: the transient overlay
// the local in-progress stroke is drawn on, and the persistent history
// surface every finalized stroke ends up on. A full resync only ever touches
// the history surface.
type Engine struct {
	history *render.Canvas
	overlay *render.Canvas

	historyRenderer *render.StrokeRenderer
	overlayRenderer *render.StrokeRenderer
}

func NewEngine(width, height int, background string) *Engine {
	history := render.NewCanvas(width, height, background)
	overlay := render.NewOverlay(width, height, background)
	return &Engine{
		history:         history,
		overlay:         overlay,
		historyRenderer: render.NewStrokeRenderer(history),
		overlayRenderer: render.NewStrokeRenderer(overlay),
	}
}

func (e *Engine) ClearHistory() {
	e.history.Clear()
	e.historyRenderer.Reset()
}

func (e *Engine) ClearOverlay() {
	e.overlay.Clear()
	e.overlayRenderer.Reset()
}

func (e *Engine) History() *render.StrokeRenderer {
	return e.historyRenderer
}

func (e *Engine) Overlay() *render.StrokeRenderer {
	return e.overlayRenderer
}

// HistoryImage exposes the persistent surface, e.g. for snapshots.
func (e *Engine) HistoryImage() image.Image {
	return e.history.Image()
}

func (e *Engine) EncodePNG(w io.Writer) error {
	return e.history.EncodePNG(w)
}
