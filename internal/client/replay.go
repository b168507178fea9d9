package client

import (
	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/render"
)

// Replayer redraws a full, ordered stroke list in a single pass. Used after
// a resync, once the history surface has been cleared.
type Replayer struct {
	renderer *render.StrokeRenderer
}

func NewReplayer(renderer *render.StrokeRenderer) *Replayer {
	return &Replayer{renderer: renderer}
}

// Replay draws every visible stroke in order. Strokes flagged undone stay in
// the payload (the join sync includes them so redo works) but are not drawn.
func (r *Replayer) Replay(strokes []board.Stroke) {
	for _, s := range strokes {
		if s.Undone {
			continue
		}
		r.renderer.DrawStroke(s)
	}
}
