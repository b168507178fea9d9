package client

import (
	"time"

	"github.com/inkroom-app/inkroom/internal/board"
)

const (
	// Flush thresholds: a batch goes out when it reaches batchSize samples or
	// flushInterval (one frame) has passed since the last flush, whichever
	// comes first. Bounds per-message overhead and worst-case input latency.
	batchSize     = 8
	flushInterval = 16 * time.Millisecond
)

// Batcher turns a continuous stream of pointer samples into bounded-size
// update batches. The last point of a flushed batch is carried over as the
// first point of the next one so consecutive batches connect.
//
// It is driven entirely by its caller's event loop; no timers of its own.
type Batcher struct {
	onStart func(board.Point)
	onMove  func([]board.Point)
	onEnd   func()

	drawing   bool
	buffer    []board.Point
	lastFlush time.Time

	now func() time.Time
}

func NewBatcher(onStart func(board.Point), onMove func([]board.Point), onEnd func()) *Batcher {
	return &Batcher{
		onStart: onStart,
		onMove:  onMove,
		onEnd:   onEnd,
		now:     time.Now,
	}
}

func (b *Batcher) PointerDown(p board.Point) {
	b.drawing = true
	b.buffer = []board.Point{p}
	b.lastFlush = b.now()
	b.onStart(p)
}

func (b *Batcher) PointerMove(p board.Point) {
	if !b.drawing {
		return
	}
	b.buffer = append(b.buffer, p)

	if len(b.buffer) >= batchSize || b.now().Sub(b.lastFlush) >= flushInterval {
		b.flush(p)
	}
}

// PointerUp finalizes the stroke. Any samples still buffered past the carried
// point are flushed as a final batch before the end callback, so the
// authoritative copy is never short of the local one.
func (b *Batcher) PointerUp() {
	if !b.drawing {
		return
	}
	b.drawing = false

	if len(b.buffer) > 1 {
		batch := b.buffer
		b.buffer = nil
		b.onMove(batch)
	} else {
		b.buffer = nil
	}
	b.onEnd()
}

// PointerLeave is treated identically to PointerUp: there is no mid-stroke
// cancel that discards the stroke.
func (b *Batcher) PointerLeave() {
	b.PointerUp()
}

func (b *Batcher) flush(last board.Point) {
	batch := b.buffer
	b.buffer = []board.Point{last}
	b.lastFlush = b.now()
	b.onMove(batch)
}
