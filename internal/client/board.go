package client

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/protocol"
)

// Tool selects the local drawing mode.
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
)

// Fixed erase profile. The eraser ignores the picked color and width.
const (
	eraserColor = "#000000"
	eraserWidth = 20.0
)

// Board is the client reconciliation layer: it keeps the participant's view
// consistent with local optimistic input and with confirmed remote state.
//
// The local stroke is drawn on the overlay surface immediately, without
// waiting for the network; remote and resynced strokes land on the history
// surface. All entry points (pointer events and socket callbacks) serialize
// on one mutex, standing in for the host event loop of a GUI client.
type Board struct {
	mu sync.Mutex

	engine   *Engine
	replayer *Replayer
	batcher  *Batcher
	sock     *Socket
	log      *zap.SugaredLogger

	roomID string
	userID string

	color string
	width float64
	tool  Tool

	current *board.Stroke
	users   map[string]protocol.User
}

// Config for a new board client.
type Config struct {
	Width      int
	Height     int
	Background string
	UserName   string
}

// NewBoard wires a board over an established socket. Call Join to enter a
// room and start listening.
func NewBoard(sock *Socket, cfg Config, log *zap.SugaredLogger) *Board {
	b := &Board{
		engine:   NewEngine(cfg.Width, cfg.Height, cfg.Background),
		sock:     sock,
		log:      log,
		userID:   uuid.NewString(),
		color:    "#ff0000",
		width:    2,
		tool:     ToolPen,
		users:    make(map[string]protocol.User),
	}
	b.replayer = NewReplayer(b.engine.History())
	b.batcher = NewBatcher(b.strokeStart, b.strokeMove, b.strokeEnd)
	return b
}

// Join enters a room and processes server events until the context ends or
// the connection drops.
func (b *Board) Join(ctx context.Context, roomID, userName string) error {
	b.mu.Lock()
	b.roomID = roomID
	b.mu.Unlock()

	if err := b.sock.EmitJoin(roomID, userName); err != nil {
		return err
	}
	return b.sock.Listen(ctx, Handlers{
		OnRemoteStrokeStart:  b.remoteStrokeStart,
		OnRemoteStrokeUpdate: b.remoteStrokeUpdate,
		OnRemoteStrokeEnd:    b.remoteStrokeEnd,
		OnSyncState:          b.syncState,
		OnUserJoin:           b.userJoin,
		OnUserLeave:          b.userLeave,
		OnClearAll:           b.clearAll,
	})
}

// Local input. PointerLeave forces finalization exactly like PointerUp.

func (b *Board) PointerDown(p board.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batcher.PointerDown(p)
}

func (b *Board) PointerMove(p board.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batcher.PointerMove(p)
}

func (b *Board) PointerUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batcher.PointerUp()
}

func (b *Board) PointerLeave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batcher.PointerLeave()
}

// Tool selection.

func (b *Board) SetColor(color string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.color = color
}

func (b *Board) SetWidth(width float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width = width
}

func (b *Board) SetTool(tool Tool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tool = tool
}

// Shared history actions.

func (b *Board) Undo() error {
	b.mu.Lock()
	roomID := b.roomID
	b.mu.Unlock()
	return b.sock.EmitUndo(roomID)
}

func (b *Board) Redo() error {
	b.mu.Lock()
	roomID := b.roomID
	b.mu.Unlock()
	return b.sock.EmitRedo(roomID)
}

func (b *Board) ClearAll() error {
	b.mu.Lock()
	b.engine.ClearHistory()
	b.engine.ClearOverlay()
	roomID := b.roomID
	b.mu.Unlock()
	return b.sock.EmitClearAll(roomID)
}

// Users returns the current presence list.
func (b *Board) Users() []protocol.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]protocol.User, 0, len(b.users))
	for _, u := range b.users {
		out = append(out, u)
	}
	return out
}

// SavePNG writes the history surface as a PNG.
func (b *Board) SavePNG(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.EncodePNG(w)
}

// Batcher callbacks: the optimistic local path. Callers hold b.mu.

func (b *Board) strokeStart(p board.Point) {
	stroke := board.Stroke{
		ID:        uuid.NewString(),
		UserID:    b.userID,
		Color:     b.color,
		Width:     b.width,
		Composite: board.CompositeSourceOver,
		Points:    []board.Point{p},
	}
	if b.tool == ToolEraser {
		stroke.Color = eraserColor
		stroke.Width = eraserWidth
		stroke.Composite = board.CompositeDestinationOut
	}
	b.current = &stroke

	b.engine.Overlay().BeginStroke(stroke)
	if err := b.sock.EmitStrokeStart(b.roomID, stroke); err != nil {
		b.log.Warnf("emit stroke start: %v", err)
	}
}

func (b *Board) strokeMove(points []board.Point) {
	if b.current == nil {
		return
	}
	b.current.Points = append(b.current.Points, points...)
	b.engine.Overlay().AppendPoints(b.current.ID, points)
	if err := b.sock.EmitStrokeUpdate(b.roomID, b.current.ID, points); err != nil {
		b.log.Warnf("emit stroke update: %v", err)
	}
}

// strokeEnd is local-only finalization: the overlay is wiped and the finished
// stroke drawn once, fully, onto the history surface. The authoritative copy
// was already built incrementally on the server.
func (b *Board) strokeEnd() {
	if b.current == nil {
		return
	}
	b.engine.Overlay().EndStroke(b.current.ID)
	b.engine.ClearOverlay()
	b.engine.History().DrawStroke(*b.current)
	if err := b.sock.EmitStrokeEnd(b.roomID, b.current.ID); err != nil {
		b.log.Warnf("emit stroke end: %v", err)
	}
	b.current = nil
}

// Socket callbacks: the confirmed remote path.

func (b *Board) remoteStrokeStart(s board.Stroke) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.History().BeginStroke(s)
}

func (b *Board) remoteStrokeUpdate(strokeID string, points []board.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.History().AppendPoints(strokeID, points)
}

func (b *Board) remoteStrokeEnd(strokeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.History().EndStroke(strokeID)
}

func (b *Board) syncState(strokes []board.Stroke) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.ClearHistory()
	b.replayer.Replay(strokes)
}

func (b *Board) userJoin(u protocol.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.ID] = u
}

func (b *Board) userLeave(u protocol.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, u.ID)
}

func (b *Board) clearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.ClearHistory()
	b.engine.ClearOverlay()
}
