package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/protocol"
)

// Handlers receives server-originated events. Nil handlers are skipped.
type Handlers struct {
	OnRemoteStrokeStart  func(board.Stroke)
	OnRemoteStrokeUpdate func(strokeID string, points []board.Point)
	OnRemoteStrokeEnd    func(strokeID string)
	OnSyncState          func([]board.Stroke)
	OnUserJoin           func(protocol.User)
	OnUserLeave          func(protocol.User)
	OnClearAll           func()
}

// Socket is the protocol-speaking websocket wrapper. gorilla connections do
// not allow concurrent writes, so emits share a mutex.
type Socket struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Dial connects to a server's /ws endpoint.
func Dial(ctx context.Context, url string) (*Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Socket{conn: conn}, nil
}

func (s *Socket) Close() error {
	return s.conn.Close()
}

func (s *Socket) emit(eventType, roomID string, data any) error {
	raw, err := protocol.Encode(eventType, roomID, data)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, raw)
}

func (s *Socket) EmitJoin(roomID, userName string) error {
	return s.emit(protocol.EventJoinRoom, roomID, protocol.JoinRoomPayload{UserName: userName})
}

func (s *Socket) EmitStrokeStart(roomID string, stroke board.Stroke) error {
	return s.emit(protocol.EventStrokeStart, roomID, protocol.StrokeStartPayload{Stroke: stroke})
}

func (s *Socket) EmitStrokeUpdate(roomID, strokeID string, points []board.Point) error {
	return s.emit(protocol.EventStrokeUpdate, roomID, protocol.StrokeUpdatePayload{StrokeID: strokeID, Points: points})
}

func (s *Socket) EmitStrokeEnd(roomID, strokeID string) error {
	return s.emit(protocol.EventStrokeEnd, roomID, protocol.StrokeEndPayload{StrokeID: strokeID})
}

func (s *Socket) EmitUndo(roomID string) error {
	return s.emit(protocol.EventUndo, roomID, nil)
}

func (s *Socket) EmitRedo(roomID string) error {
	return s.emit(protocol.EventRedo, roomID, nil)
}

func (s *Socket) EmitClearAll(roomID string) error {
	return s.emit(protocol.EventClearAll, roomID, nil)
}

// Listen reads and dispatches server events until the connection closes or
// the context is canceled.
func (s *Socket) Listen(ctx context.Context, h Handlers) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		msg, err := protocol.Decode(raw)
		if err != nil {
			return err
		}

		switch msg.Type {
		case protocol.EventRemoteStrokeStart:
			var p protocol.StrokeStartPayload
			if err := msg.DecodeData(&p); err != nil {
				return err
			}
			if h.OnRemoteStrokeStart != nil {
				h.OnRemoteStrokeStart(p.Stroke)
			}

		case protocol.EventRemoteStrokeUpdate:
			var p protocol.StrokeUpdatePayload
			if err := msg.DecodeData(&p); err != nil {
				return err
			}
			if h.OnRemoteStrokeUpdate != nil {
				h.OnRemoteStrokeUpdate(p.StrokeID, p.Points)
			}

		case protocol.EventRemoteStrokeEnd:
			var p protocol.StrokeEndPayload
			if err := msg.DecodeData(&p); err != nil {
				return err
			}
			if h.OnRemoteStrokeEnd != nil {
				h.OnRemoteStrokeEnd(p.StrokeID)
			}

		case protocol.EventSyncState:
			var strokes []board.Stroke
			if err := msg.DecodeData(&strokes); err != nil {
				return err
			}
			if h.OnSyncState != nil {
				h.OnSyncState(strokes)
			}

		case protocol.EventUserJoin:
			var u protocol.User
			if err := msg.DecodeData(&u); err != nil {
				return err
			}
			if h.OnUserJoin != nil {
				h.OnUserJoin(u)
			}

		case protocol.EventUserLeave:
			var u protocol.User
			if err := msg.DecodeData(&u); err != nil {
				return err
			}
			if h.OnUserLeave != nil {
				h.OnUserLeave(u)
			}

		case protocol.EventClearAll:
			if h.OnClearAll != nil {
				h.OnClearAll()
			}
		}
	}
}
