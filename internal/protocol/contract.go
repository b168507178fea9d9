package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/inkroom-app/inkroom/internal/board"
)

// Message is the wire envelope. Data holds the event-specific payload and is
// decoded by the receiver according to Type.
type Message struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Payload structs, one per event that carries data.

type JoinRoomPayload struct {
	UserName string `json:"userName"`
}

type StrokeStartPayload struct {
	Stroke board.Stroke `json:"stroke"`
}

type StrokeUpdatePayload struct {
	StrokeID string        `json:"strokeId"`
	Points   []board.Point `json:"points"`
}

type StrokeEndPayload struct {
	StrokeID string `json:"strokeId"`
}

// Presence record for USER_JOIN / USER_LEAVE notifications.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Decode parses an envelope from raw bytes.
func Decode(raw []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return &m, nil
}

// DecodeData unmarshals the envelope's payload into v.
func (m *Message) DecodeData(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", m.Type, err)
	}
	return nil
}

// Encode builds the wire bytes for an envelope.
func Encode(eventType, roomID string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		raw = b
	}
	return json.Marshal(Message{Type: eventType, RoomID: roomID, Data: raw})
}

// Constructors for server-originated events.

func NewRemoteStrokeStart(roomID string, stroke board.Stroke) ([]byte, error) {
	return Encode(EventRemoteStrokeStart, roomID, StrokeStartPayload{Stroke: stroke})
}

func NewRemoteStrokeUpdate(roomID, strokeID string, points []board.Point) ([]byte, error) {
	return Encode(EventRemoteStrokeUpdate, roomID, StrokeUpdatePayload{StrokeID: strokeID, Points: points})
}

func NewRemoteStrokeEnd(roomID, strokeID string) ([]byte, error) {
	return Encode(EventRemoteStrokeEnd, roomID, StrokeEndPayload{StrokeID: strokeID})
}

func NewSyncState(roomID string, strokes []board.Stroke) ([]byte, error) {
	return Encode(EventSyncState, roomID, strokes)
}

func NewUserJoin(roomID string, user User) ([]byte, error) {
	return Encode(EventUserJoin, roomID, user)
}

func NewUserLeave(roomID string, user User) ([]byte, error) {
	return Encode(EventUserLeave, roomID, user)
}

func NewClearAll(roomID string) ([]byte, error) {
	return Encode(EventClearAll, roomID, nil)
}
