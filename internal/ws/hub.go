package ws

import (
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/inkroom-app/inkroom/internal/board"
	"github.com/inkroom-app/inkroom/internal/protocol"
	"github.com/inkroom-app/inkroom/internal/ratelimit"
)

// Presence colors. Picked uniformly at random; collisions between users are
// allowed.
var palette = []string{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#9b59b6"}

// Recorder receives finished strokes and board clears for out-of-band
// archiving. Implementations must not block.
type Recorder interface {
	RecordStroke(roomID string, stroke board.Stroke)
	RecordClear(roomID string)
}

type inbound struct {
	sender *Client
	msg    *protocol.Message
}

// Hub bridges connections to rooms: it owns presence membership, drives the
// history store, and fans lifecycle and history events out to room members.
//
// All history mutations and broadcasts happen on the single Run goroutine, so
// messages for a room never interleave mid-mutation. The mutex only covers
// the membership maps for read-side callers (stats, member listings).
type Hub struct {
	store    *board.Store
	recorder Recorder
	limiters *ratelimit.Registry
	log      *zap.SugaredLogger

	clients  map[*Client]bool
	rooms    map[string]map[*Client]bool
	presence map[string]map[string]protocol.User

	register   chan *Client
	unregister chan *Client
	inbound    chan *inbound

	mu sync.RWMutex
}

// NewHub wires the coordinator. recorder may be nil when archiving is
// disabled.
func NewHub(store *board.Store, recorder Recorder, limiters *ratelimit.Registry, log *zap.SugaredLogger) *Hub {
	return &Hub{
		store:      store,
		recorder:   recorder,
		limiters:   limiters,
		log:        log,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		presence:   make(map[string]map[string]protocol.User),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *inbound, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Infof("client %s connected", client.id)

		case client := <-h.unregister:
			h.disconnect(client)

		case in := <-h.inbound:
			h.dispatch(in)
		}
	}
}

func (h *Hub) dispatch(in *inbound) {
	msg := in.msg
	switch msg.Type {
	case protocol.EventJoinRoom:
		var p protocol.JoinRoomPayload
		if err := msg.DecodeData(&p); err != nil {
			h.log.Warnf("join: %v", err)
			return
		}
		h.handleJoin(in.sender, msg.RoomID, p.UserName)

	case protocol.EventStrokeStart:
		var p protocol.StrokeStartPayload
		if err := msg.DecodeData(&p); err != nil {
			h.log.Warnf("stroke start: %v", err)
			return
		}
		h.store.AddStroke(msg.RoomID, p.Stroke)
		h.relayExcept(msg.RoomID, in.sender, h.mustEncode(protocol.NewRemoteStrokeStart(msg.RoomID, p.Stroke)))

	case protocol.EventStrokeUpdate:
		var p protocol.StrokeUpdatePayload
		if err := msg.DecodeData(&p); err != nil {
			h.log.Warnf("stroke update: %v", err)
			return
		}
		h.store.AppendPoints(msg.RoomID, p.StrokeID, p.Points)
		h.relayExcept(msg.RoomID, in.sender, h.mustEncode(protocol.NewRemoteStrokeUpdate(msg.RoomID, p.StrokeID, p.Points)))

	case protocol.EventStrokeEnd:
		var p protocol.StrokeEndPayload
		if err := msg.DecodeData(&p); err != nil {
			h.log.Warnf("stroke end: %v", err)
			return
		}
		// The stroke data is already authoritative from start/update; end
		// only notifies peers and hands the finished stroke to the archive.
		h.relayExcept(msg.RoomID, in.sender, h.mustEncode(protocol.NewRemoteStrokeEnd(msg.RoomID, p.StrokeID)))
		if h.recorder != nil {
			if stroke, ok := h.store.Stroke(msg.RoomID, p.StrokeID); ok {
				h.recorder.RecordStroke(msg.RoomID, stroke)
			}
		}

	case protocol.EventUndo:
		h.store.Undo(msg.RoomID)
		h.resync(msg.RoomID)

	case protocol.EventRedo:
		h.store.Redo(msg.RoomID)
		h.resync(msg.RoomID)

	case protocol.EventClearAll:
		h.store.ClearRoom(msg.RoomID)
		if h.recorder != nil {
			h.recorder.RecordClear(msg.RoomID)
		}
		h.relayAll(msg.RoomID, h.mustEncode(protocol.NewClearAll(msg.RoomID)))

	default:
		h.log.Warnf("unknown event %q from client", msg.Type)
	}
}

func (h *Hub) handleJoin(c *Client, roomID, userName string) {
	if c == nil || roomID == "" {
		return
	}

	h.store.CreateRoom(roomID)

	user := protocol.User{
		ID:    c.id,
		Name:  userName,
		Color: palette[rand.Intn(len(palette))],
	}

	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
		h.presence[roomID] = make(map[string]protocol.User)
	}
	h.rooms[roomID][c] = true
	existing := make([]protocol.User, 0, len(h.presence[roomID]))
	for _, u := range h.presence[roomID] {
		existing = append(existing, u)
	}
	h.presence[roomID][c.id] = user
	memberCount := len(h.rooms[roomID])
	h.mu.Unlock()

	h.log.Infof("client %s (%s) joined room %s (total: %d)", c.id, userName, roomID, memberCount)

	// Existing members to the joiner, then the joiner to everyone else.
	for _, u := range existing {
		h.sendTo(c, h.mustEncode(protocol.NewUserJoin(roomID, u)))
	}
	h.relayExcept(roomID, c, h.mustEncode(protocol.NewUserJoin(roomID, user)))

	// Full history, undone strokes included, so the joiner can redo.
	h.sendTo(c, h.mustEncode(protocol.NewSyncState(roomID, h.store.All(roomID))))
}

// disconnect treats every connection loss as a clean leave: the user is
// removed from every room's membership set and a leave notice goes to the
// remaining members of each.
func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)

	type departure struct {
		roomID string
		user   protocol.User
	}
	var left []departure
	for roomID, members := range h.rooms {
		if members[c] {
			delete(members, c)
		}
		if u, ok := h.presence[roomID][c.id]; ok {
			delete(h.presence[roomID], c.id)
			left = append(left, departure{roomID: roomID, user: u})
		}
		if len(members) == 0 {
			delete(h.rooms, roomID)
			delete(h.presence, roomID)
			h.log.Infof("room %s idle (no connections)", roomID)
		}
	}
	h.mu.Unlock()

	h.limiters.Remove(c.id)

	for _, d := range left {
		h.relayAll(d.roomID, h.mustEncode(protocol.NewUserLeave(d.roomID, d.user)))
	}
	h.log.Infof("client %s disconnected", c.id)
}

// resync broadcasts the full visible set to every member, sender included.
// The payload replaces each client's rendered history wholesale, so every
// client converges regardless of local drift.
func (h *Hub) resync(roomID string) {
	h.relayAll(roomID, h.mustEncode(protocol.NewSyncState(roomID, h.store.Visible(roomID))))
}

func (h *Hub) relayExcept(roomID string, except *Client, raw []byte) {
	if raw == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if c != except {
			h.sendTo(c, raw)
		}
	}
}

func (h *Hub) relayAll(roomID string, raw []byte) {
	h.relayExcept(roomID, nil, raw)
}

// Fire-and-forget: a slow member misses the update until its next
// resync-triggering action.
func (h *Hub) sendTo(c *Client, raw []byte) {
	if raw == nil {
		return
	}
	select {
	case c.send <- raw:
	default:
		h.log.Warnf("client %s send buffer full, dropping message", c.id)
	}
}

func (h *Hub) mustEncode(raw []byte, err error) []byte {
	if err != nil {
		h.log.Errorf("encode event: %v", err)
		return nil
	}
	return raw
}

// ClearRoom lets non-websocket callers (the REST API) clear a room through
// the same single-writer path the protocol uses.
func (h *Hub) ClearRoom(roomID string) {
	h.inbound <- &inbound{msg: &protocol.Message{Type: protocol.EventClearAll, RoomID: roomID}}
}

// Stats accessors for the API.

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ActiveRooms maps room id to connected member count.
func (h *Hub) ActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]int, len(h.rooms))
	for id, members := range h.rooms {
		out[id] = len(members)
	}
	return out
}

// Members returns the presence records for a room.
func (h *Hub) Members(roomID string) []protocol.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]protocol.User, 0, len(h.presence[roomID]))
	for _, u := range h.presence[roomID] {
		users = append(users, u)
	}
	return users
}
