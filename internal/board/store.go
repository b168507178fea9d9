package board

import (
	"sync"
)

// Store is the authoritative, room-scoped, ordered stroke ledger.
//
// Rooms are created lazily and live for the process's lifetime. Operations
// referencing a missing room or stroke are silent no-ops rather than errors:
// the coordinator always creates the room on join, so those calls indicate a
// caller bug, not a recoverable condition.
//
// All accessors return copies; callers never see the store's own slices.
type Store struct {
	rooms map[string]*history
	mu    sync.RWMutex
}

type history struct {
	strokes []*Stroke
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*history),
	}
}

// CreateRoom is idempotent; it does nothing if the room already exists.
func (s *Store) CreateRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		s.rooms[roomID] = &history{strokes: make([]*Stroke, 0)}
	}
}

// AddStroke appends a new stroke at the end of the room's sequence.
func (s *Store) AddStroke(roomID string, stroke Stroke) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rooms[roomID]
	if !ok {
		return
	}
	c := stroke.clone()
	h.strokes = append(h.strokes, &c)
}

// AppendPoints extends the identified stroke's point sequence. Points sent
// for an undone or unknown stroke are dropped.
func (s *Store) AppendPoints(roomID, strokeID string, points []Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rooms[roomID]
	if !ok {
		return
	}
	for _, st := range h.strokes {
		if st.ID == strokeID {
			if !st.Undone {
				st.Points = append(st.Points, points...)
			}
			return
		}
	}
}

// Undo marks the most recently added not-yet-undone stroke as undone and
// returns a copy of it. It returns nil when every stroke is already undone or
// the room is empty or unknown.
func (s *Store) Undo(roomID string) *Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	for i := len(h.strokes) - 1; i >= 0; i-- {
		if !h.strokes[i].Undone {
			h.strokes[i].Undone = true
			c := h.strokes[i].clone()
			return &c
		}
	}
	return nil
}

// Redo clears the undone flag on the most recently added undone stroke and
// returns a copy of it, or nil if nothing is undone.
func (s *Store) Redo(roomID string) *Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	for i := len(h.strokes) - 1; i >= 0; i-- {
		if h.strokes[i].Undone {
			h.strokes[i].Undone = false
			c := h.strokes[i].clone()
			return &c
		}
	}
	return nil
}

// Visible returns the strokes with Undone == false in insertion order.
func (s *Store) Visible(roomID string) []Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.rooms[roomID]
	if !ok {
		return []Stroke{}
	}
	out := make([]Stroke, 0, len(h.strokes))
	for _, st := range h.strokes {
		if !st.Undone {
			out = append(out, st.clone())
		}
	}
	return out
}

// All returns every stroke regardless of undone state, in insertion order.
// Used for the initial join sync so a joining client can materialize its own
// redo potential.
func (s *Store) All(roomID string) []Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.rooms[roomID]
	if !ok {
		return []Stroke{}
	}
	out := make([]Stroke, 0, len(h.strokes))
	for _, st := range h.strokes {
		out = append(out, st.clone())
	}
	return out
}

// Stroke returns a copy of a single stroke by id.
func (s *Store) Stroke(roomID, strokeID string) (Stroke, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.rooms[roomID]
	if !ok {
		return Stroke{}, false
	}
	for _, st := range h.strokes {
		if st.ID == strokeID {
			return st.clone(), true
		}
	}
	return Stroke{}, false
}

// ClearRoom discards all strokes for the room. Room identity survives.
func (s *Store) ClearRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.rooms[roomID]; ok {
		h.strokes = make([]*Stroke, 0)
	}
}

// RoomIDs lists every room the store has seen.
func (s *Store) RoomIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

// HasRoom reports whether the room exists.
func (s *Store) HasRoom(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// StrokeCount returns the total number of strokes, undone included.
func (s *Store) StrokeCount(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.rooms[roomID]; ok {
		return len(h.strokes)
	}
	return 0
}
