package board

// CompositeMode selects how a stroke is blended onto the board.
type CompositeMode string

const (
	// Normal pen drawing
	CompositeSourceOver CompositeMode = "source-over"

	// Eraser drawing
	CompositeDestinationOut CompositeMode = "destination-out"
)

// A single sampled pointer position. Immutable once sampled.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T int64   `json:"t"`
}

// One continuous pointer-down-to-pointer-up gesture.
//
// Points are append-only: they are never reordered or truncated. Undo hides a
// stroke by flipping Undone, it never removes data. A stroke with fewer than
// two points renders nothing but is still a valid history entry.
type Stroke struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Color     string        `json:"color"`
	Width     float64       `json:"width"`
	Composite CompositeMode `json:"composite"`
	Points    []Point       `json:"points"`
	Undone    bool          `json:"undone"`
}

// Returns a copy whose point slice is independent of the original.
func (s *Stroke) clone() Stroke {
	out := *s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	return out
}

// LastPoint returns the most recent point and whether one exists.
func (s *Stroke) LastPoint() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}
