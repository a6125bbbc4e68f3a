package game

import "time"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Position is the top left corner of an item on the board in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Item is one collectible.
type Item struct {
	Index     int      `json:"index"`
	Collected bool     `json:"collected"`
	Position  Position `json:"position"`
	// Handle identifies the rendered item in the presentation layer.
	Handle string `json:"handle"`
}

// Result summarises a completed session.
type Result struct {
	Collected  int
	Total      int
	Elapsed    time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot is a copy of the session state at one point in time.
type Snapshot struct {
	Phase            Phase
	Collected        int
	Total            int
	Items            []Item
	StartedAt        time.Time
	Elapsed          string
	Percent          int
	PlayAgainOffered bool
	// Result is set once the session has completed.
	Result *Result
}

// Active reports whether the session is in play.
func (s Snapshot) Active() bool {
	return s.Phase == PhaseActive
}

// session is the mutable state owned by the controller loop.
type session struct {
	phase            Phase
	collected        int
	startedAt        time.Time
	items            []Item
	elapsed          time.Duration
	playAgainOffered bool
	// generation changes on every start and reset so that callbacks scheduled for an earlier session are ignored.
	generation uint64
}
