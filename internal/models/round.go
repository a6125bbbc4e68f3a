package models

import (
	"time"
)

// Round is the persisted summary of a completed game session.
type Round struct {
	ID         int64
	GameID     string
	Collected  int
	Total      int
	Elapsed    time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}
