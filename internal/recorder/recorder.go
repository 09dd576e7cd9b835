package recorder

import (
	"time"

	"EarningsTicker/internal/model"
)

// SessionEvent records one projector initialization.
type SessionEvent struct {
	SessionID string
	Source    string // fetcher name
	Records   int
	Tracking  int
	StartedAt time.Time
}

// SnapshotRow is the projected state of one investment at report time.
type SnapshotRow struct {
	SessionID        string
	InvestmentID     string
	Principal        float64
	Accrued          float64
	RemainingSeconds int64
	Status           model.TrackStatus
}

// Recorder persists projector history for analysis.
type Recorder interface {
	RecordSession(evt *SessionEvent) error
	RecordCompletion(evt *model.CompletionEvent) error
	RecordSnapshot(takenAt time.Time, rows []SnapshotRow) error
	Close() error
}
