package recorder

import (
	"time"

	"EarningsTicker/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSession(_ *SessionEvent) error               { return nil }
func (n *NoopRecorder) RecordCompletion(_ *model.CompletionEvent) error   { return nil }
func (n *NoopRecorder) RecordSnapshot(_ time.Time, _ []SnapshotRow) error { return nil }
func (n *NoopRecorder) Close() error                                      { return nil }
