package model

import (
	"strings"
	"time"
)

// DurationUnit is the unit an investment term is expressed in.
type DurationUnit string

const (
	UnitHour  DurationUnit = "hour"
	UnitDay   DurationUnit = "day"
	UnitWeek  DurationUnit = "week"
	UnitMonth DurationUnit = "month"
)

var unitSeconds = map[DurationUnit]int64{
	UnitHour:  3600,
	UnitDay:   86400,
	UnitWeek:  604800,
	UnitMonth: 2592000,
}

// ParseDurationUnit normalizes a unit name ("Days", "hours", "week").
// The second return is false when the name is not recognized, in which case UnitDay is returned.
func ParseDurationUnit(s string) (DurationUnit, bool) {
	u := DurationUnit(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if _, ok := unitSeconds[u]; ok {
		return u, true
	}
	return UnitDay, false
}

// Seconds returns the fixed second count of one unit. Unknown units count as a day.
func (u DurationUnit) Seconds() int64 {
	if s, ok := unitSeconds[u]; ok {
		return s
	}
	return unitSeconds[UnitDay]
}

// InvestmentRecord is an active investment as delivered by the backend.
type InvestmentRecord struct {
	ID           string       `json:"id"`
	Plan         string       `json:"plan,omitempty"`
	Principal    float64      `json:"amount"`
	EarningRate  float64      `json:"earning_rate"` // fraction of principal over the full term
	Duration     int          `json:"duration"`
	DurationUnit DurationUnit `json:"duration_unit"`
	StartTime    *time.Time   `json:"start_time,omitempty"`
	EndTime      *time.Time   `json:"end_time,omitempty"`
}

// TermSeconds returns the full term length in seconds.
func (r InvestmentRecord) TermSeconds() int64 {
	unit, _ := ParseDurationUnit(string(r.DurationUnit))
	return int64(r.Duration) * unit.Seconds()
}

// TotalEarnings is the amount earned once the term completes.
func (r InvestmentRecord) TotalEarnings() float64 {
	return r.Principal * r.EarningRate
}

// TrackStatus is the lifecycle state of a tracked investment.
type TrackStatus string

const (
	StatusPending  TrackStatus = "PENDING" // not started or missing schedule
	StatusRunning  TrackStatus = "RUNNING"
	StatusComplete TrackStatus = "COMPLETE"
)

// TrackedInvestment is the live accrual state derived from an InvestmentRecord.
type TrackedInvestment struct {
	ID               string
	Plan             string
	Principal        float64
	EarningRate      float64
	TermSeconds      int64
	StartTime        *time.Time
	EndTime          *time.Time
	RatePerSecond    float64
	RemainingSeconds int64
	Accrued          float64
	Status           TrackStatus
}

// Total is Principal * EarningRate, the exact closing value of Accrued.
func (t *TrackedInvestment) Total() float64 {
	return t.Principal * t.EarningRate
}

// Scheduled reports whether both start and end timestamps are known.
func (t *TrackedInvestment) Scheduled() bool {
	return t.StartTime != nil && t.EndTime != nil
}

// CompletionEvent is emitted once when a tracked investment reaches the end of its term.
type CompletionEvent struct {
	SessionID    string
	InvestmentID string
	Plan         string
	Principal    float64
	Earned       float64
	CompletedAt  time.Time
}
