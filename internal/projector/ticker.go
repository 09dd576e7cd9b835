package projector

import (
	"context"
	"time"

	"EarningsTicker/internal/logging"

	"github.com/robfig/cron/v3"
)

// Ticker runs a function on a fixed interval until cancelled.
type Ticker interface {
	Every(interval time.Duration, fn func()) cron.EntryID
	Cancel(id cron.EntryID)
}

// CronTicker drives per-investment ticks from a dedicated cron instance.
// Each entry is wrapped in SkipIfStillRunning so one investment's ticks never overlap.
type CronTicker struct {
	Cron *cron.Cron
}

// NewCronTicker creates a CronTicker. Call Start before expecting ticks.
func NewCronTicker() *CronTicker {
	logger := logging.CronLogger{}
	return &CronTicker{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Every schedules fn at the given interval, rounded up to whole seconds by cron.
func (t *CronTicker) Every(interval time.Duration, fn func()) cron.EntryID {
	return t.Cron.Schedule(cron.Every(interval), cron.FuncJob(fn))
}

// Cancel removes the entry. Unknown ids are ignored.
func (t *CronTicker) Cancel(id cron.EntryID) {
	t.Cron.Remove(id)
}

func (t *CronTicker) Start() {
	t.Cron.Start()
}

// Stop halts scheduling and returns a context that is done once running ticks finish.
func (t *CronTicker) Stop() context.Context {
	return t.Cron.Stop()
}
