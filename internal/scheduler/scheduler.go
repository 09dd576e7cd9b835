package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"EarningsTicker/internal/collector"
	"EarningsTicker/internal/display"
	"EarningsTicker/internal/logging"
	"EarningsTicker/internal/model"
	"EarningsTicker/internal/notifier"
	"EarningsTicker/internal/projector"
	"EarningsTicker/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	sendRetries = 3
	// completionSendTimeout bounds a completion notice that outlives the service context.
	completionSendTimeout = 30 * time.Second
)

// Scheduler manages the service cron jobs around the projector.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Projector *projector.Projector
	Board     *display.Board
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Decimals  int
	Ctx       context.Context

	refreshMu sync.Mutex
	pending   sync.WaitGroup
}

// NewScheduler creates a new Scheduler and installs its completion hook on the projector.
func NewScheduler(ctx context.Context, col *collector.Collector, proj *projector.Projector, board *display.Board, n notifier.Notifier, rec recorder.Recorder, decimals int) *Scheduler {
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLogger(logging.CronLogger{}), cron.WithChain(cron.Recover(logging.CronLogger{}))),
		Collector: col,
		Projector: proj,
		Board:     board,
		Notifier:  n,
		Recorder:  rec,
		Decimals:  decimals,
		Ctx:       ctx,
	}
	proj.OnComplete(s.handleCompletion)
	return s
}

// RegisterAll registers the refresh and report jobs.
func (s *Scheduler) RegisterAll(refreshCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.Report); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler, cancels every tick and waits for pending completion work.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Projector.StopAll()
	s.Wait()
	log.Info().Msg("scheduler stopped")
}

// Wait blocks until every queued completion has been recorded and sent.
func (s *Scheduler) Wait() {
	s.pending.Wait()
}

func (s *Scheduler) refreshTask() {
	if _, err := s.Refresh(); err != nil {
		log.Error().Err(err).Msg("refresh investments")
	}
}

// Refresh reloads active investments and restarts tracking from scratch.
// Returns the number of investments now ticking. When collection fails the
// current session keeps ticking untouched.
func (s *Scheduler) Refresh() (int, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	records, err := s.Collector.Collect(s.Ctx)
	if err != nil {
		return 0, err
	}

	s.Projector.StopAll()
	s.Board.Reset()
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	s.Board.Attach(ids...)
	tracking := s.Projector.Init(records)

	if err := s.Recorder.RecordSession(&recorder.SessionEvent{
		SessionID: s.Projector.SessionID(),
		Source:    s.Collector.Fetcher.Name(),
		Records:   len(records),
		Tracking:  tracking,
		StartedAt: time.Now(),
	}); err != nil {
		log.Error().Err(err).Msg("record session")
	}
	return tracking, nil
}

// Report sends the live portfolio summary and records a snapshot.
func (s *Scheduler) Report() {
	invs := s.Projector.Snapshot()
	now := time.Now()
	s.trySend(notifier.FormatPortfolio(invs, s.Decimals, now))

	session := s.Projector.SessionID()
	rows := make([]recorder.SnapshotRow, len(invs))
	for i, inv := range invs {
		rows[i] = recorder.SnapshotRow{
			SessionID:        session,
			InvestmentID:     inv.ID,
			Principal:        inv.Principal,
			Accrued:          inv.Accrued,
			RemainingSeconds: inv.RemainingSeconds,
			Status:           inv.Status,
		}
	}
	if err := s.Recorder.RecordSnapshot(now, rows); err != nil {
		log.Error().Err(err).Msg("record snapshot")
	}
}

// handleCompletion runs on the tick goroutine, so I/O is moved off it.
func (s *Scheduler) handleCompletion(evt model.CompletionEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Recorder.RecordCompletion(&evt); err != nil {
			log.Error().Err(err).Str("id", evt.InvestmentID).Msg("record completion")
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.Ctx), completionSendTimeout)
		defer cancel()
		if err := s.Notifier.SendWithRetry(ctx, notifier.FormatCompletion(&evt), sendRetries); err != nil {
			log.Error().Err(err).Str("id", evt.InvestmentID).Msg("send completion")
		}
	}()
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/earnings":
		return notifier.FormatPortfolio(s.Projector.Snapshot(), s.Decimals, time.Now())
	case "/refresh":
		n, err := s.Refresh()
		if err != nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		return fmt.Sprintf("🔄 Tracking %d investments", n)
	default:
		return "Available commands:\n• /earnings\n• /refresh"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
