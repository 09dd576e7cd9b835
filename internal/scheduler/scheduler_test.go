package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"EarningsTicker/internal/collector"
	"EarningsTicker/internal/display"
	"EarningsTicker/internal/model"
	"EarningsTicker/internal/projector"
	"EarningsTicker/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRecorder is a mock implementation of recorder.Recorder for testing
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordSession(evt *recorder.SessionEvent) error {
	return m.Called(evt).Error(0)
}

func (m *MockRecorder) RecordCompletion(evt *model.CompletionEvent) error {
	return m.Called(evt).Error(0)
}

func (m *MockRecorder) RecordSnapshot(takenAt time.Time, rows []recorder.SnapshotRow) error {
	return m.Called(takenAt, rows).Error(0)
}

func (m *MockRecorder) Close() error {
	return m.Called().Error(0)
}

type sentMessages struct {
	mu   sync.Mutex
	msgs []string
}

func (s *sentMessages) SendWithRetry(ctx context.Context, text string, _ int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, text)
	return nil
}

func (s *sentMessages) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

// stepTicker keeps scheduled ticks until fired by the test.
type stepTicker struct {
	mu   sync.Mutex
	next cron.EntryID
	jobs map[cron.EntryID]func()
}

func (t *stepTicker) Every(_ time.Duration, fn func()) cron.EntryID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.jobs[t.next] = fn
	return t.next
}

func (t *stepTicker) Cancel(id cron.EntryID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

func (t *stepTicker) fire() {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.jobs))
	for _, fn := range t.jobs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// unwritableCache never stores anything, like a cache file that could not be written.
type unwritableCache struct{}

func (unwritableCache) Load() ([]model.InvestmentRecord, error) { return nil, nil }

func (unwritableCache) Save([]model.InvestmentRecord) error {
	return errors.New("read-only file system")
}

type fixture struct {
	s       *Scheduler
	fetcher *collector.MockFetcher
	ticker  *stepTicker
	board   *display.Board
	rec     *MockRecorder
	sent    *sentMessages
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		fetcher: &collector.MockFetcher{},
		ticker:  &stepTicker{jobs: make(map[cron.EntryID]func())},
		board:   display.NewBoard(),
		rec:     new(MockRecorder),
		sent:    &sentMessages{},
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	proj := projector.New(f.ticker, f.board, projector.Options{
		Decimals: 2,
		Now:      func() time.Time { return f.now },
	})
	f.s = NewScheduler(context.Background(), collector.NewCollector(f.fetcher, nil), proj, f.board, f.sent, f.rec, 2)
	return f
}

func at(t time.Time) *time.Time { return &t }

func TestRefresh_TracksFetchedInvestments(t *testing.T) {
	f := newFixture(t)
	f.fetcher.Records = []model.InvestmentRecord{
		{ID: "a", Principal: 1000, EarningRate: 0.1, Duration: 10, DurationUnit: model.UnitDay,
			StartTime: at(f.now.Add(-120 * time.Hour)), EndTime: at(f.now.Add(120 * time.Hour))},
		{ID: "b", Principal: 500, EarningRate: 0.2, Duration: 1, DurationUnit: model.UnitWeek},
		{ID: "", Principal: 1},
	}
	f.rec.On("RecordSession", mock.MatchedBy(func(evt *recorder.SessionEvent) bool {
		return evt.Source == "mock" && evt.Records == 2 && evt.Tracking == 2 && evt.SessionID != ""
	})).Return(nil)

	n, err := f.s.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	text, ok := f.board.Read("a", model.SlotEarnings)
	require.True(t, ok)
	assert.Equal(t, "50.00", text)
	text, _ = f.board.Read("b", model.SlotRemaining)
	assert.Equal(t, "7d 0h 0m 0s", text)
	f.rec.AssertExpectations(t)
}

func TestRefresh_ReplacesPreviousSession(t *testing.T) {
	f := newFixture(t)
	f.rec.On("RecordSession", mock.Anything).Return(nil)

	f.fetcher.Records = []model.InvestmentRecord{{ID: "old", Principal: 10, EarningRate: 0.1, Duration: 1, DurationUnit: model.UnitDay}}
	_, err := f.s.Refresh()
	require.NoError(t, err)

	f.fetcher.Records = []model.InvestmentRecord{{ID: "new", Principal: 10, EarningRate: 0.1, Duration: 1, DurationUnit: model.UnitDay}}
	_, err = f.s.Refresh()
	require.NoError(t, err)

	assert.False(t, f.board.HasSlot("old", model.SlotEarnings))
	_, ok := f.s.Projector.Get("old")
	assert.False(t, ok)
	assert.Equal(t, 1, f.s.Projector.Active())
	assert.Len(t, f.ticker.jobs, 1)
}

func TestRefresh_FetchError(t *testing.T) {
	f := newFixture(t)
	f.fetcher.Err = errors.New("backend down")

	_, err := f.s.Refresh()
	require.Error(t, err)
	f.rec.AssertNotCalled(t, "RecordSession", mock.Anything)

	reply := f.s.HandleCommand("/refresh")
	assert.Contains(t, reply, "backend down")
}

func TestRefresh_OutageWithEmptyCacheKeepsTracking(t *testing.T) {
	f := newFixture(t)
	f.s.Collector.Cache = unwritableCache{}
	f.rec.On("RecordSession", mock.Anything).Return(nil).Once()
	f.fetcher.Records = []model.InvestmentRecord{
		{ID: "a", Principal: 1000, EarningRate: 0.1, Duration: 10, DurationUnit: model.UnitDay,
			StartTime: at(f.now.Add(-120 * time.Hour)), EndTime: at(f.now.Add(120 * time.Hour))},
	}

	n, err := f.s.Refresh()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	f.fetcher.Err = errors.New("backend down")
	n, err = f.s.Refresh()
	require.Error(t, err)
	assert.ErrorContains(t, err, "backend down")
	assert.Equal(t, 0, n)

	assert.Equal(t, 1, f.s.Projector.Active())
	assert.True(t, f.board.HasSlot("a", model.SlotEarnings))
	assert.Len(t, f.ticker.jobs, 1)

	f.now = f.now.Add(time.Second)
	f.ticker.fire()
	text, _ := f.board.Read("a", model.SlotRemaining)
	assert.Equal(t, "4d 23h 59m 59s", text)
	f.rec.AssertExpectations(t)
}

func TestCompletion_RecordsAndNotifies(t *testing.T) {
	f := newFixture(t)
	f.fetcher.Records = []model.InvestmentRecord{
		{ID: "a", Plan: "Hourly", Principal: 1000, EarningRate: 0.01, Duration: 1, DurationUnit: model.UnitHour,
			StartTime: at(f.now.Add(-time.Hour + time.Second)), EndTime: at(f.now.Add(time.Second))},
	}
	f.rec.On("RecordSession", mock.Anything).Return(nil)
	f.rec.On("RecordCompletion", mock.MatchedBy(func(evt *model.CompletionEvent) bool {
		return evt.InvestmentID == "a" && evt.Earned == 1000*0.01
	})).Return(nil).Once()

	_, err := f.s.Refresh()
	require.NoError(t, err)

	f.now = f.now.Add(time.Second)
	f.ticker.fire()
	f.s.Wait()

	f.rec.AssertExpectations(t)
	sent := f.sent.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Investment complete")
	assert.Contains(t, sent[0], "Plan: Hourly")
	assert.Equal(t, 0, f.s.Projector.Active())
}

func TestCompletion_NotifiesAfterContextCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.s.Ctx = ctx
	f.fetcher.Records = []model.InvestmentRecord{
		{ID: "a", Principal: 1000, EarningRate: 0.01, Duration: 1, DurationUnit: model.UnitHour,
			StartTime: at(f.now.Add(-time.Hour + time.Second)), EndTime: at(f.now.Add(time.Second))},
	}
	f.rec.On("RecordSession", mock.Anything).Return(nil)
	f.rec.On("RecordCompletion", mock.Anything).Return(nil).Once()

	_, err := f.s.Refresh()
	require.NoError(t, err)

	cancel()
	f.now = f.now.Add(time.Second)
	f.ticker.fire()
	f.s.Wait()

	require.Len(t, f.sent.all(), 1)
	assert.Contains(t, f.sent.all()[0], "Investment complete")
	f.rec.AssertExpectations(t)
}

func TestReport_SendsSummaryAndRecordsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.fetcher.Records = []model.InvestmentRecord{
		{ID: "a", Principal: 1000, EarningRate: 0.1, Duration: 10, DurationUnit: model.UnitDay,
			StartTime: at(f.now.Add(-120 * time.Hour)), EndTime: at(f.now.Add(120 * time.Hour))},
	}
	f.rec.On("RecordSession", mock.Anything).Return(nil)
	f.rec.On("RecordSnapshot", mock.Anything, mock.MatchedBy(func(rows []recorder.SnapshotRow) bool {
		return len(rows) == 1 && rows[0].InvestmentID == "a" && rows[0].RemainingSeconds == 432000 &&
			rows[0].Status == model.StatusRunning
	})).Return(nil)

	_, err := f.s.Refresh()
	require.NoError(t, err)
	f.s.Report()

	sent := f.sent.all()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "a: 50.00 / 100 (5d 0h 0m 0s left)")
	f.rec.AssertExpectations(t)
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t)
	f.rec.On("RecordSession", mock.Anything).Return(nil)
	f.fetcher.Records = []model.InvestmentRecord{{ID: "x", Principal: 10, EarningRate: 0.1, Duration: 1, DurationUnit: model.UnitDay}}

	assert.Contains(t, f.s.HandleCommand("/earnings"), "No active investments.")
	assert.Equal(t, "🔄 Tracking 1 investments", f.s.HandleCommand("/refresh"))
	assert.Contains(t, f.s.HandleCommand("/earnings"), "x: 0.00")
	assert.True(t, strings.HasPrefix(f.s.HandleCommand("hello"), "Available commands"))
}

func TestRegisterAll_RejectsBadSpec(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.s.RegisterAll("nonsense", "0 0 9 * * *"))
	assert.Error(t, f.s.RegisterAll("0 */15 * * * *", "nonsense"))
}
