package projector

import (
	"testing"
	"time"

	"EarningsTicker/internal/display"
	"EarningsTicker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronTicker_CompletionStopsEveryEntry(t *testing.T) {
	if testing.Short() {
		t.Skip("runs on the wall clock")
	}

	tk := NewCronTicker()
	tk.Start()
	defer func() { <-tk.Stop().Done() }()

	board := display.NewBoard()
	board.Attach("short", "long")

	completed := make(chan model.CompletionEvent, 2)
	var p *Projector
	p = New(tk, board, Options{
		Decimals: 6,
		OnComplete: func(evt model.CompletionEvent) {
			p.StopAll()
			completed <- evt
		},
	})

	now := time.Now()
	short := model.InvestmentRecord{
		ID: "short", Principal: 1000, EarningRate: 0.01, Duration: 1, DurationUnit: model.UnitHour,
		StartTime: at(now.Add(-time.Hour + 2*time.Second)), EndTime: at(now.Add(2 * time.Second)),
	}
	long := record("long", at(now), at(now.Add(240*time.Hour)))

	require.Equal(t, 2, p.Init([]model.InvestmentRecord{short, long}))
	assert.Len(t, tk.Cron.Entries(), 2)

	var evt model.CompletionEvent
	select {
	case evt = <-completed:
	case <-time.After(10 * time.Second):
		t.Fatal("investment did not complete on the cron ticker")
	}

	assert.Equal(t, "short", evt.InvestmentID)
	assert.Equal(t, short.TotalEarnings(), evt.Earned)
	require.Eventually(t, func() bool { return len(tk.Cron.Entries()) == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, p.Active())

	inv, ok := p.Get("short")
	require.True(t, ok)
	assert.Equal(t, model.StatusComplete, inv.Status)
	assert.Equal(t, inv.Total(), inv.Accrued)
	assert.Equal(t, int64(0), inv.RemainingSeconds)
	text, _ := board.Read("short", model.SlotRemaining)
	assert.Equal(t, CompleteLabel, text)

	// Nothing ticks after StopAll.
	before, _ := board.Read("long", model.SlotRemaining)
	time.Sleep(1500 * time.Millisecond)
	after, _ := board.Read("long", model.SlotRemaining)
	assert.Equal(t, before, after)
	assert.Empty(t, completed)
}
