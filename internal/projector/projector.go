package projector

import (
	"sync"
	"time"

	"EarningsTicker/internal/model"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Display is the render target for live values. The projector only writes to it.
type Display interface {
	HasSlot(id string, slot model.Slot) bool
	Render(id string, slot model.Slot, text string)
}

// CompletionHook is called once for every investment that completes while ticking.
type CompletionHook func(evt model.CompletionEvent)

// Options tunes a Projector. Zero Interval and Now select the defaults.
// Decimals is used as given, so 0 renders whole units.
type Options struct {
	Interval   time.Duration    // default 1s
	Decimals   int              // fraction digits of the earnings slot
	Now        func() time.Time // default time.Now
	OnComplete CompletionHook
}

type entry struct {
	inv   model.TrackedInvestment
	timer cron.EntryID
}

// Projector tracks active investments and renders their accrued earnings
// and remaining time on every tick until each term ends.
type Projector struct {
	mu         sync.Mutex
	ticker     Ticker
	display    Display
	interval   time.Duration
	step       int64
	decimals   int
	now        func() time.Time
	onComplete CompletionHook

	session string
	tracked map[string]*entry
	done    map[string]model.TrackedInvestment
}

// New creates a Projector. Nothing is tracked until Init is called.
func New(ticker Ticker, display Display, opts Options) *Projector {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Decimals < 0 {
		opts.Decimals = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	step := int64(opts.Interval / time.Second)
	if step < 1 {
		step = 1
	}
	return &Projector{
		ticker:     ticker,
		display:    display,
		interval:   opts.Interval,
		step:       step,
		decimals:   opts.Decimals,
		now:        opts.Now,
		onComplete: opts.OnComplete,
		tracked:    make(map[string]*entry),
		done:       make(map[string]model.TrackedInvestment),
	}
}

// OnComplete replaces the completion hook.
func (p *Projector) OnComplete(hook CompletionHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = hook
}

// Init starts a new session over records and returns how many investments entered the tick loop.
// Records without display slots are skipped. Records already past their end are rendered
// once at full earnings and never ticked. A record whose id is already tracked replaces it.
func (p *Projector) Init(records []model.InvestmentRecord) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session = uuid.NewString()
	p.done = make(map[string]model.TrackedInvestment)
	now := p.now()

	started := 0
	for _, r := range records {
		if !p.hasSlots(r.ID) {
			log.Debug().Str("id", r.ID).Msg("no display slot, skipping investment")
			continue
		}
		if _, ok := model.ParseDurationUnit(string(r.DurationUnit)); !ok {
			log.Warn().Str("id", r.ID).Str("unit", string(r.DurationUnit)).Msg("unknown duration unit, using day")
		}

		p.untrackLocked(r.ID)
		inv := track(r, now)
		p.render(&inv)

		if inv.Status == model.StatusComplete {
			p.done[inv.ID] = inv
			continue
		}

		e := &entry{inv: inv}
		id := inv.ID
		e.timer = p.ticker.Every(p.interval, func() { p.tick(id) })
		p.tracked[id] = e
		started++
	}

	log.Info().Str("session", p.session).Int("records", len(records)).Int("tracking", started).Msg("projector initialized")
	return started
}

// tick advances one investment by one interval.
func (p *Projector) tick(id string) {
	p.mu.Lock()
	e, ok := p.tracked[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	inv := &e.inv
	now := p.now()

	switch {
	case !inv.Scheduled():
		// no schedule known: stays at zero
	case now.Before(*inv.StartTime):
		inv.Status = model.StatusPending
	case !now.Before(*inv.EndTime):
		p.completeLocked(e, now)
		return
	default:
		if inv.Status == model.StatusPending {
			seed(inv, now)
		} else {
			inv.RemainingSeconds -= p.step
			if inv.RemainingSeconds < 0 {
				inv.RemainingSeconds = 0
			}
			// Incremental accrual drifts from the exact fraction; completion snaps it back.
			inv.Accrued += inv.Principal * inv.RatePerSecond * float64(p.step)
			if total := inv.Total(); inv.Accrued > total {
				inv.Accrued = total
			}
		}
		if inv.RemainingSeconds == 0 {
			p.completeLocked(e, now)
			return
		}
	}
	p.render(inv)
	p.mu.Unlock()
}

// completeLocked snaps the investment to its exact total, renders it, untracks it and
// releases p.mu before calling the completion hook.
func (p *Projector) completeLocked(e *entry, now time.Time) {
	inv := &e.inv
	inv.Accrued = inv.Total()
	inv.RemainingSeconds = 0
	inv.Status = model.StatusComplete
	p.render(inv)
	p.untrackLocked(inv.ID)
	p.done[inv.ID] = *inv

	evt := model.CompletionEvent{
		SessionID:    p.session,
		InvestmentID: inv.ID,
		Plan:         inv.Plan,
		Principal:    inv.Principal,
		Earned:       inv.Accrued,
		CompletedAt:  now,
	}
	hook := p.onComplete
	p.mu.Unlock()

	log.Info().Str("id", evt.InvestmentID).Float64("earned", evt.Earned).Msg("investment complete")
	if hook != nil {
		hook(evt)
	}
}

// Stop cancels tracking of one investment. Unknown ids are ignored.
func (p *Projector) Stop(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.untrackLocked(id)
}

// StopAll cancels every tracked investment.
func (p *Projector) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.tracked {
		p.untrackLocked(id)
	}
}

func (p *Projector) untrackLocked(id string) {
	e, ok := p.tracked[id]
	if !ok {
		return
	}
	p.ticker.Cancel(e.timer)
	delete(p.tracked, id)
}

// Get returns the current state of a tracked or completed investment.
func (p *Projector) Get(id string) (model.TrackedInvestment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.tracked[id]; ok {
		return e.inv, true
	}
	inv, ok := p.done[id]
	return inv, ok
}

// Snapshot returns tracked and completed investments of the current session.
func (p *Projector) Snapshot() []model.TrackedInvestment {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.TrackedInvestment, 0, len(p.tracked)+len(p.done))
	for _, e := range p.tracked {
		out = append(out, e.inv)
	}
	for _, inv := range p.done {
		out = append(out, inv)
	}
	return out
}

// Active returns the number of investments still ticking.
func (p *Projector) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tracked)
}

// SessionID identifies the batch passed to the last Init.
func (p *Projector) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

func (p *Projector) hasSlots(id string) bool {
	if id == "" || p.display == nil {
		return false
	}
	for _, s := range model.Slots {
		if !p.display.HasSlot(id, s) {
			return false
		}
	}
	return true
}

func (p *Projector) render(inv *model.TrackedInvestment) {
	p.display.Render(inv.ID, model.SlotEarnings, FormatAmount(inv.Accrued, p.decimals))
	p.display.Render(inv.ID, model.SlotRemaining, FormatRemaining(inv.RemainingSeconds))
}
