package projector

import (
	"time"

	"EarningsTicker/internal/model"
)

// track derives the initial accrual state of a record at now using the elapsed-fraction rule.
func track(r model.InvestmentRecord, now time.Time) model.TrackedInvestment {
	term := r.TermSeconds()
	inv := model.TrackedInvestment{
		ID:               r.ID,
		Plan:             r.Plan,
		Principal:        r.Principal,
		EarningRate:      r.EarningRate,
		TermSeconds:      term,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		RemainingSeconds: term,
		Status:           model.StatusPending,
	}
	if term > 0 {
		inv.RatePerSecond = r.EarningRate / float64(term)
	}
	seed(&inv, now)
	return inv
}

// seed sets Accrued, RemainingSeconds and Status from the exact elapsed fraction.
func seed(inv *model.TrackedInvestment, now time.Time) {
	switch {
	case !inv.Scheduled(), now.Before(*inv.StartTime):
		inv.Accrued = 0
		inv.RemainingSeconds = inv.TermSeconds
		inv.Status = model.StatusPending
	case !now.Before(*inv.EndTime):
		inv.Accrued = inv.Total()
		inv.RemainingSeconds = 0
		inv.Status = model.StatusComplete
	default:
		elapsed := now.Sub(*inv.StartTime).Seconds()
		inv.Accrued = inv.Total() * elapsedFraction(elapsed, inv.TermSeconds)
		inv.RemainingSeconds = inv.TermSeconds - int64(elapsed)
		if inv.RemainingSeconds <= 0 {
			inv.Accrued = inv.Total()
			inv.RemainingSeconds = 0
			inv.Status = model.StatusComplete
			return
		}
		inv.Status = model.StatusRunning
	}
}

// elapsedFraction is elapsed/term clamped to [0, 1].
func elapsedFraction(elapsed float64, term int64) float64 {
	if term <= 0 {
		return 1
	}
	f := elapsed / float64(term)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
