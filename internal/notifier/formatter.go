package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"EarningsTicker/internal/model"
	"EarningsTicker/internal/projector"

	"github.com/dustin/go-humanize"
)

// FormatCompletion formats a completed investment into a Telegram message.
func FormatCompletion(evt *model.CompletionEvent) string {
	var b strings.Builder
	b.WriteString("✅ <b>Investment complete</b>\n\n")
	b.WriteString(fmt.Sprintf("ID: %s\n", html.EscapeString(evt.InvestmentID)))
	if evt.Plan != "" {
		b.WriteString(fmt.Sprintf("Plan: %s\n", html.EscapeString(evt.Plan)))
	}
	b.WriteString(fmt.Sprintf("Principal: %s\n", humanize.CommafWithDigits(evt.Principal, 2)))
	b.WriteString(fmt.Sprintf("Earned: %s\n", humanize.CommafWithDigits(evt.Earned, 2)))
	b.WriteString(fmt.Sprintf("Completed: %s\n", evt.CompletedAt.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatPortfolio formats the live projection of every investment, soonest completion first.
func FormatPortfolio(invs []model.TrackedInvestment, decimals int, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>Live earnings</b> | %s\n\n", now.Format("2006-01-02 15:04")))
	if len(invs) == 0 {
		b.WriteString("No active investments.")
		return b.String()
	}

	sorted := make([]model.TrackedInvestment, len(invs))
	copy(sorted, invs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RemainingSeconds != sorted[j].RemainingSeconds {
			return sorted[i].RemainingSeconds < sorted[j].RemainingSeconds
		}
		return sorted[i].ID < sorted[j].ID
	})

	var principal, accrued, total float64
	for _, inv := range sorted {
		name := inv.ID
		if inv.Plan != "" {
			name = inv.Plan + " #" + inv.ID
		}
		b.WriteString(fmt.Sprintf("• %s: %s / %s (%s)\n",
			html.EscapeString(name),
			projector.FormatAmount(inv.Accrued, decimals),
			humanize.CommafWithDigits(inv.Total(), 2),
			statusText(inv)))
		principal += inv.Principal
		accrued += inv.Accrued
		total += inv.Total()
	}

	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("Principal: %s\n", humanize.CommafWithDigits(principal, 2)))
	b.WriteString(fmt.Sprintf("Accrued: %s of %s\n", humanize.CommafWithDigits(accrued, 2), humanize.CommafWithDigits(total, 2)))
	return b.String()
}

func statusText(inv model.TrackedInvestment) string {
	switch inv.Status {
	case model.StatusComplete:
		return projector.CompleteLabel
	case model.StatusPending:
		return "not started"
	default:
		return projector.FormatRemaining(inv.RemainingSeconds) + " left"
	}
}
