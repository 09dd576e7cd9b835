package collector

import (
	"context"

	"EarningsTicker/internal/model"
)

// Fetcher defines the interface for loading active investments from the backend.
type Fetcher interface {
	FetchActiveInvestments(ctx context.Context) ([]model.InvestmentRecord, error)
	Name() string
}
