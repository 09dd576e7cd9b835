package collector

import (
	"context"
	"fmt"

	"EarningsTicker/internal/model"

	"github.com/rs/zerolog/log"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Records []model.InvestmentRecord
	Err     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchActiveInvestments(_ context.Context) ([]model.InvestmentRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// Cache stores the last successful fetch.
type Cache interface {
	Load() ([]model.InvestmentRecord, error)
	Save(records []model.InvestmentRecord) error
}

// Collector orchestrates fetching and cleaning of active investments.
type Collector struct {
	Fetcher Fetcher
	Cache   Cache
}

// NewCollector creates a new Collector. cache may be nil.
func NewCollector(fetcher Fetcher, cache Cache) *Collector {
	return &Collector{Fetcher: fetcher, Cache: cache}
}

// Collect fetches active investments, drops unusable records and refreshes the cache.
// When the fetch fails and a cache is configured, a non-empty cached list is returned instead.
func (c *Collector) Collect(ctx context.Context) ([]model.InvestmentRecord, error) {
	records, err := c.Fetcher.FetchActiveInvestments(ctx)
	if err != nil {
		if c.Cache == nil {
			return nil, fmt.Errorf("collect from %s: %w", c.Fetcher.Name(), err)
		}
		cached, cacheErr := c.Cache.Load()
		if cacheErr != nil {
			return nil, fmt.Errorf("collect from %s: %w; cache fallback also failed: %w", c.Fetcher.Name(), err, cacheErr)
		}
		cached = Clean(cached)
		if len(cached) == 0 {
			return nil, fmt.Errorf("collect from %s: %w; investment cache is empty", c.Fetcher.Name(), err)
		}
		log.Warn().Err(err).Int("records", len(cached)).Msg("fetch failed, using cached investments")
		return cached, nil
	}

	records = Clean(records)
	if c.Cache != nil {
		if err := c.Cache.Save(records); err != nil {
			log.Error().Err(err).Msg("save investment cache")
		}
	}
	return records, nil
}

// Clean drops records without an id, with a non-positive principal or a negative rate,
// and keeps the first record of each id.
func Clean(records []model.InvestmentRecord) []model.InvestmentRecord {
	seen := make(map[string]bool, len(records))
	out := make([]model.InvestmentRecord, 0, len(records))
	for _, r := range records {
		switch {
		case r.ID == "":
			log.Warn().Msg("dropping investment without id")
			continue
		case r.Principal <= 0:
			log.Warn().Str("id", r.ID).Float64("amount", r.Principal).Msg("dropping investment with non-positive amount")
			continue
		case r.EarningRate < 0:
			log.Warn().Str("id", r.ID).Float64("earning_rate", r.EarningRate).Msg("dropping investment with negative earning rate")
			continue
		case seen[r.ID]:
			log.Warn().Str("id", r.ID).Msg("dropping duplicate investment")
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
