package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"EarningsTicker/internal/model"

	"github.com/rs/zerolog/log"
)

// BackendFetcher implements Fetcher against the trading backend REST API.
type BackendFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewBackendFetcher creates a new fetcher with optional proxy support.
func NewBackendFetcher(baseURL, apiKey, proxyURL string) *BackendFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BackendFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *BackendFetcher) Name() string { return "backend" }

// backendInvestment is the JSON shape returned by the backend. Amounts may arrive as
// numbers or numeric strings and timestamps as strings or unix seconds.
type backendInvestment struct {
	ID           json.RawMessage `json:"id"`
	Plan         string          `json:"plan"`
	Amount       interface{}     `json:"amount"`
	EarningRate  interface{}     `json:"earning_rate"`
	Duration     interface{}     `json:"duration"`
	DurationUnit string          `json:"duration_unit"`
	StartTime    interface{}     `json:"start_time"`
	EndTime      interface{}     `json:"end_time"`
}

func (f *BackendFetcher) FetchActiveInvestments(ctx context.Context) ([]model.InvestmentRecord, error) {
	endpoint := f.BaseURL + "/api/v1/investments/active"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch investments: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch investments: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw []backendInvestment
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode investments: %w", err)
	}
	records := make([]model.InvestmentRecord, 0, len(raw))
	for _, bi := range raw {
		records = append(records, bi.toRecord())
	}
	return records, nil
}

func (bi backendInvestment) toRecord() model.InvestmentRecord {
	id := strings.Trim(string(bi.ID), `"`)
	if id == "null" {
		id = ""
	}
	return model.InvestmentRecord{
		ID:           id,
		Plan:         bi.Plan,
		Principal:    toFloat(bi.Amount),
		EarningRate:  toFloat(bi.EarningRate),
		Duration:     int(toFloat(bi.Duration)),
		DurationUnit: model.DurationUnit(bi.DurationUnit),
		StartTime:    parseTime(id, "start_time", bi.StartTime),
		EndTime:      parseTime(id, "end_time", bi.EndTime),
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTime returns nil for absent or malformed timestamps.
func parseTime(id, field string, v interface{}) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		if t <= 0 {
			return nil
		}
		ts := time.Unix(int64(t), 0)
		return &ts
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return &ts
			}
		}
	}
	log.Warn().Str("id", id).Str("field", field).Interface("value", v).Msg("malformed timestamp, treating as absent")
	return nil
}
