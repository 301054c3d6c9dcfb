package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFXRatesURL is the public fxratesapi.com endpoint.
const DefaultFXRatesURL = "https://api.fxratesapi.com"

// FXRatesAPI fetches historical rates from fxratesapi.com (or any server
// speaking the same /historical?date=&base= protocol).
type FXRatesAPI struct {
	baseURL string
	client  *http.Client
}

var _ RateSource = (*FXRatesAPI)(nil)

// NewFXRatesAPI creates a source for baseURL. A zero timeout means the
// caller's context is the only deadline.
func NewFXRatesAPI(baseURL string, timeout time.Duration) *FXRatesAPI {
	if baseURL == "" {
		baseURL = DefaultFXRatesURL
	}
	return &FXRatesAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type historicalResponse struct {
	Success bool                       `json:"success"`
	Base    string                     `json:"base"`
	Rates   map[string]decimal.Decimal `json:"rates"`
}

// Rate implements RateSource.
func (s *FXRatesAPI) Rate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("date", date.Format(DateLayout))
	query.Set("base", from)
	endpoint := fmt.Sprintf("%s/historical?%s", s.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build rates request: %w", err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, unavailable(date, from, to, err)
	}
	defer resp.Body.Close()

	slog.Debug("Rates API responded",
		"status", resp.StatusCode,
		"base", from,
		"date", date.Format(DateLayout),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, unavailable(date, from, to, fmt.Errorf("rates API status %d", resp.StatusCode))
	}

	var body historicalResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, unavailable(date, from, to, fmt.Errorf("decode rates: %w", err))
	}

	rate, ok := body.Rates[to]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, unavailable(date, from, to, nil)
	}
	return rate, nil
}
