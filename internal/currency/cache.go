package currency

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

var rateLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "splitledger_rate_cache_lookups_total",
	Help: "Exchange-rate cache lookups by result (hit, miss, error).",
}, []string{"result"})

// RateStore persists rates by day. It is implemented by storage/sqlite.
type RateStore interface {
	LookupRate(ctx context.Context, day, from, to string) (decimal.Decimal, bool, error)
	SaveRate(ctx context.Context, day, from, to string, rate decimal.Decimal) error
}

// CachedSource serves rates from a RateStore and falls back to an
// upstream source, persisting whatever it fetches. Entries never expire.
type CachedSource struct {
	store    RateStore
	upstream RateSource
	inflight singleflight.Group
}

var _ RateSource = (*CachedSource)(nil)

// NewCachedSource wraps upstream with store.
func NewCachedSource(store RateStore, upstream RateSource) *CachedSource {
	return &CachedSource{store: store, upstream: upstream}
}

// Rate implements RateSource. Concurrent misses for the same key share
// a single upstream request. That request runs without the caller's
// cancellation so one caller giving up does not fail the others; the
// upstream source's own timeout bounds it.
func (c *CachedSource) Rate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error) {
	day := date.Format(DateLayout)

	rate, ok, err := c.store.LookupRate(ctx, day, from, to)
	switch {
	case err != nil:
		rateLookups.WithLabelValues("error").Inc()
		slog.Warn("Rate cache lookup failed", "day", day, "from", from, "to", to, "error", err)
	case ok:
		rateLookups.WithLabelValues("hit").Inc()
		return rate, nil
	default:
		rateLookups.WithLabelValues("miss").Inc()
	}

	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := c.inflight.Do(day+"/"+from+"/"+to, func() (any, error) {
		rate, err := c.upstream.Rate(fetchCtx, date, from, to)
		if err != nil {
			return nil, err
		}
		if err := c.store.SaveRate(fetchCtx, day, from, to, rate); err != nil {
			slog.Warn("Rate cache write failed", "day", day, "from", from, "to", to, "error", err)
		}
		return rate, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	if shared {
		slog.Debug("Rate lookup shared", "day", day, "from", from, "to", to)
	}
	return v.(decimal.Decimal), nil
}
