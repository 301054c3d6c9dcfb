package currency

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StaticSource serves rates from a fixed table regardless of date.
// Keys are "FROM/TO"; the inverse pair is derived when only one
// direction is listed.
type StaticSource map[string]decimal.Decimal

var _ RateSource = StaticSource(nil)

// Rate implements RateSource.
func (s StaticSource) Rate(_ context.Context, date time.Time, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := s[from+"/"+to]; ok {
		return rate, nil
	}
	if rate, ok := s[to+"/"+from]; ok && !rate.IsZero() {
		return decimal.NewFromInt(1).Div(rate), nil
	}
	return decimal.Zero, unavailable(date, from, to, nil)
}
