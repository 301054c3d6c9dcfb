// Package currency converts amounts between currencies for a given day.
//
// The calculator only sees the Converter interface. Rates come from a
// RateSource: a fixed table, the fxratesapi.com HTTP API, or either of
// those wrapped in a persistent cache.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DateLayout is the day format used for rate lookups and cache keys.
const DateLayout = "2006-01-02"

var (
	// ErrConversionUnavailable is returned when no rate exists for a
	// (date, from, to) triple. Callers must not substitute a default rate.
	ErrConversionUnavailable = errors.New("currency conversion unavailable")

	// ErrInvalidCode is returned for strings that are not ISO-4217 codes.
	ErrInvalidCode = errors.New("invalid currency code")
)

// Converter converts an amount in major units of one currency into
// major units of another, using the rate valid on date.
type Converter interface {
	Convert(ctx context.Context, date time.Time, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// RateSource returns the multiplier turning one unit of from into to.
type RateSource interface {
	Rate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error)
}

// RateConverter adapts a RateSource into a Converter.
type RateConverter struct {
	source RateSource
}

var _ Converter = (*RateConverter)(nil)

// NewRateConverter creates a converter backed by source.
func NewRateConverter(source RateSource) *RateConverter {
	return &RateConverter{source: source}
}

// Convert multiplies amount by the rate for date. Same-currency
// conversions never reach the source.
func (c *RateConverter) Convert(ctx context.Context, date time.Time, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}
	rate, err := c.source.Rate(ctx, date, strings.ToUpper(from), strings.ToUpper(to))
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// Normalize validates code as an ISO-4217 currency and returns its
// canonical upper-case form.
func Normalize(code string) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return unit.String(), nil
}

// Scale is the number of minor-unit digits of code (2 for EUR, 0 for JPY).
// Unknown codes default to 2.
func Scale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// ToMajor turns a minor-unit amount of code into an exact major-unit decimal.
func ToMajor(code string, minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale(code))
}

// FormatHundredths renders a balance or debt amount with two decimals.
func FormatHundredths(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

func unavailable(date time.Time, from, to string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s to %s on %s", ErrConversionUnavailable, from, to, date.Format(DateLayout))
	}
	return fmt.Errorf("%w: %s to %s on %s: %v", ErrConversionUnavailable, from, to, date.Format(DateLayout), cause)
}
