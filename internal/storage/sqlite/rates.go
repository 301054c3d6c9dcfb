package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LookupRate returns the cached rate for (day, from, to).
func (s *SQLiteStore) LookupRate(ctx context.Context, day, from, to string) (decimal.Decimal, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT rate FROM exchange_rates WHERE day = ? AND from_currency = ? AND to_currency = ?",
		day, from, to,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to get rate: %w", err)
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse cached rate %q: %w", raw, err)
	}
	return rate, true, nil
}

// SaveRate caches a rate, replacing any previous value for the same key.
func (s *SQLiteStore) SaveRate(ctx context.Context, day, from, to string, rate decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (day, from_currency, to_currency, rate, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (day, from_currency, to_currency) DO UPDATE SET rate = excluded.rate, fetched_at = excluded.fetched_at`,
		day, from, to, rate.String(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save rate: %w", err)
	}
	return nil
}
