// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for event, expense and rate storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateEvent persists a new event together with its participants.
	// Missing IDs, invite code and timestamps are filled in by the store.
	CreateEvent(ctx context.Context, event *models.Event) error

	// GetEvent retrieves an event and its participants by ID.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// GetEventByInviteCode retrieves an event by its invite code.
	GetEventByInviteCode(ctx context.Context, code string) (*models.Event, error)

	// ListEvents returns all events without participants, newest first.
	ListEvents(ctx context.Context) ([]*models.Event, error)

	// DeleteEvent removes an event and everything that belongs to it.
	DeleteEvent(ctx context.Context, eventID string) error

	// AddParticipant adds a participant to an existing event.
	AddParticipant(ctx context.Context, participant *models.Participant) error

	// CreateExpense persists an expense and its split.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its payee and split.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByEvent returns an event's expenses ordered by date.
	ListExpensesByEvent(ctx context.Context, eventID string) ([]models.Expense, error)

	// UpdateExpense overwrites an expense and replaces its split.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense and its split.
	DeleteExpense(ctx context.Context, expenseID string) error

	// LookupRate returns a cached exchange rate for a day, if any.
	LookupRate(ctx context.Context, day, from, to string) (decimal.Decimal, bool, error)

	// SaveRate caches an exchange rate for a day.
	SaveRate(ctx context.Context, day, from, to string, rate decimal.Decimal) error

	// Close releases any resources held by the store.
	Close() error
}
