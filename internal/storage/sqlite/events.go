package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// CreateEvent persists a new event and its participants in one transaction.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.InviteCode == "" {
		event.InviteCode = generateInviteCode()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}
	if event.UpdatedAt == 0 {
		event.UpdatedAt = event.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO events (id, name, invite_code, base_currency, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Name, event.InviteCode, event.BaseCurrency, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for i := range event.Participants {
		p := &event.Participants[i]
		p.EventID = event.ID
		if err := insertParticipant(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID, including its participants.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return s.getEvent(ctx, "id", eventID)
}

// GetEventByInviteCode retrieves an event by invite code, including its participants.
func (s *SQLiteStore) GetEventByInviteCode(ctx context.Context, code string) (*models.Event, error) {
	return s.getEvent(ctx, "invite_code", code)
}

// getEvent looks an event up by a unique column. column is never user input.
func (s *SQLiteStore) getEvent(ctx context.Context, column, value string) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, invite_code, base_currency, created_at, updated_at FROM events WHERE "+column+" = ?",
		value,
	).Scan(&event.ID, &event.Name, &event.InviteCode, &event.BaseCurrency, &event.CreatedAt, &event.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("event", value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event.Participants, err = s.listParticipants(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ListEvents retrieves all events, newest first. Participants are not loaded.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, invite_code, base_currency, created_at, updated_at FROM events ORDER BY created_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		if err := rows.Scan(&event.ID, &event.Name, &event.InviteCode, &event.BaseCurrency, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes an event; participants and expenses cascade.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, eventID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Expenses reference participants, so they go first.
	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE event_id = ?", eventID); err != nil {
		return fmt.Errorf("failed to delete expenses: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("event", eventID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// AddParticipant adds a participant to an existing event.
func (s *SQLiteStore) AddParticipant(ctx context.Context, participant *models.Participant) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ?", participant.EventID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("event", participant.EventID)
	}
	if err != nil {
		return fmt.Errorf("failed to check event existence: %w", err)
	}
	return insertParticipant(ctx, s.db, participant)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertParticipant(ctx context.Context, db execer, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO participants (id, event_id, name, email, iban, bic) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.EventID, p.Name, p.Email, p.IBAN, p.BIC,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// listParticipants returns an event's participants in insertion order.
func (s *SQLiteStore) listParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_id, name, email, iban, bic FROM participants WHERE event_id = ? ORDER BY rowid",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.Email, &p.IBAN, &p.BIC); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}
