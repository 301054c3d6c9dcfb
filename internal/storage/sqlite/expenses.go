package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/currency"
	"github.com/mmynk/splitledger/internal/models"
)

// CreateExpense persists an expense and its split, and bumps the event's
// updated_at.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, event_id, title, amount_minor, currency, spent_on, payee_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.EventID, expense.Title, expense.AmountMinor, expense.Currency,
		expense.Date.Format(currency.DateLayout), expense.Payee.ID, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	if err := touchEvent(ctx, tx, expense.EventID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateExpense overwrites an expense's fields and replaces its split in
// one transaction. ID, EventID and CreatedAt are not changed.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount_minor = ?, currency = ?, spent_on = ?, payee_id = ?
		 WHERE id = ? AND event_id = ?`,
		expense.Title, expense.AmountMinor, expense.Currency,
		expense.Date.Format(currency.DateLayout), expense.Payee.ID,
		expense.ID, expense.EventID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return notFound("expense", expense.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense shares: %w", err)
	}
	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	if err := touchEvent(ctx, tx, expense.EventID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertShares(ctx context.Context, db execer, expense *models.Expense) error {
	for i, share := range expense.Split {
		_, err := db.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, participant_id, position, amount_minor) VALUES (?, ?, ?, ?)",
			expense.ID, share.Participant.ID, i, share.AmountMinor,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense with its payee and split.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	var eventID string
	err := s.db.QueryRowContext(ctx, "SELECT event_id FROM expenses WHERE id = ?", expenseID).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expenses, err := s.loadExpenses(ctx, eventID, expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, notFound("expense", expenseID)
	}
	return &expenses[0], nil
}

// ListExpensesByEvent returns all expenses of an event ordered by date,
// then creation time.
func (s *SQLiteStore) ListExpensesByEvent(ctx context.Context, eventID string) ([]models.Expense, error) {
	return s.loadExpenses(ctx, eventID, "")
}

// DeleteExpense removes an expense; its shares cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var eventID string
	err = tx.QueryRowContext(ctx, "SELECT event_id FROM expenses WHERE id = ?", expenseID).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("expense", expenseID)
	}
	if err != nil {
		return fmt.Errorf("failed to check expense existence: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if err := touchEvent(ctx, tx, eventID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// loadExpenses reads an event's expenses (or a single one when expenseID
// is set) and resolves payees and shares against the event's participants.
func (s *SQLiteStore) loadExpenses(ctx context.Context, eventID, expenseID string) ([]models.Expense, error) {
	participants, err := s.listParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	query := `SELECT id, event_id, title, amount_minor, currency, spent_on, payee_id, created_at
		FROM expenses WHERE event_id = ?`
	shareQuery := `SELECT es.expense_id, es.participant_id, es.amount_minor
		FROM expense_shares es JOIN expenses e ON e.id = es.expense_id
		WHERE e.event_id = ?`
	args := []any{eventID}
	if expenseID != "" {
		query += " AND id = ?"
		shareQuery += " AND e.id = ?"
		args = append(args, expenseID)
	}
	query += " ORDER BY spent_on, created_at, rowid"
	shareQuery += " ORDER BY es.expense_id, es.position"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	index := make(map[string]int)
	for rows.Next() {
		var (
			e       models.Expense
			spentOn string
			payeeID string
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.Title, &e.AmountMinor, &e.Currency, &spentOn, &payeeID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Date, err = time.Parse(currency.DateLayout, spentOn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expense date %q: %w", spentOn, err)
		}
		e.Payee = byID[payeeID]
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	shareRows, err := s.db.QueryContext(ctx, shareQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var id, participantID string
		var amount int64
		if err := shareRows.Scan(&id, &participantID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		expenses[i].Split = append(expenses[i].Split, models.Share{
			Participant: byID[participantID],
			AmountMinor: amount,
		})
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}

	return expenses, nil
}

func touchEvent(ctx context.Context, db execer, eventID string) error {
	if _, err := db.ExecContext(ctx, "UPDATE events SET updated_at = ? WHERE id = ?", time.Now().Unix(), eventID); err != nil {
		return fmt.Errorf("failed to update event timestamp: %w", err)
	}
	return nil
}
