package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/currency"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	store     storage.Store
	converter currency.Converter

	// rnd is nil unless a seed was configured. *rand.Rand is not safe
	// for concurrent use, so it is guarded by mu.
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLedgerService creates a LedgerService. A non-zero seed makes the
// distribution of split remainders reproducible.
func NewLedgerService(store storage.Store, converter currency.Converter, seed uint64) *LedgerService {
	s := &LedgerService{store: store, converter: converter}
	if seed != 0 {
		s.rnd = rand.New(rand.NewPCG(seed, seed))
	}
	return s
}

func (s *LedgerService) allocate(total int64, payee models.Participant, participants []models.Participant) ([]models.Share, error) {
	if s.rnd == nil {
		return calculator.Allocate(total, payee, participants, nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return calculator.Allocate(total, payee, participants, s.rnd)
}

// AllocateSplit previews how an amount would be split without storing anything.
func (s *LedgerService) AllocateSplit(ctx context.Context, req *connect.Request[api.AllocateSplitRequest]) (*connect.Response[api.AllocateSplitResponse], error) {
	slog.Info("AllocateSplit request received",
		"event_id", req.Msg.EventID,
		"total_minor", req.Msg.TotalMinor,
		"participants_count", len(req.Msg.ParticipantIDs),
	)

	event, err := s.loadEvent(ctx, req.Msg.EventID)
	if err != nil {
		slog.Error("AllocateSplit failed", "event_id", req.Msg.EventID, "error", err)
		return nil, connectError(err)
	}

	payee, participants, err := resolveSplit(event, req.Msg.PayeeID, req.Msg.ParticipantIDs)
	if err != nil {
		slog.Error("AllocateSplit failed", "event_id", event.ID, "error", err)
		return nil, connectError(err)
	}

	shares, err := s.allocate(req.Msg.TotalMinor, payee, participants)
	if err != nil {
		slog.Error("AllocateSplit failed", "event_id", event.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("AllocateSplit successful", "event_id", event.ID, "shares_count", len(shares))

	return connect.NewResponse(&api.AllocateSplitResponse{Shares: toAPIShares(shares)}), nil
}

// CreateExpense validates an expense, allocates its split and stores it.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"event_id", req.Msg.EventID,
		"title", req.Msg.Title,
		"amount_minor", req.Msg.AmountMinor,
		"currency", req.Msg.Currency,
	)

	event, err := s.loadEvent(ctx, req.Msg.EventID)
	if err != nil {
		slog.Error("CreateExpense failed", "event_id", req.Msg.EventID, "error", err)
		return nil, connectError(err)
	}

	expense, err := s.buildExpense(event, req.Msg)
	if err != nil {
		slog.Error("CreateExpense failed - invalid expense", "event_id", event.ID, "error", err)
		return nil, connectError(err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "event_id", event.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense created", "event_id", event.ID, "expense_id", expense.ID)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

func (s *LedgerService) buildExpense(event *models.Event, msg *api.CreateExpenseRequest) (*models.Expense, error) {
	title := strings.TrimSpace(msg.Title)
	if title == "" {
		return nil, invalid("title required")
	}
	if msg.AmountMinor <= 0 {
		return nil, invalid("amount_minor must be positive, got %d", msg.AmountMinor)
	}
	code, err := currency.Normalize(msg.Currency)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(msg.Date)
	if err != nil {
		return nil, err
	}

	payee, participants, err := resolveSplit(event, msg.PayeeID, msg.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	shares, err := s.allocate(msg.AmountMinor, payee, participants)
	if err != nil {
		return nil, err
	}

	return &models.Expense{
		EventID:     event.ID,
		Title:       title,
		AmountMinor: msg.AmountMinor,
		Currency:    code,
		Date:        date,
		Payee:       payee,
		Split:       shares,
	}, nil
}

// ListExpenses returns an event's expenses ordered by date.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received",
		"event_id", req.Msg.EventID,
		"payee_id", req.Msg.PayeeID,
		"participant_id", req.Msg.ParticipantID,
	)

	event, expenses, err := s.loadLedger(ctx, req.Msg.EventID)
	if err != nil {
		slog.Error("ListExpenses failed", "event_id", req.Msg.EventID, "error", err)
		return nil, connectError(err)
	}

	expenses, err = filterExpenses(event, expenses, req.Msg.PayeeID, req.Msg.ParticipantID)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i := range expenses {
		out[i] = toAPIExpense(&expenses[i])
	}

	slog.Info("ListExpenses successful", "event_id", event.ID, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// UpdateExpense edits an expense of the event, re-allocating its split
// when the amount or the participants change.
func (s *LedgerService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	slog.Info("UpdateExpense request received",
		"event_id", req.Msg.EventID,
		"expense_id", req.Msg.ExpenseID,
		"amount_minor", req.Msg.AmountMinor,
		"participants_count", len(req.Msg.ParticipantIDs),
	)

	event, err := s.loadEvent(ctx, req.Msg.EventID)
	if err != nil {
		slog.Error("UpdateExpense failed", "event_id", req.Msg.EventID, "error", err)
		return nil, connectError(err)
	}
	if req.Msg.ExpenseID == "" {
		return nil, connectError(invalid("expense_id required"))
	}

	current, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}
	if current.EventID != event.ID {
		return nil, connect.NewError(connect.CodeNotFound, storage.ErrNotFound)
	}

	updated, err := s.applyUpdate(event, current, req.Msg)
	if err != nil {
		slog.Error("UpdateExpense failed - invalid update", "expense_id", current.ID, "error", err)
		return nil, connectError(err)
	}

	if err := s.store.UpdateExpense(ctx, updated); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", current.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense updated", "event_id", event.ID, "expense_id", updated.ID)

	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(updated)}), nil
}

func (s *LedgerService) applyUpdate(event *models.Event, current *models.Expense, msg *api.UpdateExpenseRequest) (*models.Expense, error) {
	updated := *current

	if msg.Title != "" {
		updated.Title = strings.TrimSpace(msg.Title)
		if updated.Title == "" {
			return nil, invalid("title required")
		}
	}
	if msg.AmountMinor < 0 {
		return nil, invalid("amount_minor must be positive, got %d", msg.AmountMinor)
	}
	if msg.AmountMinor > 0 {
		updated.AmountMinor = msg.AmountMinor
	}
	if msg.Currency != "" {
		code, err := currency.Normalize(msg.Currency)
		if err != nil {
			return nil, err
		}
		updated.Currency = code
	}
	if msg.Date != "" {
		date, err := parseDate(msg.Date)
		if err != nil {
			return nil, err
		}
		updated.Date = date
	}

	payeeID := current.Payee.ID
	if msg.PayeeID != "" {
		payeeID = msg.PayeeID
	}
	ids := msg.ParticipantIDs
	if len(ids) == 0 {
		ids = shareParticipantIDs(current.Split)
	}
	payee, participants, err := resolveSplit(event, payeeID, ids)
	if err != nil {
		return nil, err
	}
	updated.Payee = payee

	if updated.AmountMinor != current.AmountMinor || len(msg.ParticipantIDs) > 0 {
		shares, err := s.allocate(updated.AmountMinor, payee, participants)
		if err != nil {
			return nil, err
		}
		updated.Split = shares
	} else if !current.Involves(payee) {
		return nil, fmt.Errorf("%w: payee %s has no share", calculator.ErrInvalidParticipantSet, payee.ID)
	}

	return &updated, nil
}

// DeleteExpense removes an expense that belongs to the event.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "event_id", req.Msg.EventID, "expense_id", req.Msg.ExpenseID)

	if err := authorize(ctx, req.Msg.EventID); err != nil {
		return nil, err
	}
	if req.Msg.ExpenseID == "" {
		return nil, connectError(invalid("expense_id required"))
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		slog.Error("DeleteExpense failed", "expense_id", req.Msg.ExpenseID, "error", err)
		return nil, connectError(err)
	}
	// Expenses of other events are reported as missing.
	if expense.EventID != req.Msg.EventID {
		return nil, connect.NewError(connect.CodeNotFound, storage.ErrNotFound)
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Expense deleted", "event_id", req.Msg.EventID, "expense_id", expense.ID)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetBalances computes every participant's net balance in the base currency.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "event_id", req.Msg.EventID, "base_currency", req.Msg.BaseCurrency)

	event, expenses, base, err := s.loadLedgerIn(ctx, req.Msg.EventID, req.Msg.BaseCurrency)
	if err != nil {
		slog.Error("GetBalances failed", "event_id", req.Msg.EventID, "error", err)
		return nil, connectError(err)
	}

	positions, err := calculator.ComputePositions(ctx, s.converter, event.Participants, expenses, base)
	if err != nil {
		slog.Error("GetBalances failed", "event_id", event.ID, "error", err)
		return nil, connectError(err)
	}

	out := make([]*api.Balance, len(event.Participants))
	for i, p := range event.Participants {
		pos := positions[p.ID]
		out[i] = &api.Balance{
			ParticipantID: p.ID,
			Name:          p.Name,
			AmountMinor:   pos.Net,
			Amount:        currency.FormatHundredths(pos.Net),
			OwesMinor:     pos.Owes,
			OwedMinor:     pos.Owed,
		}
	}

	slog.Info("GetBalances successful", "event_id", event.ID, "base_currency", base, "participants_count", len(out))

	return connect.NewResponse(&api.GetBalancesResponse{BaseCurrency: base, Balances: out}), nil
}

// GetSettlement returns the payments that settle all balances.
func (s *LedgerService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	slog.Info("GetSettlement request received", "event_id", req.Msg.EventID, "base_currency", req.Msg.BaseCurrency)

	event, expenses, base, err := s.loadLedgerIn(ctx, req.Msg.EventID, req.Msg.BaseCurrency)
	if err != nil {
		slog.Error("GetSettlement failed", "event_id", req.Msg.EventID, "error", err)
		return nil, connectError(err)
	}

	balances, err := calculator.ComputeBalances(ctx, s.converter, event.Participants, expenses, base)
	if err != nil {
		slog.Error("GetSettlement failed", "event_id", event.ID, "error", err)
		return nil, connectError(err)
	}

	debts := calculator.Settle(balances)
	out := make([]*api.Debt, len(debts))
	for i, d := range debts {
		debtor, _ := event.Participant(d.DebtorID)
		creditor, _ := event.Participant(d.CreditorID)
		debt := &api.Debt{
			DebtorID:     d.DebtorID,
			DebtorName:   debtor.Name,
			CreditorID:   d.CreditorID,
			CreditorName: creditor.Name,
			AmountMinor:  d.AmountMinor,
			Amount:       currency.FormatHundredths(d.AmountMinor),
		}
		if creditor.CanReceiveTransfer() {
			debt.CreditorIBAN = creditor.IBAN
			debt.CreditorBIC = creditor.BIC
		}
		out[i] = debt
	}

	slog.Info("GetSettlement successful", "event_id", event.ID, "base_currency", base, "debts_count", len(out))

	return connect.NewResponse(&api.GetSettlementResponse{BaseCurrency: base, Debts: out}), nil
}

// GetEventTotal sums all expenses of an event in the base currency.
func (s *LedgerService) GetEventTotal(ctx context.Context, req *connect.Request[api.GetEventTotalRequest]) (*connect.Response[api.GetEventTotalResponse], error) {
	slog.Info("GetEventTotal request received", "event_id", req.Msg.EventID, "base_currency", req.Msg.BaseCurrency)

	event, expenses, base, err := s.loadLedgerIn(ctx, req.Msg.EventID, req.Msg.BaseCurrency)
	if err != nil {
		slog.Error("GetEventTotal failed", "event_id", req.Msg.EventID, "error", err)
		return nil, connectError(err)
	}

	total, err := calculator.ComputeTotal(ctx, s.converter, expenses, base)
	if err != nil {
		slog.Error("GetEventTotal failed", "event_id", event.ID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("GetEventTotal successful", "event_id", event.ID, "base_currency", base, "total_minor", total)

	return connect.NewResponse(&api.GetEventTotalResponse{
		BaseCurrency: base,
		TotalMinor:   total,
		Total:        currency.FormatHundredths(total),
		ExpenseCount: len(expenses),
	}), nil
}

// loadEvent authorizes the caller for eventID and fetches the event.
func (s *LedgerService) loadEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if err := authorize(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.GetEvent(ctx, eventID)
}

func (s *LedgerService) loadLedger(ctx context.Context, eventID string) (*models.Event, []models.Expense, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := s.store.ListExpensesByEvent(ctx, event.ID)
	if err != nil {
		return nil, nil, err
	}
	return event, expenses, nil
}

// loadLedgerIn is loadLedger plus the base currency to report in.
func (s *LedgerService) loadLedgerIn(ctx context.Context, eventID, requested string) (*models.Event, []models.Expense, string, error) {
	event, expenses, err := s.loadLedger(ctx, eventID)
	if err != nil {
		return nil, nil, "", err
	}
	base, err := baseCurrency(event, requested)
	if err != nil {
		return nil, nil, "", err
	}
	return event, expenses, base, nil
}

func baseCurrency(event *models.Event, requested string) (string, error) {
	if requested == "" {
		requested = event.BaseCurrency
	}
	return currency.Normalize(requested)
}

// resolveSplit looks up the payee and the split participants. No
// participant IDs means everyone in the event.
func resolveSplit(event *models.Event, payeeID string, participantIDs []string) (models.Participant, []models.Participant, error) {
	payee, ok := event.Participant(payeeID)
	if !ok {
		return models.Participant{}, nil, invalid("payee %q is not part of event %s", payeeID, event.ID)
	}
	if len(participantIDs) == 0 {
		return payee, event.Participants, nil
	}

	participants := make([]models.Participant, len(participantIDs))
	for i, id := range participantIDs {
		p, ok := event.Participant(id)
		if !ok {
			return models.Participant{}, nil, invalid("participant %q is not part of event %s", id, event.ID)
		}
		participants[i] = p
	}
	return payee, participants, nil
}

// filterExpenses keeps the expenses paid by payeeID and shared by
// participantID. Empty IDs do not filter.
func filterExpenses(event *models.Event, expenses []models.Expense, payeeID, participantID string) ([]models.Expense, error) {
	var keep []func(*models.Expense) bool
	if payeeID != "" {
		payee, ok := event.Participant(payeeID)
		if !ok {
			return nil, invalid("payee %q is not part of event %s", payeeID, event.ID)
		}
		keep = append(keep, func(e *models.Expense) bool { return e.PaidBy(payee) })
	}
	if participantID != "" {
		p, ok := event.Participant(participantID)
		if !ok {
			return nil, invalid("participant %q is not part of event %s", participantID, event.ID)
		}
		keep = append(keep, func(e *models.Expense) bool { return e.Involves(p) })
	}
	if len(keep) == 0 {
		return expenses, nil
	}

	filtered := make([]models.Expense, 0, len(expenses))
next:
	for i := range expenses {
		for _, k := range keep {
			if !k(&expenses[i]) {
				continue next
			}
		}
		filtered = append(filtered, expenses[i])
	}
	return filtered, nil
}

func shareParticipantIDs(shares []models.Share) []string {
	ids := make([]string, len(shares))
	for i, sh := range shares {
		ids[i] = sh.Participant.ID
	}
	return ids
}

// parseDate reads a YYYY-MM-DD day, defaulting to today in UTC.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse(currency.DateLayout, s)
	if err != nil {
		return time.Time{}, invalid("date %q is not YYYY-MM-DD", s)
	}
	return date, nil
}

func toAPIShares(shares []models.Share) []*api.Share {
	out := make([]*api.Share, len(shares))
	for i, sh := range shares {
		out[i] = &api.Share{
			ParticipantID: sh.Participant.ID,
			Name:          sh.Participant.Name,
			AmountMinor:   sh.AmountMinor,
		}
	}
	return out
}

func toAPIExpense(e *models.Expense) *api.Expense {
	return &api.Expense{
		ID:          e.ID,
		EventID:     e.EventID,
		Title:       e.Title,
		AmountMinor: e.AmountMinor,
		Currency:    e.Currency,
		Date:        e.Date.Format(currency.DateLayout),
		PayeeID:     e.Payee.ID,
		PayeeName:   e.Payee.Name,
		Shares:      toAPIShares(e.Split),
		CreatedAt:   e.CreatedAt,
	}
}
