package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/currency"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
)

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// connectError maps domain errors onto Connect codes.
func connectError(err error) *connect.Error {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, currency.ErrConversionUnavailable):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, currency.ErrInvalidCode),
		errors.Is(err, calculator.ErrInvalidParticipantSet),
		errors.Is(err, calculator.ErrInvalidAmount):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// authorize checks that the caller's token grants eventID.
func authorize(ctx context.Context, eventID string) error {
	if eventID == "" {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("event_id required"))
	}
	granted := middleware.GetEventID(ctx)
	if granted == "" {
		return connect.NewError(connect.CodeUnauthenticated, errors.New("no event access token"))
	}
	if granted != eventID {
		return connect.NewError(connect.CodePermissionDenied, fmt.Errorf("token does not grant access to event %s", eventID))
	}
	return nil
}
