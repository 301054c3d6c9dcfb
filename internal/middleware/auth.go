package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// EventIDKey is the context key for the event an access token grants.
const EventIDKey contextKey = "event_id"

// GetEventID extracts the authorized event ID from the context.
// Returns empty string if not found.
func GetEventID(ctx context.Context) string {
	eventID, _ := ctx.Value(EventIDKey).(string)
	return eventID
}

// eventSlot lets an outer interceptor see the event ID granted further in.
type eventSlot struct {
	eventID string
}

const eventSlotKey contextKey = "event_slot"

// WithEventID returns a copy of ctx authorized for eventID.
func WithEventID(ctx context.Context, eventID string) context.Context {
	if slot, ok := ctx.Value(eventSlotKey).(*eventSlot); ok {
		slot.eventID = eventID
	}
	return context.WithValue(ctx, EventIDKey, eventID)
}

// RequireEventAccess returns an interceptor that validates the bearer token
// in the Authorization header and adds the granted event ID to the context.
func RequireEventAccess(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithEventID(ctx, claims.EventID), req)
		}
	}
}
