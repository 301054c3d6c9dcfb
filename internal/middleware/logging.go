package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs one line per
// RPC with procedure, event ID, peer, duration and result code. Client
// errors log at warn, internal and unknown errors at error. Install it
// outside RequireEventAccess so rejected calls are logged too.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			slot := &eventSlot{eventID: GetEventID(ctx)}

			resp, err := next(context.WithValue(ctx, eventSlotKey, slot), req)

			attrs := []slog.Attr{
				slog.String("procedure", req.Spec().Procedure),
				slog.String("event_id", slot.eventID), // set once RequireEventAccess accepts the token
				slog.String("peer", req.Peer().Addr),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}

			level, msg := slog.LevelInfo, "RPC ok"
			if err != nil {
				msg = "RPC error"
				code := connect.CodeOf(err)
				attrs = append(attrs, slog.String("code", code.String()), slog.String("error", err.Error()))
				level = slog.LevelWarn
				if code == connect.CodeInternal || code == connect.CodeUnknown {
					level = slog.LevelError
				}
			}
			slog.LogAttrs(ctx, level, msg, attrs...)

			return resp, err
		}
	}
}
