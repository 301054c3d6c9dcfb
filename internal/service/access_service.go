package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// AccessService implements the Connect AccessService.
type AccessService struct {
	apiconnect.UnimplementedAccessServiceHandler
	store      storage.Store
	jwtManager *auth.JWTManager
}

// NewAccessService creates a new AccessService.
func NewAccessService(store storage.Store, jwtManager *auth.JWTManager) *AccessService {
	return &AccessService{store: store, jwtManager: jwtManager}
}

// JoinEvent exchanges an invite code for a token scoped to its event.
func (s *AccessService) JoinEvent(ctx context.Context, req *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error) {
	code := strings.ToUpper(strings.TrimSpace(req.Msg.InviteCode))
	slog.Info("JoinEvent request received")

	if code == "" {
		return nil, connectError(invalid("invite_code required"))
	}

	event, err := s.store.GetEventByInviteCode(ctx, code)
	if err != nil {
		slog.Warn("JoinEvent failed - unknown invite code", "error", err)
		return nil, connectError(err)
	}

	token, expiresAt, err := s.jwtManager.Generate(event.ID)
	if err != nil {
		slog.Error("JoinEvent failed - could not generate token", "event_id", event.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	participants := make([]*api.Participant, len(event.Participants))
	for i, p := range event.Participants {
		participants[i] = &api.Participant{ID: p.ID, Name: p.Name}
	}

	slog.Info("JoinEvent successful", "event_id", event.ID)

	return connect.NewResponse(&api.JoinEventResponse{
		Token:        token,
		ExpiresAt:    expiresAt.Unix(),
		EventID:      event.ID,
		EventName:    event.Name,
		BaseCurrency: event.BaseCurrency,
		Participants: participants,
	}), nil
}
