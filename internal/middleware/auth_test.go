package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// echoAccess reports the event ID the interceptor put on the context.
type echoAccess struct{}

func (echoAccess) JoinEvent(ctx context.Context, req *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error) {
	return connect.NewResponse(&api.JoinEventResponse{EventID: GetEventID(ctx)}), nil
}

func TestRequireEventAccess(t *testing.T) {
	manager := auth.NewJWTManager("middleware-test-secret", time.Hour)

	path, handler := apiconnect.NewAccessServiceHandler(echoAccess{},
		connect.WithInterceptors(MetricsInterceptor(), LoggingInterceptor(), RequireEventAccess(manager)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	defer server.Close()

	client := apiconnect.NewAccessServiceClient(http.DefaultClient, server.URL)

	token, _, err := manager.Generate("event-42")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantID   string
	}{
		{name: "valid token", header: "Bearer " + token, wantID: "event-42"},
		{name: "lower-case scheme", header: "bearer " + token, wantID: "event-42"},
		{name: "missing header", header: "", wantCode: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, wantCode: connect.CodeUnauthenticated},
		{name: "invalid token", header: "Bearer nope", wantCode: connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&api.JoinEventRequest{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			resp, err := client.JoinEvent(context.Background(), req)
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("JoinEvent failed: %v", err)
			}
			if resp.Msg.EventID != tt.wantID {
				t.Errorf("event ID = %q, want %q", resp.Msg.EventID, tt.wantID)
			}
		})
	}
}
