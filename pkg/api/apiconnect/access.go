package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// AccessServiceName is the fully-qualified name of the AccessService service.
const AccessServiceName = "splitledger.v1.AccessService"

const AccessServiceJoinEventProcedure = "/splitledger.v1.AccessService/JoinEvent"

// AccessServiceHandler is implemented by service.AccessService.
type AccessServiceHandler interface {
	JoinEvent(context.Context, *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error)
}

// NewAccessServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewAccessServiceHandler(svc AccessServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	return "/" + AccessServiceName + "/", route(map[string]http.Handler{
		AccessServiceJoinEventProcedure: connect.NewUnaryHandler(AccessServiceJoinEventProcedure, svc.JoinEvent, opts...),
	})
}

// AccessServiceClient is a client for AccessService.
type AccessServiceClient interface {
	JoinEvent(context.Context, *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error)
}

// NewAccessServiceClient creates an AccessService client for baseURL.
func NewAccessServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AccessServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &accessServiceClient{
		joinEvent: connect.NewClient[api.JoinEventRequest, api.JoinEventResponse](httpClient, baseURL+AccessServiceJoinEventProcedure, opts...),
	}
}

type accessServiceClient struct {
	joinEvent *connect.Client[api.JoinEventRequest, api.JoinEventResponse]
}

func (c *accessServiceClient) JoinEvent(ctx context.Context, req *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error) {
	return c.joinEvent.CallUnary(ctx, req)
}

// UnimplementedAccessServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedAccessServiceHandler struct{}

func (UnimplementedAccessServiceHandler) JoinEvent(context.Context, *connect.Request[api.JoinEventRequest]) (*connect.Response[api.JoinEventResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}
