// Package apiconnect wires the splitledger.v1 services to Connect handlers
// and clients, in the shape of protoc-gen-connect-go output.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure paths of LedgerService.
const (
	LedgerServiceAllocateSplitProcedure = "/splitledger.v1.LedgerService/AllocateSplit"
	LedgerServiceCreateExpenseProcedure = "/splitledger.v1.LedgerService/CreateExpense"
	LedgerServiceListExpensesProcedure  = "/splitledger.v1.LedgerService/ListExpenses"
	LedgerServiceUpdateExpenseProcedure = "/splitledger.v1.LedgerService/UpdateExpense"
	LedgerServiceDeleteExpenseProcedure = "/splitledger.v1.LedgerService/DeleteExpense"
	LedgerServiceGetBalancesProcedure   = "/splitledger.v1.LedgerService/GetBalances"
	LedgerServiceGetSettlementProcedure = "/splitledger.v1.LedgerService/GetSettlement"
	LedgerServiceGetEventTotalProcedure = "/splitledger.v1.LedgerService/GetEventTotal"
)

// LedgerServiceHandler is implemented by service.LedgerService.
type LedgerServiceHandler interface {
	AllocateSplit(context.Context, *connect.Request[api.AllocateSplitRequest]) (*connect.Response[api.AllocateSplitResponse], error)
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error)
	GetEventTotal(context.Context, *connect.Request[api.GetEventTotalRequest]) (*connect.Response[api.GetEventTotalResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	handlers := map[string]http.Handler{
		LedgerServiceAllocateSplitProcedure: connect.NewUnaryHandler(LedgerServiceAllocateSplitProcedure, svc.AllocateSplit, opts...),
		LedgerServiceCreateExpenseProcedure: connect.NewUnaryHandler(LedgerServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		LedgerServiceListExpensesProcedure:  connect.NewUnaryHandler(LedgerServiceListExpensesProcedure, svc.ListExpenses, opts...),
		LedgerServiceUpdateExpenseProcedure: connect.NewUnaryHandler(LedgerServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...),
		LedgerServiceDeleteExpenseProcedure: connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...),
		LedgerServiceGetBalancesProcedure:   connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...),
		LedgerServiceGetSettlementProcedure: connect.NewUnaryHandler(LedgerServiceGetSettlementProcedure, svc.GetSettlement, opts...),
		LedgerServiceGetEventTotalProcedure: connect.NewUnaryHandler(LedgerServiceGetEventTotalProcedure, svc.GetEventTotal, opts...),
	}
	return "/" + LedgerServiceName + "/", route(handlers)
}

// LedgerServiceClient is a client for LedgerService.
type LedgerServiceClient interface {
	AllocateSplit(context.Context, *connect.Request[api.AllocateSplitRequest]) (*connect.Response[api.AllocateSplitResponse], error)
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error)
	GetEventTotal(context.Context, *connect.Request[api.GetEventTotalRequest]) (*connect.Response[api.GetEventTotalResponse], error)
}

// NewLedgerServiceClient creates a LedgerService client for baseURL
// (e.g. http://localhost:8080).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &ledgerServiceClient{
		allocateSplit: connect.NewClient[api.AllocateSplitRequest, api.AllocateSplitResponse](httpClient, baseURL+LedgerServiceAllocateSplitProcedure, opts...),
		createExpense: connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL+LedgerServiceCreateExpenseProcedure, opts...),
		listExpenses:  connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+LedgerServiceListExpensesProcedure, opts...),
		updateExpense: connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](httpClient, baseURL+LedgerServiceUpdateExpenseProcedure, opts...),
		deleteExpense: connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...),
		getBalances:   connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...),
		getSettlement: connect.NewClient[api.GetSettlementRequest, api.GetSettlementResponse](httpClient, baseURL+LedgerServiceGetSettlementProcedure, opts...),
		getEventTotal: connect.NewClient[api.GetEventTotalRequest, api.GetEventTotalResponse](httpClient, baseURL+LedgerServiceGetEventTotalProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	allocateSplit *connect.Client[api.AllocateSplitRequest, api.AllocateSplitResponse]
	createExpense *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	listExpenses  *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	updateExpense *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	getBalances   *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	getSettlement *connect.Client[api.GetSettlementRequest, api.GetSettlementResponse]
	getEventTotal *connect.Client[api.GetEventTotalRequest, api.GetEventTotalResponse]
}

func (c *ledgerServiceClient) AllocateSplit(ctx context.Context, req *connect.Request[api.AllocateSplitRequest]) (*connect.Response[api.AllocateSplitResponse], error) {
	return c.allocateSplit.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetEventTotal(ctx context.Context, req *connect.Request[api.GetEventTotalRequest]) (*connect.Response[api.GetEventTotalResponse], error) {
	return c.getEventTotal.CallUnary(ctx, req)
}

// UnimplementedLedgerServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedLedgerServiceHandler struct{}

var errUnimplemented = errors.New("method not implemented")

func (UnimplementedLedgerServiceHandler) AllocateSplit(context.Context, *connect.Request[api.AllocateSplitRequest]) (*connect.Response[api.AllocateSplitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedLedgerServiceHandler) CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedLedgerServiceHandler) ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedLedgerServiceHandler) UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedLedgerServiceHandler) DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedLedgerServiceHandler) GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedLedgerServiceHandler) GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

func (UnimplementedLedgerServiceHandler) GetEventTotal(context.Context, *connect.Request[api.GetEventTotalRequest]) (*connect.Response[api.GetEventTotalResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errUnimplemented)
}

// route dispatches on the exact procedure path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
