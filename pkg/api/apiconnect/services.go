// Package apiconnect wires the roomies services to Connect handlers and clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/roomies/pkg/api"
)

const (
	// HouseholdServiceName is the fully-qualified name of the HouseholdService.
	HouseholdServiceName = "roomies.v1.HouseholdService"
	// ExpenseServiceName is the fully-qualified name of the ExpenseService.
	ExpenseServiceName = "roomies.v1.ExpenseService"
)

// Procedure paths, usable as Spec().Procedure values and URL paths.
const (
	HouseholdServiceCreateHouseholdProcedure = "/roomies.v1.HouseholdService/CreateHousehold"
	HouseholdServiceGetHouseholdProcedure    = "/roomies.v1.HouseholdService/GetHousehold"
	HouseholdServiceAddMembersProcedure      = "/roomies.v1.HouseholdService/AddMembers"

	ExpenseServiceCreateExpenseProcedure  = "/roomies.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure     = "/roomies.v1.ExpenseService/GetExpense"
	ExpenseServiceListExpensesProcedure   = "/roomies.v1.ExpenseService/ListExpenses"
	ExpenseServiceSettleExpenseProcedure  = "/roomies.v1.ExpenseService/SettleExpense"
	ExpenseServiceGetSummaryProcedure     = "/roomies.v1.ExpenseService/GetSummary"
	ExpenseServiceListCategoriesProcedure = "/roomies.v1.ExpenseService/ListCategories"
)

// HouseholdServiceHandler is implemented by the household service.
type HouseholdServiceHandler interface {
	CreateHousehold(context.Context, *connect.Request[api.CreateHouseholdRequest]) (*connect.Response[api.CreateHouseholdResponse], error)
	GetHousehold(context.Context, *connect.Request[api.GetHouseholdRequest]) (*connect.Response[api.GetHouseholdResponse], error)
	AddMembers(context.Context, *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error)
}

// ExpenseServiceHandler is implemented by the expense service.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	SettleExpense(context.Context, *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.SettleExpenseResponse], error)
	GetSummary(context.Context, *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error)
	ListCategories(context.Context, *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error)
}

// NewHouseholdServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewHouseholdServiceHandler(svc HouseholdServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(append([]connect.HandlerOption{}, handlerCodecs...), opts...)

	handlers := map[string]http.Handler{
		HouseholdServiceCreateHouseholdProcedure: connect.NewUnaryHandler(HouseholdServiceCreateHouseholdProcedure, svc.CreateHousehold, opts...),
		HouseholdServiceGetHouseholdProcedure:    connect.NewUnaryHandler(HouseholdServiceGetHouseholdProcedure, svc.GetHousehold, opts...),
		HouseholdServiceAddMembersProcedure:      connect.NewUnaryHandler(HouseholdServiceAddMembersProcedure, svc.AddMembers, opts...),
	}
	return "/" + HouseholdServiceName + "/", route(handlers)
}

// NewExpenseServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(append([]connect.HandlerOption{}, handlerCodecs...), opts...)

	handlers := map[string]http.Handler{
		ExpenseServiceCreateExpenseProcedure:  connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		ExpenseServiceGetExpenseProcedure:     connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...),
		ExpenseServiceListExpensesProcedure:   connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...),
		ExpenseServiceSettleExpenseProcedure:  connect.NewUnaryHandler(ExpenseServiceSettleExpenseProcedure, svc.SettleExpense, opts...),
		ExpenseServiceGetSummaryProcedure:     connect.NewUnaryHandler(ExpenseServiceGetSummaryProcedure, svc.GetSummary, opts...),
		ExpenseServiceListCategoriesProcedure: connect.NewUnaryHandler(ExpenseServiceListCategoriesProcedure, svc.ListCategories, opts...),
	}
	return "/" + ExpenseServiceName + "/", route(handlers)
}

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

// HouseholdServiceClient is a client for the HouseholdService.
type HouseholdServiceClient interface {
	CreateHousehold(context.Context, *connect.Request[api.CreateHouseholdRequest]) (*connect.Response[api.CreateHouseholdResponse], error)
	GetHousehold(context.Context, *connect.Request[api.GetHouseholdRequest]) (*connect.Response[api.GetHouseholdResponse], error)
	AddMembers(context.Context, *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error)
}

// NewHouseholdServiceClient constructs a client for the HouseholdService.
// baseURL is the server root, e.g. http://localhost:8080.
func NewHouseholdServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) HouseholdServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{clientCodec}, opts...)
	return &householdServiceClient{
		createHousehold: connect.NewClient[api.CreateHouseholdRequest, api.CreateHouseholdResponse](httpClient, baseURL+HouseholdServiceCreateHouseholdProcedure, opts...),
		getHousehold:    connect.NewClient[api.GetHouseholdRequest, api.GetHouseholdResponse](httpClient, baseURL+HouseholdServiceGetHouseholdProcedure, opts...),
		addMembers:      connect.NewClient[api.AddMembersRequest, api.AddMembersResponse](httpClient, baseURL+HouseholdServiceAddMembersProcedure, opts...),
	}
}

type householdServiceClient struct {
	createHousehold *connect.Client[api.CreateHouseholdRequest, api.CreateHouseholdResponse]
	getHousehold    *connect.Client[api.GetHouseholdRequest, api.GetHouseholdResponse]
	addMembers      *connect.Client[api.AddMembersRequest, api.AddMembersResponse]
}

func (c *householdServiceClient) CreateHousehold(ctx context.Context, req *connect.Request[api.CreateHouseholdRequest]) (*connect.Response[api.CreateHouseholdResponse], error) {
	return c.createHousehold.CallUnary(ctx, req)
}

func (c *householdServiceClient) GetHousehold(ctx context.Context, req *connect.Request[api.GetHouseholdRequest]) (*connect.Response[api.GetHouseholdResponse], error) {
	return c.getHousehold.CallUnary(ctx, req)
}

func (c *householdServiceClient) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

// ExpenseServiceClient is a client for the ExpenseService.
type ExpenseServiceClient interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	SettleExpense(context.Context, *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.SettleExpenseResponse], error)
	GetSummary(context.Context, *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error)
	ListCategories(context.Context, *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error)
}

// NewExpenseServiceClient constructs a client for the ExpenseService.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{clientCodec}, opts...)
	return &expenseServiceClient{
		createExpense:  connect.NewClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		getExpense:     connect.NewClient[api.GetExpenseRequest, api.GetExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		listExpenses:   connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		settleExpense:  connect.NewClient[api.SettleExpenseRequest, api.SettleExpenseResponse](httpClient, baseURL+ExpenseServiceSettleExpenseProcedure, opts...),
		getSummary:     connect.NewClient[api.GetSummaryRequest, api.GetSummaryResponse](httpClient, baseURL+ExpenseServiceGetSummaryProcedure, opts...),
		listCategories: connect.NewClient[api.ListCategoriesRequest, api.ListCategoriesResponse](httpClient, baseURL+ExpenseServiceListCategoriesProcedure, opts...),
	}
}

type expenseServiceClient struct {
	createExpense  *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	getExpense     *connect.Client[api.GetExpenseRequest, api.GetExpenseResponse]
	listExpenses   *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	settleExpense  *connect.Client[api.SettleExpenseRequest, api.SettleExpenseResponse]
	getSummary     *connect.Client[api.GetSummaryRequest, api.GetSummaryResponse]
	listCategories *connect.Client[api.ListCategoriesRequest, api.ListCategoriesResponse]
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *expenseServiceClient) SettleExpense(ctx context.Context, req *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.SettleExpenseResponse], error) {
	return c.settleExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	return c.listCategories.CallUnary(ctx, req)
}
