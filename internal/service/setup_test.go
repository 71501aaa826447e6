package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/roomies/internal/calculator"
	"github.com/mmynk/roomies/internal/events"
	"github.com/mmynk/roomies/internal/middleware"
	"github.com/mmynk/roomies/internal/storage/sqlite"
	"github.com/mmynk/roomies/pkg/api"
	"github.com/mmynk/roomies/pkg/api/apiconnect"
)

// recordingPublisher keeps published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) failWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	households apiconnect.HouseholdServiceClient
	expenses   apiconnect.ExpenseServiceClient
	publisher  *recordingPublisher
}

var fixedNow = time.Date(2024, time.July, 8, 15, 30, 0, 0, time.UTC)

// setupTestServer starts both services on an httptest server backed by a
// temp-dir SQLite database. The viewer comes from the X-Viewer header.
func setupTestServer(t *testing.T, policy calculator.Policy) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	expenseSvc := NewExpenseService(store, publisher, policy)
	expenseSvc.now = func() time.Time { return fixedNow }

	interceptors := connect.WithInterceptors(middleware.ViewerFromHeader())
	householdPath, householdHandler := apiconnect.NewHouseholdServiceHandler(NewHouseholdService(store), interceptors)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(expenseSvc, interceptors)

	mux := http.NewServeMux()
	mux.Handle(householdPath, householdHandler)
	mux.Handle(expensePath, expenseHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		households: apiconnect.NewHouseholdServiceClient(http.DefaultClient, server.URL),
		expenses:   apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		publisher:  publisher,
	}
}

// as wraps msg in a request sent on behalf of viewer.
func as[T any](viewer string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if viewer != "" {
		req.Header().Set(middleware.ViewerHeader, viewer)
	}
	return req
}

// createHousehold makes a household owned by viewer with the given roommates.
func (e *testEnv) createHousehold(t *testing.T, viewer string, members ...string) *api.Household {
	t.Helper()
	resp, err := e.households.CreateHousehold(context.Background(), as(viewer, &api.CreateHouseholdRequest{
		Name:    "Elm Street",
		Members: members,
	}))
	require.NoError(t, err)
	return resp.Msg.Household
}

func (e *testEnv) createExpense(t *testing.T, viewer string, req *api.CreateExpenseRequest) *api.Expense {
	t.Helper()
	resp, err := e.expenses.CreateExpense(context.Background(), as(viewer, req))
	require.NoError(t, err)
	return resp.Msg.Expense
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr), "expected connect error, got %v", err)
	require.Equal(t, code, connectErr.Code(), connectErr.Message())
}
