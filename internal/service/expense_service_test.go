package service

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/roomies/internal/calculator"
	"github.com/mmynk/roomies/internal/events"
	"github.com/mmynk/roomies/pkg/api"
)

func TestCreateExpense(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	h := env.createHousehold(t, "You", "Sarah Chen")

	e := env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID,
		Description: "Groceries - Week 1",
		AmountText:  "85",
		Category:    "groceries",
		SplitWith:   []string{"Sarah Chen"},
	})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, h.ID, e.HouseholdID)
	assert.Equal(t, 85.0, e.Amount)
	assert.Equal(t, "groceries", e.Category)
	assert.Equal(t, "Groceries", e.CategoryLabel)
	assert.Equal(t, "You", e.PaidBy, "empty paid_by defaults to the viewer")
	assert.Equal(t, []string{"Sarah Chen"}, e.SplitWith)
	assert.Equal(t, 42.5, e.Share)
	assert.Equal(t, "2024-07-08", e.Date, "empty date defaults to today")
	assert.False(t, e.Settled)

	assert.Equal(t, []string{events.TypeExpenseCreated}, env.publisher.types())
}

func TestCreateExpense_Defaults(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	h := env.createHousehold(t, "You", "Sarah Chen")

	e := env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID,
		Description: "Electricity Bill",
		Amount:      120,
		PaidBy:      "Sarah Chen",
		SplitWith:   []string{"You"},
		Date:        "2024-07-05",
	})

	assert.Equal(t, "other", e.Category)
	assert.Equal(t, "2024-07-05", e.Date)
	assert.Equal(t, 60.0, e.Share)
}

func TestCreateExpense_Validation(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	h := env.createHousehold(t, "You", "Sarah Chen")

	valid := func() *api.CreateExpenseRequest {
		return &api.CreateExpenseRequest{
			HouseholdID: h.ID,
			Description: "Rent",
			Amount:      2400,
			Category:    "rent",
			SplitWith:   []string{"Sarah Chen"},
		}
	}

	tests := []struct {
		name   string
		viewer string
		mutate func(r *api.CreateExpenseRequest)
		code   connect.Code
	}{
		{name: "no viewer", viewer: "", mutate: func(r *api.CreateExpenseRequest) {}, code: connect.CodeUnauthenticated},
		{name: "empty description", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.Description = " " }, code: connect.CodeInvalidArgument},
		{name: "zero amount", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.Amount = 0 }, code: connect.CodeInvalidArgument},
		{name: "negative amount", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.Amount = -10 }, code: connect.CodeInvalidArgument},
		{name: "amount above ceiling", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.Amount = 1e308 }, code: connect.CodeInvalidArgument},
		{name: "amount text overflows float", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.AmountText = "1e400" }, code: connect.CodeInvalidArgument},
		{name: "amount text above ceiling", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.AmountText = "2000000000000" }, code: connect.CodeInvalidArgument},
		{name: "non-numeric amount text", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.AmountText = "twelve" }, code: connect.CodeInvalidArgument},
		{name: "unknown category", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.Category = "furniture" }, code: connect.CodeInvalidArgument},
		{name: "bad date", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.Date = "07/08/2024" }, code: connect.CodeInvalidArgument},
		{name: "empty split name", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.SplitWith = []string{""} }, code: connect.CodeInvalidArgument},
		{name: "viewer not a party", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.PaidBy = "Sarah Chen"; r.SplitWith = []string{"Bob"} }, code: connect.CodePermissionDenied},
		{name: "viewer not a member", viewer: "Mallory", mutate: func(r *api.CreateExpenseRequest) {}, code: connect.CodePermissionDenied},
		{name: "unknown household", viewer: "You", mutate: func(r *api.CreateExpenseRequest) { r.HouseholdID = "missing" }, code: connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := env.expenses.CreateExpense(context.Background(), as(tt.viewer, req))
			requireCode(t, err, tt.code)
		})
	}

	assert.Empty(t, env.publisher.types())

	// Rejected amounts leave the household readable.
	list, err := env.expenses.ListExpenses(context.Background(), as("You", &api.ListExpensesRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Expenses)

	summary, err := env.expenses.GetSummary(context.Background(), as("You", &api.GetSummaryRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	assert.Zero(t, summary.Msg.Total)
}

func TestCreateExpense_AutoAddsParties(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()
	h := env.createHousehold(t, "You")

	env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID,
		Description: "Plumber",
		Amount:      90,
		Category:    "maintenance",
		SplitWith:   []string{"Sarah Chen", "Bob", "Sarah Chen"},
	})

	resp, err := env.households.GetHousehold(ctx, as("You", &api.GetHouseholdRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	assert.Equal(t, []string{"You", "Sarah Chen", "Bob"}, resp.Msg.Household.Members)
}

func TestCreateExpense_PublishFailureDoesNotFail(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	env.publisher.failWith(errors.New("broker down"))
	h := env.createHousehold(t, "You", "Sarah Chen")

	e := env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID,
		Description: "Internet",
		Amount:      60,
		Category:    "utilities",
		SplitWith:   []string{"Sarah Chen"},
	})
	assert.NotEmpty(t, e.ID)
}

func TestListExpenses_NewestFirst(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()
	h := env.createHousehold(t, "You", "Sarah Chen")

	for _, desc := range []string{"Monthly Rent - July", "Electricity Bill", "Groceries - Week 1"} {
		env.createExpense(t, "You", &api.CreateExpenseRequest{
			HouseholdID: h.ID,
			Description: desc,
			Amount:      10,
			SplitWith:   []string{"Sarah Chen"},
		})
	}

	resp, err := env.expenses.ListExpenses(ctx, as("Sarah Chen", &api.ListExpensesRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Expenses, 3)
	assert.Equal(t, "Groceries - Week 1", resp.Msg.Expenses[0].Description)
	assert.Equal(t, "Monthly Rent - July", resp.Msg.Expenses[2].Description)

	_, err = env.expenses.ListExpenses(ctx, as("Mallory", &api.ListExpensesRequest{HouseholdID: h.ID}))
	requireCode(t, err, connect.CodePermissionDenied)
}

func TestGetExpense(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()
	h := env.createHousehold(t, "You", "Sarah Chen")
	created := env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID, Description: "Rent", Amount: 2400, Category: "rent", SplitWith: []string{"Sarah Chen"},
	})

	resp, err := env.expenses.GetExpense(ctx, as("Sarah Chen", &api.GetExpenseRequest{ExpenseID: created.ID}))
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.Msg.Expense.ID)
	assert.Equal(t, "Rent", resp.Msg.Expense.CategoryLabel)

	_, err = env.expenses.GetExpense(ctx, as("You", &api.GetExpenseRequest{ExpenseID: "missing"}))
	requireCode(t, err, connect.CodeNotFound)

	_, err = env.expenses.GetExpense(ctx, as("Mallory", &api.GetExpenseRequest{ExpenseID: created.ID}))
	requireCode(t, err, connect.CodePermissionDenied)
}

func TestSettleExpense(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()
	h := env.createHousehold(t, "You", "Sarah Chen")
	created := env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID, Description: "Rent", Amount: 2400, Category: "rent", SplitWith: []string{"Sarah Chen"},
	})

	resp, err := env.expenses.SettleExpense(ctx, as("Sarah Chen", &api.SettleExpenseRequest{ExpenseID: created.ID}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Expense.Settled)
	assert.Equal(t, fixedNow.Unix(), resp.Msg.Expense.SettledAt)

	again, err := env.expenses.SettleExpense(ctx, as("You", &api.SettleExpenseRequest{ExpenseID: created.ID}))
	require.NoError(t, err)
	assert.True(t, again.Msg.Expense.Settled)

	assert.Equal(t, []string{events.TypeExpenseCreated, events.TypeExpenseSettled}, env.publisher.types())

	_, err = env.expenses.SettleExpense(ctx, as("You", &api.SettleExpenseRequest{}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

// seedHousehold records the demo expense list from the app: rent (settled
// afterwards), electricity paid by Sarah, groceries paid by You.
func seedHousehold(t *testing.T, env *testEnv) *api.Household {
	t.Helper()
	h := env.createHousehold(t, "You", "Sarah Chen")

	rent := env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID, Description: "Monthly Rent - July", Amount: 2400, Category: "rent",
		SplitWith: []string{"Sarah Chen"}, Date: "2024-07-01",
	})
	env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID, Description: "Electricity Bill", Amount: 120, Category: "utilities",
		PaidBy: "Sarah Chen", SplitWith: []string{"You"}, Date: "2024-07-05",
	})
	env.createExpense(t, "You", &api.CreateExpenseRequest{
		HouseholdID: h.ID, Description: "Groceries - Week 1", Amount: 85, Category: "groceries",
		SplitWith: []string{"Sarah Chen"}, Date: "2024-07-08",
	})

	_, err := env.expenses.SettleExpense(context.Background(), as("You", &api.SettleExpenseRequest{ExpenseID: rent.ID}))
	require.NoError(t, err)
	return h
}

func TestGetSummary(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	ctx := context.Background()
	h := seedHousehold(t, env)

	resp, err := env.expenses.GetSummary(ctx, as("You", &api.GetSummaryRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	s := resp.Msg

	assert.Equal(t, "You", s.Viewer)
	assert.Equal(t, "parties-only", s.Policy)
	assert.InDelta(t, 2605.0, s.Total, 0.0001)
	assert.Equal(t, "2605.00", s.TotalDisplay)
	assert.InDelta(t, 1182.5, s.NetBalance, 0.0001)
	assert.Equal(t, "+1182.50", s.NetBalanceDisplay)
	assert.Equal(t, int32(2), s.UnsettledCount)

	require.Len(t, s.ByCategory, 3)
	assert.Equal(t, "groceries", s.ByCategory[0].Category)
	assert.Equal(t, "Groceries", s.ByCategory[0].Label)

	require.Len(t, s.Debts, 1)
	assert.Equal(t, "You", s.Debts[0].From)
	assert.Equal(t, "Sarah Chen", s.Debts[0].To)
	assert.InDelta(t, 17.5, s.Debts[0].Amount, 0.0001)

	sarah, err := env.expenses.GetSummary(ctx, as("Sarah Chen", &api.GetSummaryRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	assert.InDelta(t, -1182.5, sarah.Msg.NetBalance, 0.0001)
	assert.Equal(t, "-1182.50", sarah.Msg.NetBalanceDisplay)
}

func TestGetSummary_NonPartyViewer(t *testing.T) {
	// Bob joins after the fact and is party to none of the expenses.
	for _, tt := range []struct {
		policy calculator.Policy
		want   float64
	}{
		{policy: calculator.PolicyPartiesOnly, want: 0},
		{policy: calculator.PolicyChargeViewer, want: -(1200 + 60 + 42.5)},
	} {
		t.Run(string(tt.policy), func(t *testing.T) {
			env := setupTestServer(t, tt.policy)
			ctx := context.Background()
			h := seedHousehold(t, env)

			_, err := env.households.AddMembers(ctx, as("You", &api.AddMembersRequest{HouseholdID: h.ID, Members: []string{"Bob"}}))
			require.NoError(t, err)

			resp, err := env.expenses.GetSummary(ctx, as("Bob", &api.GetSummaryRequest{HouseholdID: h.ID}))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, resp.Msg.NetBalance, 0.0001)
			assert.Equal(t, string(tt.policy), resp.Msg.Policy)
		})
	}
}

func TestGetSummary_EmptyHousehold(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)
	h := env.createHousehold(t, "You")

	resp, err := env.expenses.GetSummary(context.Background(), as("You", &api.GetSummaryRequest{HouseholdID: h.ID}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, resp.Msg.Total)
	assert.Equal(t, "+0.00", resp.Msg.NetBalanceDisplay)
	assert.Equal(t, int32(0), resp.Msg.UnsettledCount)
	assert.Empty(t, resp.Msg.Debts)
}

func TestListCategories(t *testing.T) {
	env := setupTestServer(t, calculator.PolicyPartiesOnly)

	resp, err := env.expenses.ListCategories(context.Background(), as("", &api.ListCategoriesRequest{}))
	require.NoError(t, err)

	var values []string
	for _, c := range resp.Msg.Categories {
		values = append(values, c.Value)
	}
	assert.Equal(t, []string{"rent", "utilities", "groceries", "maintenance", "other"}, values)
	assert.Equal(t, "Maintenance", resp.Msg.Categories[3].Label)
}
