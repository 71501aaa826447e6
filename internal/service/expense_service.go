package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmynk/roomies/internal/calculator"
	"github.com/mmynk/roomies/internal/events"
	"github.com/mmynk/roomies/internal/models"
	"github.com/mmynk/roomies/internal/money"
	"github.com/mmynk/roomies/internal/storage"
	"github.com/mmynk/roomies/pkg/api"
	"github.com/mmynk/roomies/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

var expensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "roomies",
	Name:      "expenses_created_total",
	Help:      "Expenses recorded, by category.",
}, []string{"category"})

// ExpenseService implements the Connect ExpenseService
type ExpenseService struct {
	store     storage.Store
	publisher events.Publisher
	policy    calculator.Policy
	now       func() time.Time
}

// NewExpenseService creates a new ExpenseService. The policy decides how
// GetSummary treats expenses the viewer is not party to.
func NewExpenseService(store storage.Store, publisher events.Publisher, policy calculator.Policy) *ExpenseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		policy:    policy,
		now:       time.Now,
	}
}

// CreateExpense validates and records a new expense at the top of the
// household's list.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.expenseFromRequest(req.Msg, viewer)
	if err != nil {
		return nil, err
	}

	// Check viewer is one of the parties
	if !contains(expense.Parties(), viewer) {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be the payer or split the expense to record it"))
	}

	household, err := memberHousehold(ctx, s.store, expense.HouseholdID, viewer)
	if err != nil {
		return nil, err
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, storeError("CreateExpense", err)
	}

	s.autoAddPartiesToHousehold(ctx, household, expense.Parties())
	expensesCreated.WithLabelValues(string(expense.Category)).Inc()

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"household_id", expense.HouseholdID,
		"amount", expense.Amount,
		"category", expense.Category,
		"split_count", len(expense.SplitWith),
	)

	s.publish(ctx, events.TypeExpenseCreated, expense)

	return connect.NewResponse(&api.CreateExpenseResponse{
		Expense: expenseToAPI(expense),
	}), nil
}

// expenseFromRequest validates the request fields and builds the model.
func (s *ExpenseService) expenseFromRequest(msg *api.CreateExpenseRequest, viewer string) (*models.Expense, error) {
	description := strings.TrimSpace(msg.Description)
	if description == "" {
		return nil, invalidArgument("description required")
	}

	var amount float64
	if msg.AmountText != "" {
		parsed, err := money.ParseAmount(msg.AmountText)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		amount = parsed
	} else {
		if err := money.ValidateAmount(msg.Amount); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		amount = msg.Amount
	}

	category, err := models.ParseCategory(msg.Category)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	paidBy := strings.TrimSpace(msg.PaidBy)
	if paidBy == "" {
		paidBy = viewer
	}

	splitWith, err := cleanNames("split_with", msg.SplitWith)
	if err != nil {
		return nil, err
	}

	date := s.now().UTC().Truncate(24 * time.Hour)
	if msg.Date != "" {
		date, err = models.ParseDate(msg.Date)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	return &models.Expense{
		HouseholdID: msg.HouseholdID,
		Description: description,
		Amount:      amount,
		Category:    category,
		PaidBy:      paidBy,
		SplitWith:   splitWith,
		Date:        date,
	}, nil
}

// autoAddPartiesToHousehold adds the payer and split members that are not yet in the household.
func (s *ExpenseService) autoAddPartiesToHousehold(ctx context.Context, household *models.Household, parties []string) {
	var newMembers []string
	for _, p := range parties {
		if !household.HasMember(p) && !contains(newMembers, p) {
			newMembers = append(newMembers, p)
		}
	}
	if len(newMembers) == 0 {
		return
	}

	if err := s.store.AddHouseholdMembers(ctx, household.ID, newMembers); err != nil {
		slog.Error("autoAddPartiesToHousehold: failed to add members", "household_id", household.ID, "error", err)
		return
	}
	slog.Info("Auto-added parties to household", "household_id", household.ID, "new_members", newMembers)
}

// GetExpense retrieves one expense from a household the viewer belongs to.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.memberExpense(ctx, req.Msg.ExpenseID, viewer)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetExpenseResponse{
		Expense: expenseToAPI(expense),
	}), nil
}

// ListExpenses returns the household's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := memberHousehold(ctx, s.store, req.Msg.HouseholdID, viewer); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, req.Msg.HouseholdID)
	if err != nil {
		return nil, storeError("ListExpenses", err)
	}

	out := make([]*api.Expense, len(expenses))
	for i := range expenses {
		out[i] = expenseToAPI(&expenses[i])
	}

	return connect.NewResponse(&api.ListExpensesResponse{
		Expenses: out,
	}), nil
}

// SettleExpense marks an expense as reconciled. Settling twice is a no-op.
func (s *ExpenseService) SettleExpense(ctx context.Context, req *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.SettleExpenseResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.memberExpense(ctx, req.Msg.ExpenseID, viewer)
	if err != nil {
		return nil, err
	}

	if !expense.Settled {
		if err := s.store.SettleExpense(ctx, expense.ID, s.now().Unix()); err != nil {
			return nil, storeError("SettleExpense", err)
		}
		expense, err = s.store.GetExpense(ctx, expense.ID)
		if err != nil {
			return nil, storeError("GetExpense", err)
		}

		slog.Info("Expense settled", "expense_id", expense.ID, "household_id", expense.HouseholdID)
		s.publish(ctx, events.TypeExpenseSettled, expense)
	}

	return connect.NewResponse(&api.SettleExpenseResponse{
		Expense: expenseToAPI(expense),
	}), nil
}

// GetSummary computes the figures for the viewer's summary cards.
func (s *ExpenseService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	viewer, err := requireViewer(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := memberHousehold(ctx, s.store, req.Msg.HouseholdID, viewer); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, req.Msg.HouseholdID)
	if err != nil {
		return nil, storeError("ListExpenses", err)
	}

	summary := calculator.Summarize(toCalculatorExpenses(expenses), viewer, s.policy)

	slog.Debug("Summary computed",
		"household_id", req.Msg.HouseholdID,
		"viewer", viewer,
		"total", summary.Total,
		"net_balance", summary.NetBalance,
		"unsettled", summary.UnsettledCount,
	)

	byCategory := make([]*api.CategoryTotal, len(summary.ByCategory))
	for i, c := range summary.ByCategory {
		byCategory[i] = &api.CategoryTotal{
			Category: c.Category,
			Label:    models.Category(c.Category).Label(),
			Amount:   c.Amount,
		}
	}
	debts := make([]*api.Debt, len(summary.Debts))
	for i, d := range summary.Debts {
		debts[i] = &api.Debt{From: d.From, To: d.To, Amount: d.Amount}
	}

	return connect.NewResponse(&api.GetSummaryResponse{
		Viewer:            viewer,
		Policy:            string(s.policy),
		Total:             summary.Total,
		TotalDisplay:      money.Format(summary.Total),
		NetBalance:        summary.NetBalance,
		NetBalanceDisplay: money.FormatSigned(summary.NetBalance),
		UnsettledCount:    int32(summary.UnsettledCount),
		ByCategory:        byCategory,
		Debts:             debts,
	}), nil
}

// ListCategories returns the fixed category set in display order.
func (s *ExpenseService) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	categories := make([]*api.Category, len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = &api.Category{Value: string(c), Label: c.Label()}
	}
	return connect.NewResponse(&api.ListCategoriesResponse{Categories: categories}), nil
}

// memberExpense loads an expense and checks the viewer belongs to its household.
func (s *ExpenseService) memberExpense(ctx context.Context, expenseID, viewer string) (*models.Expense, error) {
	if expenseID == "" {
		return nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, storeError("GetExpense", err)
	}
	if _, err := memberHousehold(ctx, s.store, expense.HouseholdID, viewer); err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) && connectErr.Code() == connect.CodePermissionDenied {
			return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you must be a member of this expense's household"))
		}
		return nil, err
	}
	return expense, nil
}

// publish emits an event; failures are logged and never fail the request.
func (s *ExpenseService) publish(ctx context.Context, eventType string, e *models.Expense) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:        eventType,
		HouseholdID: e.HouseholdID,
		ExpenseID:   e.ID,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		Timestamp:   s.now().UTC(),
	})
	if err != nil {
		slog.Warn("Failed to publish event", "type", eventType, "expense_id", e.ID, "error", err)
	}
}

func toCalculatorExpenses(expenses []models.Expense) []calculator.Expense {
	out := make([]calculator.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = calculator.Expense{
			Amount:    e.Amount,
			Category:  string(e.Category),
			PaidBy:    e.PaidBy,
			SplitWith: e.SplitWith,
			Settled:   e.Settled,
		}
	}
	return out
}

func expenseToAPI(e *models.Expense) *api.Expense {
	splitWith := e.SplitWith
	if splitWith == nil {
		splitWith = []string{}
	}
	return &api.Expense{
		ID:            e.ID,
		HouseholdID:   e.HouseholdID,
		Description:   e.Description,
		Amount:        e.Amount,
		Category:      string(e.Category),
		CategoryLabel: e.Category.Label(),
		PaidBy:        e.PaidBy,
		SplitWith:     splitWith,
		Share:         calculator.Share(calculator.Expense{Amount: e.Amount, SplitWith: e.SplitWith}),
		Date:          e.Date.Format(models.DateLayout),
		Settled:       e.Settled,
		SettledAt:     e.SettledAt,
		CreatedAt:     e.CreatedAt,
	}
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
