// Package api defines the request and response messages of the roomies
// Connect services. Messages travel as JSON; field names on the wire are
// snake_case.
package api

// Household is a set of roommates sharing one expense list.
type Household struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

type CreateHouseholdRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

type CreateHouseholdResponse struct {
	Household *Household `json:"household"`
}

type GetHouseholdRequest struct {
	HouseholdID string `json:"household_id"`
}

type GetHouseholdResponse struct {
	Household *Household `json:"household"`
}

type AddMembersRequest struct {
	HouseholdID string   `json:"household_id"`
	Members     []string `json:"members"`
}

type AddMembersResponse struct {
	Household *Household `json:"household"`
}

// Expense is a shared cost as shown in the expense list.
type Expense struct {
	ID            string   `json:"id"`
	HouseholdID   string   `json:"household_id"`
	Description   string   `json:"description"`
	Amount        float64  `json:"amount"`
	Category      string   `json:"category"`
	CategoryLabel string   `json:"category_label"`
	PaidBy        string   `json:"paid_by"`
	SplitWith     []string `json:"split_with"`
	Share         float64  `json:"share"`
	Date          string   `json:"date"`
	Settled       bool     `json:"settled"`
	SettledAt     int64    `json:"settled_at,omitempty"`
	CreatedAt     int64    `json:"created_at"`
}

// CreateExpenseRequest records a new expense. The amount may be sent as a
// number in Amount or as user-entered text in AmountText; AmountText wins
// when both are set. Empty PaidBy means the viewer paid; empty Date means today.
type CreateExpenseRequest struct {
	HouseholdID string   `json:"household_id"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount,omitempty"`
	AmountText  string   `json:"amount_text,omitempty"`
	Category    string   `json:"category,omitempty"`
	PaidBy      string   `json:"paid_by,omitempty"`
	SplitWith   []string `json:"split_with"`
	Date        string   `json:"date,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	HouseholdID string `json:"household_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type SettleExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type SettleExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetSummaryRequest struct {
	HouseholdID string `json:"household_id"`
}

// GetSummaryResponse carries the figures for the summary cards. The
// *_display fields are formatted to two decimals.
type GetSummaryResponse struct {
	Viewer            string           `json:"viewer"`
	Policy            string           `json:"policy"`
	Total             float64          `json:"total"`
	TotalDisplay      string           `json:"total_display"`
	NetBalance        float64          `json:"net_balance"`
	NetBalanceDisplay string           `json:"net_balance_display"`
	UnsettledCount    int32            `json:"unsettled_count"`
	ByCategory        []*CategoryTotal `json:"by_category"`
	Debts             []*Debt          `json:"debts"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
}

// Debt is one suggested payment to settle pending expenses.
type Debt struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type ListCategoriesRequest struct{}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
