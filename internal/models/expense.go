package models

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for expense dates.
const DateLayout = "2006-01-02"

// ErrUnknownCategory is returned by ParseCategory for values outside the fixed set.
var ErrUnknownCategory = errors.New("unknown category")

// Category classifies an expense.
type Category string

const (
	CategoryRent        Category = "rent"
	CategoryUtilities   Category = "utilities"
	CategoryGroceries   Category = "groceries"
	CategoryMaintenance Category = "maintenance"
	CategoryOther       Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryRent,
	CategoryUtilities,
	CategoryGroceries,
	CategoryMaintenance,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryRent:        "Rent",
	CategoryUtilities:   "Utilities",
	CategoryGroceries:   "Groceries",
	CategoryMaintenance: "Maintenance",
	CategoryOther:       "Other",
}

// ParseCategory validates a category value. An empty value selects
// CategoryOther, the default when adding an expense.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Label returns the display label. Unknown categories display as "Other".
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryOther]
}

// Expense is a shared cost fronted by one roommate and split equally with
// the roommates in SplitWith.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// HouseholdID is the household whose expense list holds this expense.
	HouseholdID string

	// Description is a free-text label (e.g., "Electricity Bill").
	Description string

	// Amount is the full cost of the expense.
	Amount float64

	// Category is one of Categories.
	Category Category

	// PaidBy is the roommate who fronted the payment.
	PaidBy string

	// SplitWith lists the other roommates sharing the cost.
	// Order is kept for display; duplicates are not removed.
	SplitWith []string

	// Date is the calendar date of the expense (UTC midnight).
	Date time.Time

	// Settled marks the split as reconciled.
	Settled bool

	// SettledAt is the Unix timestamp when the expense was settled, 0 if pending.
	SettledAt int64

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Parties returns the payer followed by SplitWith.
func (e *Expense) Parties() []string {
	parties := make([]string, 0, len(e.SplitWith)+1)
	parties = append(parties, e.PaidBy)
	return append(parties, e.SplitWith...)
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
