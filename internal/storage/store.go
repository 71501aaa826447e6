// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/roomies/internal/models"
)

// ErrNotFound is wrapped by every backend when a household or expense does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for household and expense storage.
// This abstraction allows swapping storage backends (memory, SQLite)
// without changing the service layer.
type Store interface {
	// CreateHousehold persists a new household.
	// The household.ID and CreatedAt fields are populated by the store.
	CreateHousehold(ctx context.Context, household *models.Household) error

	// GetHousehold retrieves a household with its members.
	GetHousehold(ctx context.Context, householdID string) (*models.Household, error)

	// AddHouseholdMembers appends members to a household. Names already
	// present are skipped.
	AddHouseholdMembers(ctx context.Context, householdID string, members []string) error

	// CreateExpense persists a new expense at the front of its household's list.
	// The expense.ID and CreatedAt fields are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by its ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses returns a household's expenses, most recently created first.
	ListExpenses(ctx context.Context, householdID string) ([]models.Expense, error)

	// SettleExpense marks an expense as settled at the given Unix time.
	// Settling an already settled expense keeps the original time.
	SettleExpense(ctx context.Context, expenseID string, settledAt int64) error

	// Close releases any resources held by the store.
	Close() error
}
