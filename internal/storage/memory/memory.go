// Package memory provides an in-process implementation of storage.Store.
// Nothing survives a restart; it backs local prototyping and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/roomies/internal/models"
	"github.com/mmynk/roomies/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps households and their expense lists in memory.
type Store struct {
	mu         sync.RWMutex
	households map[string]*models.Household
	expenses   map[string]*models.Expense
	// lists holds expense IDs per household, newest first.
	lists map[string][]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		households: make(map[string]*models.Household),
		expenses:   make(map[string]*models.Expense),
		lists:      make(map[string][]string),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CreateHousehold stores a copy of the household.
func (s *Store) CreateHousehold(_ context.Context, h *models.Household) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt == 0 {
		h.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.households[h.ID]; exists {
		return fmt.Errorf("household %s already exists", h.ID)
	}
	stored := *h
	stored.Members = dedupe(nil, h.Members)
	s.households[h.ID] = &stored
	h.Members = append([]string(nil), stored.Members...)
	return nil
}

// GetHousehold returns a copy of the stored household.
func (s *Store) GetHousehold(_ context.Context, householdID string) (*models.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.households[householdID]
	if !ok {
		return nil, fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}
	out := *h
	out.Members = append([]string(nil), h.Members...)
	return &out, nil
}

// AddHouseholdMembers appends new names to the member list.
func (s *Store) AddHouseholdMembers(_ context.Context, householdID string, members []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.households[householdID]
	if !ok {
		return fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}
	h.Members = dedupe(h.Members, members)
	return nil
}

// CreateExpense prepends the expense to its household's list.
func (s *Store) CreateExpense(_ context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.households[e.HouseholdID]; !ok {
		return fmt.Errorf("household %s: %w", e.HouseholdID, storage.ErrNotFound)
	}
	if _, exists := s.expenses[e.ID]; exists {
		return fmt.Errorf("expense %s already exists", e.ID)
	}

	stored := copyExpense(e)
	s.expenses[e.ID] = &stored
	s.lists[e.HouseholdID] = append([]string{e.ID}, s.lists[e.HouseholdID]...)
	return nil
}

// GetExpense returns a copy of the stored expense.
func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	out := copyExpense(e)
	return &out, nil
}

// ListExpenses returns copies of a household's expenses, newest first.
func (s *Store) ListExpenses(_ context.Context, householdID string) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.households[householdID]; !ok {
		return nil, fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}

	ids := s.lists[householdID]
	out := make([]models.Expense, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyExpense(s.expenses[id]))
	}
	return out, nil
}

// SettleExpense flags the expense as settled.
func (s *Store) SettleExpense(_ context.Context, expenseID string, settledAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if e.Settled {
		return nil
	}
	e.Settled = true
	e.SettledAt = settledAt
	return nil
}

func copyExpense(e *models.Expense) models.Expense {
	out := *e
	out.SplitWith = append([]string(nil), e.SplitWith...)
	return out
}

// dedupe appends names not yet present in existing, keeping order.
func dedupe(existing, names []string) []string {
	seen := make(map[string]bool, len(existing)+len(names))
	for _, n := range existing {
		seen[n] = true
	}
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			existing = append(existing, n)
		}
	}
	return existing
}
