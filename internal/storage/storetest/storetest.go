// Package storetest holds behaviour tests shared by every storage.Store backend.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/roomies/internal/models"
	"github.com/mmynk/roomies/internal/storage"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("CreateHousehold generates ID and dedupes members", func(t *testing.T) {
		store := newStore(t)

		h := &models.Household{Name: "Elm Street", Members: []string{"You", "Sarah Chen", "You"}}
		require.NoError(t, store.CreateHousehold(ctx, h))

		assert.NotEmpty(t, h.ID)
		assert.NotZero(t, h.CreatedAt)
		assert.Equal(t, []string{"You", "Sarah Chen"}, h.Members)

		got, err := store.GetHousehold(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, h.Name, got.Name)
		assert.Equal(t, []string{"You", "Sarah Chen"}, got.Members)
	})

	t.Run("GetHousehold not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.GetHousehold(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("AddHouseholdMembers appends new names only", func(t *testing.T) {
		store := newStore(t)

		h := &models.Household{Name: "Flat", Members: []string{"You"}}
		require.NoError(t, store.CreateHousehold(ctx, h))
		require.NoError(t, store.AddHouseholdMembers(ctx, h.ID, []string{"Sarah Chen", "You", "Bob"}))

		got, err := store.GetHousehold(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"You", "Sarah Chen", "Bob"}, got.Members)

		err = store.AddHouseholdMembers(ctx, "missing", []string{"Bob"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("CreateExpense round trip", func(t *testing.T) {
		store := newStore(t)
		h := household(t, store)

		date := time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC)
		e := &models.Expense{
			HouseholdID: h.ID,
			Description: "Electricity Bill",
			Amount:      120,
			Category:    models.CategoryUtilities,
			PaidBy:      "Sarah Chen",
			SplitWith:   []string{"You", "You"},
			Date:        date,
		}
		require.NoError(t, store.CreateExpense(ctx, e))
		assert.NotEmpty(t, e.ID)
		assert.NotZero(t, e.CreatedAt)

		got, err := store.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.HouseholdID, got.HouseholdID)
		assert.Equal(t, "Electricity Bill", got.Description)
		assert.Equal(t, 120.0, got.Amount)
		assert.Equal(t, models.CategoryUtilities, got.Category)
		assert.Equal(t, "Sarah Chen", got.PaidBy)
		assert.Equal(t, []string{"You", "You"}, got.SplitWith)
		assert.True(t, got.Date.Equal(date))
		assert.False(t, got.Settled)
	})

	t.Run("CreateExpense requires household", func(t *testing.T) {
		store := newStore(t)

		err := store.CreateExpense(ctx, &models.Expense{HouseholdID: "missing", Description: "x", Amount: 1, PaidBy: "You"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListExpenses returns newest first", func(t *testing.T) {
		store := newStore(t)
		h := household(t, store)

		for _, desc := range []string{"Rent", "Electricity", "Groceries"} {
			require.NoError(t, store.CreateExpense(ctx, &models.Expense{
				HouseholdID: h.ID,
				Description: desc,
				Amount:      10,
				Category:    models.CategoryOther,
				PaidBy:      "You",
				SplitWith:   []string{"Sarah Chen"},
				Date:        time.Now().UTC().Truncate(24 * time.Hour),
			}))
		}

		got, err := store.ListExpenses(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Groceries", got[0].Description)
		assert.Equal(t, "Electricity", got[1].Description)
		assert.Equal(t, "Rent", got[2].Description)
		assert.Equal(t, []string{"Sarah Chen"}, got[0].SplitWith)

		empty := &models.Household{Name: "Empty"}
		require.NoError(t, store.CreateHousehold(ctx, empty))
		none, err := store.ListExpenses(ctx, empty.ID)
		require.NoError(t, err)
		assert.Empty(t, none)

		_, err = store.ListExpenses(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SettleExpense is idempotent", func(t *testing.T) {
		store := newStore(t)
		h := household(t, store)

		e := &models.Expense{HouseholdID: h.ID, Description: "Rent", Amount: 2400, Category: models.CategoryRent, PaidBy: "You"}
		require.NoError(t, store.CreateExpense(ctx, e))

		require.NoError(t, store.SettleExpense(ctx, e.ID, 1000))
		require.NoError(t, store.SettleExpense(ctx, e.ID, 2000))

		got, err := store.GetExpense(ctx, e.ID)
		require.NoError(t, err)
		assert.True(t, got.Settled)
		assert.Equal(t, int64(1000), got.SettledAt)

		assert.ErrorIs(t, store.SettleExpense(ctx, "missing", 1), storage.ErrNotFound)
	})

	t.Run("GetExpense not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.GetExpense(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("concurrent writers all succeed", func(t *testing.T) {
		store := newStore(t)
		h := household(t, store)

		const writers = 20
		var g errgroup.Group
		for i := 0; i < writers; i++ {
			name := fmt.Sprintf("Roommate %d", i)
			g.Go(func() error {
				if err := store.AddHouseholdMembers(ctx, h.ID, []string{name}); err != nil {
					return err
				}
				return store.CreateExpense(ctx, &models.Expense{
					HouseholdID: h.ID,
					Description: "Snacks from " + name,
					Amount:      5,
					Category:    models.CategoryGroceries,
					PaidBy:      name,
					SplitWith:   []string{"You"},
					Date:        time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC),
				})
			})
		}
		require.NoError(t, g.Wait())

		got, err := store.GetHousehold(ctx, h.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 2+writers)

		expenses, err := store.ListExpenses(ctx, h.ID)
		require.NoError(t, err)
		assert.Len(t, expenses, writers)
	})
}

func household(t *testing.T, store storage.Store) *models.Household {
	t.Helper()
	h := &models.Household{Name: "Elm Street", Members: []string{"You", "Sarah Chen"}}
	require.NoError(t, store.CreateHousehold(context.Background(), h))
	return h
}
