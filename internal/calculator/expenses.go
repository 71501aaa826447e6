// Package calculator derives the summary figures shown for a household's
// shared expenses. Every function is pure and never returns an error:
// amounts are expected to be validated before they reach this package,
// and a NaN amount that slips through contaminates every sum it joins.
package calculator

import "sort"

// Expense is the minimal view of a shared expense needed for balance math.
type Expense struct {
	Amount    float64
	Category  string
	PaidBy    string
	SplitWith []string
	Settled   bool
}

// CategoryTotal is the summed amount for one category.
type CategoryTotal struct {
	Category string
	Amount   float64
}

// Share returns the equal share of an expense: the amount divided among
// the payer and every SplitWith entry.
func Share(e Expense) float64 {
	return e.Amount / float64(len(e.SplitWith)+1)
}

// TotalAmount sums the amount of every expense. An empty list totals 0.
func TotalAmount(expenses []Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// UnsettledCount counts the expenses that are not settled yet.
func UnsettledCount(expenses []Expense) int {
	n := 0
	for _, e := range expenses {
		if !e.Settled {
			n++
		}
	}
	return n
}

// NetBalance returns the viewer's position across all expenses.
// Positive = viewer is owed money, negative = viewer owes money.
//
// When the viewer paid, everyone else's share is owed back to them
// (+amount-share). Otherwise the viewer is charged one share. A viewer who
// is neither the payer nor in SplitWith is still charged a share.
// NetBalanceForParties skips those expenses instead.
func NetBalance(expenses []Expense, viewer string) float64 {
	var balance float64
	for _, e := range expenses {
		share := Share(e)
		if e.PaidBy == viewer {
			balance += e.Amount - share
		} else {
			balance -= share
		}
	}
	return balance
}

// NetBalanceForParties is NetBalance restricted to expenses the viewer is
// party to, either as payer or as a SplitWith entry.
func NetBalanceForParties(expenses []Expense, viewer string) float64 {
	var balance float64
	for _, e := range expenses {
		share := Share(e)
		switch {
		case e.PaidBy == viewer:
			balance += e.Amount - share
		case contains(e.SplitWith, viewer):
			balance -= share
		}
	}
	return balance
}

// CategoryTotals sums expense amounts per category, sorted by category.
func CategoryTotals(expenses []Expense) []CategoryTotal {
	sums := make(map[string]float64)
	for _, e := range expenses {
		sums[e.Category] += e.Amount
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for category, amount := range sums {
		totals = append(totals, CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Category < totals[j].Category
	})
	return totals
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
