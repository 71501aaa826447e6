package calculator

import "fmt"

// Policy selects how a viewer who is not party to an expense is treated.
type Policy string

const (
	// PolicyChargeViewer charges the viewer a share of every expense they
	// did not pay for, whether or not they are listed in SplitWith.
	PolicyChargeViewer Policy = "charge-viewer"

	// PolicyPartiesOnly only counts expenses the viewer paid for or is
	// listed in.
	PolicyPartiesOnly Policy = "parties-only"
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyChargeViewer, PolicyPartiesOnly:
		return p, nil
	default:
		return "", fmt.Errorf("unknown balance policy %q", s)
	}
}

// NetBalance computes the viewer's balance under this policy.
func (p Policy) NetBalance(expenses []Expense, viewer string) float64 {
	if p == PolicyChargeViewer {
		return NetBalance(expenses, viewer)
	}
	return NetBalanceForParties(expenses, viewer)
}

// Summary bundles everything the expenses view displays for one viewer.
type Summary struct {
	Total          float64
	NetBalance     float64
	UnsettledCount int
	ByCategory     []CategoryTotal
	Debts          []DebtEdge
}

// Summarize computes the viewer's summary under the given policy.
func Summarize(expenses []Expense, viewer string, policy Policy) Summary {
	return Summary{
		Total:          TotalAmount(expenses),
		NetBalance:     policy.NetBalance(expenses, viewer),
		UnsettledCount: UnsettledCount(expenses),
		ByCategory:     CategoryTotals(expenses),
		Debts:          SimplifyDebts(Balances(Unsettled(expenses))),
	}
}

// Unsettled returns the expenses that still need to be reconciled.
func Unsettled(expenses []Expense) []Expense {
	var out []Expense
	for _, e := range expenses {
		if !e.Settled {
			out = append(out, e)
		}
	}
	return out
}
