package calculator

import "sort"

// settleThreshold ignores floating point noise below one cent.
const settleThreshold = 0.01

// PartyBalance is one roommate's net position across a set of expenses.
type PartyBalance struct {
	Name       string
	NetBalance float64 // Positive = owed money, Negative = owes money
	TotalPaid  float64 // Sum of amounts this party fronted
	TotalOwed  float64 // Sum of shares this party is responsible for
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

// Balances computes every party's position. The payer fronted the full
// amount and owes their own share; each SplitWith entry owes one share.
// A name listed twice in SplitWith is charged twice.
// Results are sorted by name.
func Balances(expenses []Expense) []PartyBalance {
	balances := make(map[string]*PartyBalance)
	get := func(name string) *PartyBalance {
		b, ok := balances[name]
		if !ok {
			b = &PartyBalance{Name: name}
			balances[name] = b
		}
		return b
	}

	for _, e := range expenses {
		share := Share(e)

		payer := get(e.PaidBy)
		payer.TotalPaid += e.Amount
		payer.TotalOwed += share

		for _, member := range e.SplitWith {
			get(member).TotalOwed += share
		}
	}

	out := make([]PartyBalance, 0, len(balances))
	for _, b := range balances {
		b.NetBalance = b.TotalPaid - b.TotalOwed
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SimplifyDebts turns net balances into a short list of payments.
// Debtors and creditors are matched greedily, largest amounts first, so
// that every debtor pays at most a few creditors.
func SimplifyDebts(balances []PartyBalance) []DebtEdge {
	var creditors, debtors []PartyBalance
	for _, b := range balances {
		if b.NetBalance > settleThreshold {
			creditors = append(creditors, b)
		} else if b.NetBalance < -settleThreshold {
			debtors = append(debtors, b)
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].NetBalance > creditors[j].NetBalance })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].NetBalance < debtors[j].NetBalance })

	owes := make([]float64, len(debtors))
	for i, d := range debtors {
		owes[i] = -d.NetBalance
	}
	owed := make([]float64, len(creditors))
	for j, c := range creditors {
		owed[j] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := owes[i]
		if owed[j] < amount {
			amount = owed[j]
		}

		if amount > settleThreshold {
			edges = append(edges, DebtEdge{
				From:   debtors[i].Name,
				To:     creditors[j].Name,
				Amount: amount,
			})
		}

		owes[i] -= amount
		owed[j] -= amount

		if owes[i] < settleThreshold {
			i++
		}
		if owed[j] < settleThreshold {
			j++
		}
	}

	return edges
}
