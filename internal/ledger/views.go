package ledger

import (
	"strconv"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Sign classifies a balance for display.
type Sign string

const (
	Positive Sign = "positive"
	Negative Sign = "negative"
	Neutral  Sign = "neutral"
)

// TotalExpenses is the sum of all record values.
func TotalExpenses(s Snapshot) decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Records {
		total = total.Add(r.Value)
	}
	return total
}

// Balance is the budget minus the total of all expenses.
func Balance(s Snapshot) decimal.Decimal {
	return s.Budget.Sub(TotalExpenses(s))
}

// SignOf classifies d as positive, negative or neutral.
func SignOf(d decimal.Decimal) Sign {
	switch d.Sign() {
	case 1:
		return Positive
	case -1:
		return Negative
	default:
		return Neutral
	}
}

// BalanceSign classifies the current balance.
func BalanceSign(s Snapshot) Sign {
	return SignOf(Balance(s))
}

// CategoryTotals sums values per category in a single pass. The result is
// ordered by each category's first occurrence among the records.
func CategoryTotals(s Snapshot) []core.CategoryAmount {
	pos := make(map[core.Category]int)
	var out []core.CategoryAmount
	for _, r := range s.Records {
		i, ok := pos[r.Category]
		if !ok {
			pos[r.Category] = len(out)
			out = append(out, core.CategoryAmount{Category: r.Category, Amount: r.Value})
			continue
		}
		out[i].Amount = out[i].Amount.Add(r.Value)
	}
	return out
}

// ChronologicalSeries returns one point per record in ledger order,
// labelled "Expense N" with N starting at 1.
func ChronologicalSeries(s Snapshot) []core.Point {
	out := make([]core.Point, 0, len(s.Records))
	for i, r := range s.Records {
		out = append(out, core.Point{Label: "Expense " + strconv.Itoa(i+1), Value: r.Value})
	}
	return out
}
