package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// BudgetStatus is the outcome of looking up the period covering today.
type BudgetStatus struct {
	Found  bool          `json:"found"`
	Period *BudgetPeriod `json:"period,omitempty"`
}

// ExpenseSummary compares today's spending with a period's allotment.
type ExpenseSummary struct {
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	RemainExpense  decimal.Decimal `json:"remainExpense"`
	UsedPercentage float64         `json:"usedPercentage"`
}

// TaskCounts is the overview of tasks due today.
type TaskCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Summarize sums expenses against budget. RemainExpense is not clamped and
// goes negative when overspent; UsedPercentage is clamped to [0, 100] and is
// 0 for a zero budget.
func Summarize(budget decimal.Decimal, expenses []Expense) ExpenseSummary {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return ExpenseSummary{
		TotalExpenses:  total,
		RemainExpense:  budget.Sub(total),
		UsedPercentage: UsedPercentage(total, budget),
	}
}

// UsedPercentage returns total/budget*100 clamped to [0, 100].
func UsedPercentage(total, budget decimal.Decimal) float64 {
	if budget.IsZero() {
		return 0
	}
	pct := total.Div(budget).Mul(hundred)
	if pct.IsNegative() {
		return 0
	}
	if pct.GreaterThan(hundred) {
		return 100
	}
	f, _ := pct.Round(2).Float64()
	return f
}

// NewTaskCounts derives Completed from the two counted queries.
func NewTaskCounts(total, pending int) TaskCounts {
	return TaskCounts{Total: total, Pending: pending, Completed: total - pending}
}
