package http

import (
	"context"
	"net/http"

	"freshlife/internal/core"
	"freshlife/internal/log"
)

type expenseListResponse struct {
	Expenses []core.Expense `json:"expenses"`
}

type summaryResponse struct {
	Period  core.BudgetPeriod   `json:"period"`
	Summary core.ExpenseSummary `json:"summary"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	p, bad := parseBody(r)
	if bad != nil {
		bad.Write(w)
		return
	}

	id, err := s.deps.Expenses.AddExpense(r.Context(), newExpenseFrom(p), userID)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]string{"id": id}).
		Write(w)
}

func (s *Server) handleTodayExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	expenses, err := s.deps.Expenses.GetTodayExpenses(r.Context(), userID)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	NewJSONResponse().Body(expenseListResponse{Expenses: expenses}).Write(w)
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	resp, err := s.todaySummary(r.Context(), userID)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(resp).Write(w)
}

// todaySummary resolves today's period and sums the user's expenses
// against it. It fails with NotFound when no period covers today.
func (s *Server) todaySummary(ctx context.Context, userID string) (summaryResponse, error) {
	status, err := s.deps.Budgets.CheckTodayBudget(ctx)
	if err != nil {
		return summaryResponse{}, err
	}
	if !status.Found || status.Period == nil {
		return summaryResponse{}, &core.NotFoundError{Kind: "budget period", ID: "today"}
	}
	sum, err := s.deps.Expenses.Summarize(ctx, userID, *status.Period)
	if err != nil {
		return summaryResponse{}, err
	}
	return summaryResponse{Period: *status.Period, Summary: sum}, nil
}
