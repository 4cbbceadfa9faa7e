package http

import (
	"context"
	"net/http"

	"freshlife/internal/auth"
	"freshlife/internal/core"
	"freshlife/internal/ops"
)

// dashboardResponse reports each section with its own operation state, so
// one failing section does not hide the others.
type dashboardResponse struct {
	User     auth.User                         `json:"user"`
	Budget   ops.Snapshot[core.BudgetStatus]   `json:"budget"`
	Summary  ops.Snapshot[summaryResponse]     `json:"summary"`
	Tasks    ops.Snapshot[core.TaskCounts]     `json:"tasks"`
	Expenses ops.Snapshot[expenseListResponse] `json:"expenses"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	session := s.deps.Identity.CurrentUser(r.Context())
	userID, err := session.UserID()
	if err != nil {
		FromError(err).Write(w)
		return
	}
	ctx := r.Context()

	budget := ops.Go(ctx, func(ctx context.Context) (core.BudgetStatus, error) {
		return s.deps.Budgets.CheckTodayBudget(ctx)
	})
	summary := ops.Go(ctx, func(ctx context.Context) (summaryResponse, error) {
		return s.todaySummary(ctx, userID)
	})
	counts := ops.Go(ctx, func(ctx context.Context) (core.TaskCounts, error) {
		return s.deps.Overview.CountTasks(ctx, userID)
	})
	expenses := ops.Go(ctx, func(ctx context.Context) (expenseListResponse, error) {
		list, err := s.deps.Expenses.GetTodayExpenses(ctx, userID)
		if list == nil {
			list = []core.Expense{}
		}
		return expenseListResponse{Expenses: list}, err
	})

	// A request deadline leaves unfinished sections pending.
	_, _ = budget.Wait(ctx)
	_, _ = summary.Wait(ctx)
	_, _ = counts.Wait(ctx)
	_, _ = expenses.Wait(ctx)

	NewJSONResponse().Body(dashboardResponse{
		User:     session.User,
		Budget:   budget.Snapshot(),
		Summary:  summary.Snapshot(),
		Tasks:    counts.Snapshot(),
		Expenses: expenses.Snapshot(),
	}).Write(w)
}
