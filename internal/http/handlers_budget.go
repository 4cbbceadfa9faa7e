package http

import (
	"net/http"

	"freshlife/internal/log"
)

func (s *Server) handleTodayBudget(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Budgets.CheckTodayBudget(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(status).Write(w)
}

func (s *Server) handleCreateBudgetPeriod(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	p, bad := parseBody(r)
	if bad != nil {
		bad.Write(w)
		return
	}

	period, err := s.deps.Budgets.CreateBudgetPeriod(r.Context(), newBudgetPeriodFrom(p), userID)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/budget-periods/"+period.ID).
		Body(period).
		Write(w)
}
