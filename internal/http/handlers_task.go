package http

import (
	"context"
	"net/http"
	"strings"

	"freshlife/internal/core"
	"freshlife/internal/log"
)

type taskListResponse struct {
	Tasks []core.Task `json:"tasks"`
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	p, bad := parseBody(r)
	if bad != nil {
		bad.Write(w)
		return
	}

	id, err := s.deps.Tasks.AddTask(r.Context(), newTaskFrom(p), userID)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]string{"id": id}).
		Write(w)
}

func (s *Server) handleTodayTasks(w http.ResponseWriter, r *http.Request) {
	s.listTasks(w, r, s.deps.Tasks.GetTodayTasks)
}

func (s *Server) handleTodayCompletedTasks(w http.ResponseWriter, r *http.Request) {
	s.listTasks(w, r, s.deps.Tasks.GetTodayCompletedTasks)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, userID string) ([]core.Task, error)) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	tasks, err := list(r.Context(), userID)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	if tasks == nil {
		tasks = []core.Task{}
	}
	NewJSONResponse().Body(taskListResponse{Tasks: tasks}).Write(w)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	taskID := strings.TrimSpace(r.PathValue("id"))
	if taskID == "" {
		s.fail(w, r, log.OpComplete, core.NewValidationError("id", "task id is required"))
		return
	}

	res, err := s.deps.Tasks.CompleteTask(r.Context(), taskID, userID)
	if err != nil {
		s.fail(w, r, log.OpComplete, err)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}

func (s *Server) handleTaskOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	counts, err := s.deps.Overview.CountTasks(r.Context(), userID)
	if err != nil {
		s.fail(w, r, log.OpCount, err)
		return
	}
	NewJSONResponse().Body(counts).Write(w)
}
