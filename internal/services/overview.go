package services

import (
	"context"
	"strings"

	"freshlife/internal/core"
	"freshlife/internal/docstore"
	"freshlife/internal/log"
)

// OverviewCounter counts the caller's tasks due today.
type OverviewCounter struct {
	base
}

func NewOverviewCounter(store docstore.Store, opts ...Option) *OverviewCounter {
	return &OverviewCounter{base: newBase(store, log.ComponentOverview, opts)}
}

// CountTasks issues two queries, pending and all, and derives Completed
// from their difference.
func (c *OverviewCounter) CountTasks(ctx context.Context, userID string) (core.TaskCounts, error) {
	if strings.TrimSpace(userID) == "" {
		return core.TaskCounts{}, core.NewValidationError("userId", "owner is required")
	}
	day := c.today().Key()

	pending, err := c.store.Query(ctx, docstore.CollectionTasks,
		docstore.Where(fieldUserID, docstore.OpEq, userID),
		docstore.Where(fieldDueDate, docstore.OpEq, day),
		docstore.Where(fieldIsCompleted, docstore.OpEq, false),
	)
	if err != nil {
		return core.TaskCounts{}, core.NewPersistenceError("count pending tasks", err)
	}
	all, err := c.store.Query(ctx, docstore.CollectionTasks,
		docstore.Where(fieldUserID, docstore.OpEq, userID),
		docstore.Where(fieldDueDate, docstore.OpEq, day),
	)
	if err != nil {
		return core.TaskCounts{}, core.NewPersistenceError("count tasks", err)
	}
	return core.NewTaskCounts(len(all), len(pending)), nil
}
