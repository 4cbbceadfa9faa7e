package services

import (
	"context"
	"errors"
	"strings"

	"freshlife/internal/amqp"
	"freshlife/internal/core"
	"freshlife/internal/docstore"
	"freshlife/internal/log"
)

// NewTask is raw user input for AddTask. DueDate is DD-MM-YYYY.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	Tag         string `json:"tags"`
}

type CompleteResult struct {
	Success bool `json:"success"`
}

// TaskManager creates tasks and moves them from pending to completed.
type TaskManager struct {
	base
}

func NewTaskManager(store docstore.Store, opts ...Option) *TaskManager {
	return &TaskManager{base: newBase(store, log.ComponentTask, opts)}
}

// AddTask validates in and stores a pending task.
func (m *TaskManager) AddTask(ctx context.Context, in NewTask, userID string) (string, error) {
	t, err := m.parse(in, userID)
	if err != nil {
		return "", err
	}
	id, err := m.store.Create(ctx, docstore.CollectionTasks, encodeTask(t))
	if err != nil {
		return "", core.NewPersistenceError("create task", err)
	}
	m.logger.InfoContext(ctx, "Task created",
		log.FieldTaskID, id,
		log.FieldUserID, userID,
		"due", t.DueDate.String())
	return id, nil
}

func (m *TaskManager) parse(in NewTask, userID string) (core.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return core.Task{}, core.NewValidationError("title", "title is required")
	}
	due, err := core.ParseDate(in.DueDate)
	if err != nil {
		return core.Task{}, core.NewValidationError("dueDate", err.Error())
	}
	priority, err := core.ParsePriority(in.Priority)
	if err != nil {
		return core.Task{}, err
	}
	tag, err := core.ParseTaskTag(in.Tag)
	if err != nil {
		return core.Task{}, err
	}
	t := core.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     due,
		Priority:    priority,
		Tags:        tag,
		UserID:      userID,
	}
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	return t, nil
}

// GetTodayTasks returns the caller's pending tasks due today.
func (m *TaskManager) GetTodayTasks(ctx context.Context, userID string) ([]core.Task, error) {
	return m.todayTasks(ctx, userID, false)
}

// GetTodayCompletedTasks returns the caller's completed tasks due today.
func (m *TaskManager) GetTodayCompletedTasks(ctx context.Context, userID string) ([]core.Task, error) {
	return m.todayTasks(ctx, userID, true)
}

func (m *TaskManager) todayTasks(ctx context.Context, userID string, completed bool) ([]core.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.NewValidationError("userId", "owner is required")
	}
	docs, err := m.store.Query(ctx, docstore.CollectionTasks,
		docstore.Where(fieldUserID, docstore.OpEq, userID),
		docstore.Where(fieldDueDate, docstore.OpEq, m.today().Key()),
		docstore.Where(fieldIsCompleted, docstore.OpEq, completed),
	)
	if err != nil {
		return nil, core.NewPersistenceError("query tasks", err)
	}
	out := make([]core.Task, 0, len(docs))
	for _, doc := range docs {
		t, err := decodeTask(doc)
		if err != nil {
			return nil, core.NewPersistenceError("decode task", err)
		}
		out = append(out, t)
	}
	return out, nil
}

// GetTask fetches one task by id.
func (m *TaskManager) GetTask(ctx context.Context, id string) (core.Task, error) {
	doc, err := m.store.FetchByID(ctx, docstore.CollectionTasks, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.Task{}, &core.NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return core.Task{}, core.NewPersistenceError("fetch task", err)
	}
	t, err := decodeTask(doc)
	if err != nil {
		return core.Task{}, core.NewPersistenceError("decode task", err)
	}
	return t, nil
}

// CompleteTask marks the caller's task completed. The write is conditional
// on the task still being pending, so of two racing completions exactly one
// succeeds and the other gets AlreadyCompletedError.
func (m *TaskManager) CompleteTask(ctx context.Context, taskID, userID string) (CompleteResult, error) {
	t, err := m.GetTask(ctx, taskID)
	if err != nil {
		return CompleteResult{}, err
	}

	if !t.IsOwnedBy(userID) {
		m.logger.WarnContext(ctx, "Task completion denied",
			log.FieldTaskID, taskID, log.FieldUserID, userID)
		return CompleteResult{}, &core.PermissionError{Kind: "task", ID: taskID, UserID: userID}
	}
	if t.IsCompleted {
		return CompleteResult{}, &core.AlreadyCompletedError{TaskID: taskID}
	}

	t.IsCompleted = true
	applied, err := m.store.UpdateIf(ctx, docstore.CollectionTasks, taskID,
		[]docstore.Predicate{docstore.Where(fieldIsCompleted, docstore.OpEq, false)},
		encodeTask(t))
	if errors.Is(err, docstore.ErrNotFound) {
		return CompleteResult{}, &core.NotFoundError{Kind: "task", ID: taskID}
	}
	if err != nil {
		return CompleteResult{}, core.NewPersistenceError("complete task", err)
	}
	if !applied {
		return CompleteResult{}, &core.AlreadyCompletedError{TaskID: taskID}
	}

	m.logger.InfoContext(ctx, "Task completed", log.FieldTaskID, taskID, log.FieldUserID, userID)
	m.publish(ctx, amqp.EventTaskCompleted, taskID, userID)
	return CompleteResult{Success: true}, nil
}
