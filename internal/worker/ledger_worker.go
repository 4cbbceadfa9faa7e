// Package worker exports committed records to the ledger as their events
// arrive.
package worker

import (
	"context"
	"errors"
	"fmt"

	"freshlife/internal/amqp"
	"freshlife/internal/core"
	"freshlife/internal/log"
	"freshlife/internal/sheets"
)

type (
	ExpenseGetter interface {
		GetExpense(ctx context.Context, id string) (core.Expense, error)
	}
	TaskGetter interface {
		GetTask(ctx context.Context, id string) (core.Task, error)
	}
	BudgetGetter interface {
		GetBudgetPeriod(ctx context.Context, id string) (core.BudgetPeriod, error)
	}
)

// LedgerWorker turns events into ledger rows.
type LedgerWorker struct {
	expenses ExpenseGetter
	tasks    TaskGetter
	budgets  BudgetGetter
	ledger   sheets.Ledger
	logger   *log.Logger
}

func NewLedgerWorker(expenses ExpenseGetter, tasks TaskGetter, budgets BudgetGetter, ledger sheets.Ledger) *LedgerWorker {
	return &LedgerWorker{
		expenses: expenses,
		tasks:    tasks,
		budgets:  budgets,
		ledger:   ledger,
		logger:   log.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent exports the record e refers to. Records that no longer exist
// are skipped; rows already in the ledger are not appended twice.
func (w *LedgerWorker) HandleEvent(ctx context.Context, e *amqp.Event) error {
	row, err := w.rowFor(ctx, e)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Record for event not found, skipping",
			log.FieldEventType, e.Type, "id", e.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s %s: %w", e.Type, e.ID, err)
	}

	exists, err := w.ledger.Contains(ctx, row.Kind, row.Day.Year(), row.ID)
	if err != nil {
		return fmt.Errorf("check ledger: %w", err)
	}
	if exists {
		w.logger.InfoContext(ctx, "Row already exported", "kind", row.Kind, "id", row.ID)
		return nil
	}

	ref, err := w.ledger.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}
	w.logger.InfoContext(ctx, "Row exported",
		log.FieldOperation, log.OpAppend,
		"kind", row.Kind,
		"id", row.ID,
		"ref", ref)
	return nil
}

func (w *LedgerWorker) rowFor(ctx context.Context, e *amqp.Event) (sheets.Row, error) {
	switch e.Type {
	case amqp.EventExpenseCreated:
		x, err := w.expenses.GetExpense(ctx, e.ID)
		if err != nil {
			return sheets.Row{}, err
		}
		return ExpenseRow(x), nil
	case amqp.EventTaskCompleted:
		t, err := w.tasks.GetTask(ctx, e.ID)
		if err != nil {
			return sheets.Row{}, err
		}
		return TaskRow(t), nil
	case amqp.EventBudgetPeriodCreated:
		p, err := w.budgets.GetBudgetPeriod(ctx, e.ID)
		if err != nil {
			return sheets.Row{}, err
		}
		return BudgetPeriodRow(p), nil
	}
	return sheets.Row{}, fmt.Errorf("unsupported event type %q", e.Type)
}

func ExpenseRow(e core.Expense) sheets.Row {
	title := e.Title
	if e.Reason != "" {
		title += " (" + e.Reason + ")"
	}
	return sheets.Row{
		Kind:     sheets.KindExpense,
		ID:       e.ID,
		Day:      e.Date,
		Title:    title,
		Category: string(e.Tag),
		Amount:   e.Amount.String(),
		UserID:   e.UserID,
	}
}

func TaskRow(t core.Task) sheets.Row {
	return sheets.Row{
		Kind:     sheets.KindTask,
		ID:       t.ID,
		Day:      t.DueDate,
		Title:    t.Title,
		Category: string(t.Tags) + "/" + string(t.Priority),
		UserID:   t.UserID,
	}
}

// BudgetPeriodRow files a period under its start day; the title carries the
// end day.
func BudgetPeriodRow(p core.BudgetPeriod) sheets.Row {
	return sheets.Row{
		Kind:   sheets.KindBudgetPeriod,
		ID:     p.ID,
		Day:    p.DateFrom,
		Title:  fmt.Sprintf("%s (until %s)", p.Title, p.DateTo),
		Amount: p.BudgetAmount.String(),
		UserID: p.UserID,
	}
}
