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

// NewExpense is raw user input for AddExpense.
type NewExpense struct {
	Title  string `json:"title"`
	Tag    string `json:"tag"`
	Amount string `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// ExpenseAggregator records expenses and totals today's spending against a
// budget period.
type ExpenseAggregator struct {
	base
}

func NewExpenseAggregator(store docstore.Store, opts ...Option) *ExpenseAggregator {
	return &ExpenseAggregator{base: newBase(store, log.ComponentExpense, opts)}
}

// AddExpense stores an expense dated today and returns its id.
func (a *ExpenseAggregator) AddExpense(ctx context.Context, in NewExpense, userID string) (string, error) {
	tag, err := core.ParseExpenseTag(in.Tag)
	if err != nil {
		return "", err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return "", core.NewValidationError("amount", err.Error())
	}
	e := core.Expense{
		Title:  strings.TrimSpace(in.Title),
		Tag:    tag,
		Amount: amount,
		Reason: strings.TrimSpace(in.Reason),
		Date:   a.today(),
		UserID: userID,
	}
	if err := e.Validate(); err != nil {
		return "", err
	}

	id, err := a.store.Create(ctx, docstore.CollectionExpenses, encodeExpense(e))
	if err != nil {
		return "", core.NewPersistenceError("create expense", err)
	}

	a.logger.InfoContext(ctx, "Expense created",
		log.FieldExpenseID, id,
		log.FieldUserID, userID,
		log.FieldAmount, amount.String(),
		"tag", tag)
	a.publish(ctx, amqp.EventExpenseCreated, id, userID)
	return id, nil
}

// GetTodayExpenses returns the caller's expenses dated today.
func (a *ExpenseAggregator) GetTodayExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.NewValidationError("userId", "owner is required")
	}
	docs, err := a.store.Query(ctx, docstore.CollectionExpenses,
		docstore.Where(fieldUserID, docstore.OpEq, userID),
		docstore.Where(fieldDate, docstore.OpEq, a.today().Key()),
	)
	if err != nil {
		return nil, core.NewPersistenceError("query expenses", err)
	}
	out := make([]core.Expense, 0, len(docs))
	for _, doc := range docs {
		e, err := decodeExpense(doc)
		if err != nil {
			return nil, core.NewPersistenceError("decode expense", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Summarize totals the caller's expenses for today against period.
func (a *ExpenseAggregator) Summarize(ctx context.Context, userID string, period core.BudgetPeriod) (core.ExpenseSummary, error) {
	expenses, err := a.GetTodayExpenses(ctx, userID)
	if err != nil {
		return core.ExpenseSummary{}, err
	}
	return SummarizeExpenses(period, expenses), nil
}

// SummarizeExpenses is the pure computation under Summarize.
func SummarizeExpenses(period core.BudgetPeriod, expenses []core.Expense) core.ExpenseSummary {
	return core.Summarize(period.BudgetAmount, expenses)
}

// GetExpense fetches one expense by id.
func (a *ExpenseAggregator) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	doc, err := a.store.FetchByID(ctx, docstore.CollectionExpenses, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.Expense{}, &core.NotFoundError{Kind: "expense", ID: id}
	}
	if err != nil {
		return core.Expense{}, core.NewPersistenceError("fetch expense", err)
	}
	e, err := decodeExpense(doc)
	if err != nil {
		return core.Expense{}, core.NewPersistenceError("decode expense", err)
	}
	return e, nil
}
