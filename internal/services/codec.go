package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"freshlife/internal/core"
	"freshlife/internal/docstore"
)

// Stored field names, shared by every backend.
const (
	fieldTitle        = "title"
	fieldUserID       = "userId"
	fieldDateFrom     = "dateFrom"
	fieldDateTo       = "dateTo"
	fieldBudgetAmount = "budgetAmount"
	fieldCreatedAt    = "createdAt"
	fieldTag          = "tag"
	fieldAmount       = "amount"
	fieldReason       = "reason"
	fieldDate         = "date"
	fieldDescription  = "description"
	fieldDueDate      = "dueDate"
	fieldIsCompleted  = "isCompleted"
	fieldPriority     = "priority"
	fieldTags         = "tags"
)

func encodeBudgetPeriod(p core.BudgetPeriod) docstore.Fields {
	return docstore.Fields{
		fieldTitle:        p.Title,
		fieldDateFrom:     p.DateFrom.Key(),
		fieldDateTo:       p.DateTo.Key(),
		fieldBudgetAmount: p.BudgetAmount.String(),
		fieldUserID:       p.UserID,
		fieldCreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeBudgetPeriod(doc docstore.Document) (core.BudgetPeriod, error) {
	from, err := core.ParseDateKey(doc.String(fieldDateFrom))
	if err != nil {
		return core.BudgetPeriod{}, malformed(doc, fieldDateFrom, err)
	}
	to, err := core.ParseDateKey(doc.String(fieldDateTo))
	if err != nil {
		return core.BudgetPeriod{}, malformed(doc, fieldDateTo, err)
	}
	amount, err := decimal.NewFromString(doc.String(fieldBudgetAmount))
	if err != nil {
		return core.BudgetPeriod{}, malformed(doc, fieldBudgetAmount, err)
	}
	createdAt := doc.CreatedAt
	if s := doc.String(fieldCreatedAt); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			createdAt = t
		}
	}
	return core.BudgetPeriod{
		ID:           doc.ID,
		Title:        doc.String(fieldTitle),
		DateFrom:     from,
		DateTo:       to,
		BudgetAmount: amount,
		UserID:       doc.String(fieldUserID),
		CreatedAt:    createdAt,
	}, nil
}

func encodeExpense(e core.Expense) docstore.Fields {
	return docstore.Fields{
		fieldTitle:  e.Title,
		fieldTag:    string(e.Tag),
		fieldAmount: e.Amount.String(),
		fieldReason: e.Reason,
		fieldDate:   e.Date.Key(),
		fieldUserID: e.UserID,
	}
}

func decodeExpense(doc docstore.Document) (core.Expense, error) {
	amount, err := decimal.NewFromString(doc.String(fieldAmount))
	if err != nil {
		return core.Expense{}, malformed(doc, fieldAmount, err)
	}
	date, err := core.ParseDateKey(doc.String(fieldDate))
	if err != nil {
		return core.Expense{}, malformed(doc, fieldDate, err)
	}
	return core.Expense{
		ID:     doc.ID,
		Title:  doc.String(fieldTitle),
		Tag:    core.ExpenseTag(doc.String(fieldTag)),
		Amount: amount,
		Reason: doc.String(fieldReason),
		Date:   date,
		UserID: doc.String(fieldUserID),
	}, nil
}

func encodeTask(t core.Task) docstore.Fields {
	return docstore.Fields{
		fieldTitle:       t.Title,
		fieldDescription: t.Description,
		fieldDueDate:     t.DueDate.Key(),
		fieldIsCompleted: t.IsCompleted,
		fieldPriority:    string(t.Priority),
		fieldTags:        string(t.Tags),
		fieldUserID:      t.UserID,
	}
}

func decodeTask(doc docstore.Document) (core.Task, error) {
	due, err := core.ParseDateKey(doc.String(fieldDueDate))
	if err != nil {
		return core.Task{}, malformed(doc, fieldDueDate, err)
	}
	completed, err := doc.Bool(fieldIsCompleted)
	if err != nil {
		return core.Task{}, malformed(doc, fieldIsCompleted, err)
	}
	return core.Task{
		ID:          doc.ID,
		Title:       doc.String(fieldTitle),
		Description: doc.String(fieldDescription),
		DueDate:     due,
		IsCompleted: completed,
		Priority:    core.Priority(doc.String(fieldPriority)),
		Tags:        core.TaskTag(doc.String(fieldTags)),
		UserID:      doc.String(fieldUserID),
	}, nil
}

func malformed(doc docstore.Document, field string, err error) error {
	return fmt.Errorf("document %s: field %s: %w", doc.ID, field, err)
}
