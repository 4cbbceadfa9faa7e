package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	TagWork     TaskTag = "Work"
	TagPersonal TaskTag = "Personal"
	TagShopping TaskTag = "Shopping"
	TagHealth   TaskTag = "Health"
	TagStudy    TaskTag = "Study"
	TagProject  TaskTag = "Project"
	TagOther    TaskTag = "Other"
)

const (
	ExpenseEating    ExpenseTag = "Eating"
	ExpenseDrinking  ExpenseTag = "Drinking"
	ExpenseTransport ExpenseTag = "Transport"
	ExpenseShopping  ExpenseTag = "Shopping"
)

// MaxTaskTitleLength is the longest task title accepted, in characters.
const MaxTaskTitleLength = 100

type (
	Priority   string
	TaskTag    string
	ExpenseTag string

	// BudgetPeriod is a named, inclusive date range with an allotted amount.
	BudgetPeriod struct {
		ID           string          `json:"id"`
		Title        string          `json:"title"`
		DateFrom     Date            `json:"dateFrom"`
		DateTo       Date            `json:"dateTo"`
		BudgetAmount decimal.Decimal `json:"budgetAmount"`
		UserID       string          `json:"userId,omitempty"`
		CreatedAt    time.Time       `json:"createdAt"`
	}

	Expense struct {
		ID     string          `json:"id"`
		Title  string          `json:"title"`
		Tag    ExpenseTag      `json:"tag"`
		Amount decimal.Decimal `json:"amount"`
		Reason string          `json:"reason,omitempty"`
		Date   Date            `json:"date"`
		UserID string          `json:"userId"`
	}

	Task struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Description string   `json:"description,omitempty"`
		DueDate     Date     `json:"dueDate"`
		IsCompleted bool     `json:"isCompleted"`
		Priority    Priority `json:"priority"`
		Tags        TaskTag  `json:"tags"`
		UserID      string   `json:"userId"`
	}
)

// Priorities lists every accepted task priority.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// TaskTags lists every accepted task tag.
func TaskTags() []TaskTag {
	return []TaskTag{TagWork, TagPersonal, TagShopping, TagHealth, TagStudy, TagProject, TagOther}
}

// ExpenseTags lists every accepted expense tag.
func ExpenseTags() []ExpenseTag {
	return []ExpenseTag{ExpenseEating, ExpenseDrinking, ExpenseTransport, ExpenseShopping}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (t TaskTag) IsValid() bool {
	switch t {
	case TagWork, TagPersonal, TagShopping, TagHealth, TagStudy, TagProject, TagOther:
		return true
	default:
		return false
	}
}

func (t ExpenseTag) IsValid() bool {
	switch t {
	case ExpenseEating, ExpenseDrinking, ExpenseTransport, ExpenseShopping:
		return true
	default:
		return false
	}
}

// ParsePriority maps raw input onto the closed priority set.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.TrimSpace(s))
	if !p.IsValid() {
		return "", NewValidationError("priority", "must be one of low, medium, high")
	}
	return p, nil
}

// ParseTaskTag maps raw input onto the closed task tag set.
func ParseTaskTag(s string) (TaskTag, error) {
	t := TaskTag(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", NewValidationError("tags", "invalid tag selected")
	}
	return t, nil
}

// ParseExpenseTag maps raw input onto the closed expense tag set.
func ParseExpenseTag(s string) (ExpenseTag, error) {
	t := ExpenseTag(strings.TrimSpace(s))
	if !t.IsValid() {
		return "", NewValidationError("tag", "must be one of Eating, Drinking, Transport, Shopping")
	}
	return t, nil
}

func (b BudgetPeriod) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return NewValidationError("title", "title is required")
	}
	if b.DateFrom.IsZero() {
		return NewValidationError("dateFrom", "start date is required")
	}
	if b.DateTo.IsZero() {
		return NewValidationError("dateTo", "end date is required")
	}
	if b.DateTo.Before(b.DateFrom) {
		return NewValidationError("dateTo", "end date must not be before start date")
	}
	if b.BudgetAmount.IsNegative() {
		return NewValidationError("budgetAmount", "budget must be at least 0")
	}
	return nil
}

// Covers reports whether day falls inside the inclusive period range.
func (b BudgetPeriod) Covers(day Date) bool {
	return !day.Before(b.DateFrom) && !day.After(b.DateTo)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return NewValidationError("title", "title is required")
	}
	if !e.Tag.IsValid() {
		return NewValidationError("tag", "must be one of Eating, Drinking, Transport, Shopping")
	}
	if e.Amount.IsNegative() {
		return NewValidationError("amount", "amount must not be negative")
	}
	if e.Date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	if strings.TrimSpace(e.UserID) == "" {
		return NewValidationError("userId", "owner is required")
	}
	return nil
}

func (t Task) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTaskTitleLength {
		return NewValidationError("title", "title must be at most 100 characters")
	}
	if t.DueDate.IsZero() {
		return NewValidationError("dueDate", "due date is required")
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", "must be one of low, medium, high")
	}
	if !t.Tags.IsValid() {
		return NewValidationError("tags", "invalid tag selected")
	}
	if strings.TrimSpace(t.UserID) == "" {
		return NewValidationError("userId", "owner is required")
	}
	return nil
}

// IsOwnedBy reports whether userID is the task's owner.
func (t Task) IsOwnedBy(userID string) bool {
	return t.UserID != "" && t.UserID == userID
}
