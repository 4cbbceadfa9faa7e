package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDateParse(t *testing.T) {
	cases := []struct {
		in  string
		key string
		ok  bool
	}{
		{"01-03-2025", "2025-03-01", true},
		{"31-03-2025", "2025-03-31", true},
		{" 15-03-2025 ", "2025-03-15", true},
		{"2025-03-15", "", false},
		{"31-02-2025", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.Key() != tc.key {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.key, d.Key(), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDateKeyOrdersChronologically(t *testing.T) {
	// DD-MM-YYYY strings do not order correctly; keys must.
	a, _ := ParseDate("31-01-2025")
	b, _ := ParseDate("01-02-2025")
	if !(a.String() > b.String()) {
		t.Fatalf("display strings unexpectedly ordered")
	}
	if !(a.Key() < b.Key()) {
		t.Fatalf("keys must order chronologically: %s vs %s", a.Key(), b.Key())
	}
}

func TestBudgetPeriodValidateAndCovers(t *testing.T) {
	p := BudgetPeriod{
		Title:        "March",
		DateFrom:     NewDate(2025, 3, 1),
		DateTo:       NewDate(2025, 3, 31),
		BudgetAmount: decimal.NewFromInt(500000),
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, d := range []Date{NewDate(2025, 3, 1), NewDate(2025, 3, 15), NewDate(2025, 3, 31)} {
		if !p.Covers(d) {
			t.Fatalf("expected %s covered", d)
		}
	}
	for _, d := range []Date{NewDate(2025, 2, 28), NewDate(2025, 4, 1)} {
		if p.Covers(d) {
			t.Fatalf("expected %s not covered", d)
		}
	}

	bads := []BudgetPeriod{
		{Title: "", DateFrom: p.DateFrom, DateTo: p.DateTo},
		{Title: "x", DateTo: p.DateTo},
		{Title: "x", DateFrom: p.DateFrom},
		{Title: "x", DateFrom: p.DateTo, DateTo: p.DateFrom},
		{Title: "x", DateFrom: p.DateFrom, DateTo: p.DateTo, BudgetAmount: decimal.NewFromInt(-1)},
	}
	for i, b := range bads {
		if err := b.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestTaskValidate(t *testing.T) {
	good := Task{
		Title:    "Write report",
		DueDate:  NewDate(2025, 3, 15),
		Priority: PriorityHigh,
		Tags:     TagWork,
		UserID:   "u1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := good
	long.Title = strings.Repeat("a", MaxTaskTitleLength+1)
	exact := good
	exact.Title = strings.Repeat("é", MaxTaskTitleLength)
	if err := exact.Validate(); err != nil {
		t.Fatalf("100 characters should be accepted, got %v", err)
	}

	bads := []Task{
		{Title: "  ", DueDate: good.DueDate, Priority: PriorityLow, Tags: TagWork, UserID: "u1"},
		long,
		{Title: "a", Priority: PriorityLow, Tags: TagWork, UserID: "u1"},
		{Title: "a", DueDate: good.DueDate, Priority: "urgent", Tags: TagWork, UserID: "u1"},
		{Title: "a", DueDate: good.DueDate, Priority: PriorityLow, Tags: "Chores", UserID: "u1"},
		{Title: "a", DueDate: good.DueDate, Priority: PriorityLow, Tags: TagWork},
	}
	for i, task := range bads {
		var verr *ValidationError
		if err := task.Validate(); !errors.As(err, &verr) {
			t.Fatalf("case %d expected *ValidationError, got %v", i, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Title: "Pho", Tag: ExpenseEating, Amount: decimal.NewFromInt(50000), Date: NewDate(2025, 3, 15), UserID: "u1"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}
	bads := []Expense{
		{Tag: ExpenseEating, Amount: decimal.NewFromInt(1), Date: good.Date, UserID: "u1"},
		{Title: "x", Tag: "Rent", Amount: decimal.NewFromInt(1), Date: good.Date, UserID: "u1"},
		{Title: "x", Tag: ExpenseEating, Amount: decimal.NewFromInt(-1), Date: good.Date, UserID: "u1"},
		{Title: "x", Tag: ExpenseEating, Amount: decimal.NewFromInt(1), UserID: "u1"},
		{Title: "x", Tag: ExpenseEating, Amount: decimal.NewFromInt(1), Date: good.Date},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseEnums(t *testing.T) {
	for _, p := range Priorities() {
		if got, err := ParsePriority(string(p)); err != nil || got != p {
			t.Fatalf("priority %q: got %q err=%v", p, got, err)
		}
	}
	for _, tag := range TaskTags() {
		if _, err := ParseTaskTag(string(tag)); err != nil {
			t.Fatalf("tag %q: %v", tag, err)
		}
	}
	for _, tag := range ExpenseTags() {
		if _, err := ParseExpenseTag(string(tag)); err != nil {
			t.Fatalf("expense tag %q: %v", tag, err)
		}
	}
	if _, err := ParsePriority("HIGH"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected case-sensitive rejection, got %v", err)
	}
	if _, err := ParseTaskTag("work"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if _, err := ParseExpenseTag(""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("disk full")
	cases := []struct {
		err    error
		target error
	}{
		{NewValidationError("title", "required"), ErrValidation},
		{&NotFoundError{Kind: "task", ID: "t1"}, ErrNotFound},
		{&PermissionError{Kind: "task", ID: "t1", UserID: "u2"}, ErrPermission},
		{&AlreadyCompletedError{TaskID: "t1"}, ErrAlreadyCompleted},
		{NewPersistenceError("create task", cause), ErrPersistence},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.target) {
			t.Fatalf("%v should match %v", tc.err, tc.target)
		}
		if errors.Is(tc.err, ErrValidation) && tc.target != ErrValidation {
			t.Fatalf("%v must not match ErrValidation", tc.err)
		}
	}
	if !errors.Is(NewPersistenceError("op", cause), cause) {
		t.Fatalf("persistence error should unwrap to its cause")
	}
}
