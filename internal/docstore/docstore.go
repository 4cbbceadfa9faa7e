// Package docstore defines the document store contract the core depends on.
//
// Records live in named collections as flat field maps and are retrieved by
// equality and range predicates. Implementations return query results in
// creation order, which callers rely on for deterministic tie-breaks.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	CollectionTasks         = "tasks"
	CollectionExpenses      = "expenses"
	CollectionBudgetPeriods = "budgetsPeriod"
)

// ErrNotFound is returned by FetchByID, Update and UpdateIf for unknown ids.
var ErrNotFound = errors.New("document not found")

type Op string

const (
	OpEq  Op = "=="
	OpLte Op = "<="
	OpGte Op = ">="
)

type (
	// Fields holds a document's values. Supported value types are string,
	// bool, int, int64 and float64.
	Fields map[string]any

	Predicate struct {
		Field string
		Op    Op
		Value any
	}

	Document struct {
		ID        string
		Fields    Fields
		CreatedAt time.Time
	}
)

// Store is implemented by every persistence backend.
type Store interface {
	Create(ctx context.Context, collection string, fields Fields) (id string, err error)
	Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error)
	FetchByID(ctx context.Context, collection, id string) (Document, error)
	// Update overwrites the whole document.
	Update(ctx context.Context, collection, id string, fields Fields) error
	// UpdateIf overwrites the document only while every predicate in cond
	// still holds, atomically with respect to other writers. It reports
	// whether the write was applied.
	UpdateIf(ctx context.Context, collection, id string, cond []Predicate, fields Fields) (applied bool, err error)
	Ping(ctx context.Context) error
	Close() error
}

func Where(field string, op Op, value any) Predicate {
	return Predicate{Field: field, Op: op, Value: value}
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.Field, p.Op, p.Value)
}

// Validate checks the operator and value type.
func (p Predicate) Validate() error {
	if p.Field == "" {
		return errors.New("predicate field is empty")
	}
	switch p.Op {
	case OpEq, OpLte, OpGte:
	default:
		return fmt.Errorf("unsupported operator %q", p.Op)
	}
	switch p.Value.(type) {
	case string, int, int64, float64:
	case bool:
		if p.Op != OpEq {
			return fmt.Errorf("operator %q not supported for booleans", p.Op)
		}
	default:
		return fmt.Errorf("unsupported predicate value type %T for field %q", p.Value, p.Field)
	}
	return nil
}

// Match evaluates the predicate against fields. Missing fields never match
// and values of different kinds never compare.
func (p Predicate) Match(fields Fields) bool {
	v, ok := fields[p.Field]
	if !ok {
		return false
	}
	c, ok := compare(v, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return c == 0
	case OpLte:
		return c <= 0
	case OpGte:
		return c >= 0
	}
	return false
}

// MatchAll reports whether every predicate matches.
func MatchAll(fields Fields, preds []Predicate) bool {
	for _, p := range preds {
		if !p.Match(fields) {
			return false
		}
	}
	return true
}

func compare(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Clone returns a shallow copy; field values are immutable scalars.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the string value of key, or "" when absent or not a string.
func (d Document) String(key string) string {
	s, _ := d.Fields[key].(string)
	return s
}

// Bool returns the boolean value of key. Numeric 0/1 encodings are accepted.
func (d Document) Bool(key string) (bool, error) {
	switch v := d.Fields[key].(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case nil:
		return false, fmt.Errorf("field %q missing", key)
	default:
		return false, fmt.Errorf("field %q has type %T, want bool", key, v)
	}
}
