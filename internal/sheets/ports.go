// Package sheets defines the ledger the export worker writes committed
// records to.
package sheets

import (
	"context"

	"freshlife/internal/core"
)

type RowKind string

const (
	KindExpense      RowKind = "expense"
	KindTask         RowKind = "task"
	KindBudgetPeriod RowKind = "budget_period"
)

// Row is one exported record. Amount is a decimal string, empty for tasks.
type Row struct {
	Kind     RowKind
	ID       string
	Day      core.Date
	Title    string
	Category string
	Amount   string
	UserID   string
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		Append(ctx context.Context, row Row) (rowRef string, err error)
	}

	// LedgerReader lets the worker skip rows already exported when a
	// message is redelivered.
	LedgerReader interface {
		Contains(ctx context.Context, kind RowKind, year int, id string) (bool, error)
	}

	Ledger interface {
		LedgerWriter
		LedgerReader
	}
)
