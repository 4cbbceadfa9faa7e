package backend

import (
	"context"

	"freshlife/internal/docstore"
	"freshlife/internal/sheets"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store and its cleanup function.
type BackendResult struct {
	Store   docstore.Store
	Cleanup CleanupFunc
}

// LedgerResult contains the export ledger.
type LedgerResult struct {
	Ledger sheets.Ledger
	Kind   LedgerType
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateLedger(ctx context.Context, config Config) (*LedgerResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string

	Ledger                   LedgerType
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	ExpensesSheet            string
	TasksSheet               string
	BudgetsSheet             string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

type LedgerType string

const (
	SheetsLedger LedgerType = "sheets"
	MemoryLedger LedgerType = "memory"
)

func (lt LedgerType) IsValid() bool {
	return lt == SheetsLedger || lt == MemoryLedger
}
