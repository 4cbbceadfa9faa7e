package backend

import (
	"context"
	"fmt"

	"freshlife/internal/docstore/memory"
	"freshlife/internal/docstore/sqlite"
	"freshlife/internal/log"
	gsheet "freshlife/internal/sheets/google"
	memledger "freshlife/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.WithComponent(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured document store.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	case MemoryBackend:
		store := memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	default:
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}
}

// CreateLedger builds the export ledger. An empty ledger type means memory.
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (*LedgerResult, error) {
	switch config.Ledger {
	case SheetsLedger:
		cli, err := gsheet.NewClient(ctx, gsheet.Config{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
			ExpensesSheet:      config.ExpensesSheet,
			TasksSheet:         config.TasksSheet,
			BudgetsSheet:       config.BudgetsSheet,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets ledger")
		return &LedgerResult{Ledger: cli, Kind: SheetsLedger}, nil
	case MemoryLedger, "":
		f.logger.InfoContext(ctx, "Initialized memory ledger")
		return &LedgerResult{Ledger: memledger.New(), Kind: MemoryLedger}, nil
	default:
		return nil, fmt.Errorf("invalid ledger type: %s", config.Ledger)
	}
}
