package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"freshlife/internal/sheets"
)

// Ledger keeps exported rows in memory, for local runs and tests.
type Ledger struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var _ sheets.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// Append stores the row and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, row sheets.Row) (string, error) {
	if row.ID == "" {
		return "", errors.New("row id is empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, row)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

func (l *Ledger) Contains(_ context.Context, kind sheets.RowKind, year int, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.rows {
		if r.Kind == kind && r.ID == id && r.Day.Year() == year {
			return true, nil
		}
	}
	return false, nil
}

// Rows returns a copy of every appended row in append order.
func (l *Ledger) Rows() []sheets.Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.Row(nil), l.rows...)
}
