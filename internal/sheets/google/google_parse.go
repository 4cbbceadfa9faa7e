package google

import (
	"fmt"
	"strings"

	"freshlife/internal/core"
	ports "freshlife/internal/sheets"
)

// Ledger columns: A day, B id, C kind, D title, E category, F amount, G user.

func rowValues(r ports.Row) []any {
	var amount any = ""
	if r.Amount != "" {
		amount = r.Amount
	}
	return []any{r.Day.String(), r.ID, string(r.Kind), r.Title, r.Category, amount, r.UserID}
}

// parseRow reverses rowValues. Header and short rows are rejected.
func parseRow(values []any) (ports.Row, error) {
	cols := toStrings(values)
	if len(cols) < 4 {
		return ports.Row{}, fmt.Errorf("row has %d columns, want at least 4", len(cols))
	}
	day, err := core.ParseDate(cols[0])
	if err != nil {
		return ports.Row{}, fmt.Errorf("parse day %q: %w", cols[0], err)
	}
	return ports.Row{
		Day:      day,
		ID:       cols[1],
		Kind:     ports.RowKind(cols[2]),
		Title:    cols[3],
		Category: safeGet(cols, 4),
		Amount:   safeGet(cols, 5),
		UserID:   safeGet(cols, 6),
	}, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
