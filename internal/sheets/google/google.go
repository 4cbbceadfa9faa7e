package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"freshlife/internal/log"
	ports "freshlife/internal/sheets"
)

// Config selects the spreadsheet and the per-kind sheet base names. Sheet
// names are prefixed with the row's year ("2025 Expenses").
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	ExpensesSheet      string
	TasksSheet         string
	BudgetsSheet       string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBases    map[ports.RowKind]string
	logger        *log.Logger
}

var _ ports.Ledger = (*Client)(nil)

// NewClient creates a Sheets client authenticated with a service account.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	logger := log.WithComponent(log.ComponentSheets)
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBases:    sheetBases(cfg),
		logger:        logger,
	}, nil
}

func sheetBases(cfg Config) map[ports.RowKind]string {
	orDefault := func(v, def string) string {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
		return def
	}
	return map[ports.RowKind]string{
		ports.KindExpense:      orDefault(cfg.ExpensesSheet, "Expenses"),
		ports.KindTask:         orDefault(cfg.TasksSheet, "Tasks"),
		ports.KindBudgetPeriod: orDefault(cfg.BudgetsSheet, "Budgets"),
	}
}

// credentialsJSON resolves inline JSON, then a file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func credentialsJSON(cfg Config) ([]byte, error) {
	if j := strings.TrimSpace(cfg.ServiceAccountJSON); j != "" {
		return []byte(j), nil
	}
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

func (c *Client) sheetName(kind ports.RowKind, year int) (string, error) {
	base, ok := c.sheetBases[kind]
	if !ok {
		return "", fmt.Errorf("unknown row kind %q", kind)
	}
	return yearPrefixedName(base, year), nil
}

// Append writes row after the last used row of its year's sheet.
func (c *Client) Append(ctx context.Context, row ports.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.ID == "" {
		return "", errors.New("row id is empty")
	}
	sheet, err := c.sheetName(row.Kind, row.Day.Year())
	if err != nil {
		return "", err
	}

	rng := fmt.Sprintf("%s!A:G", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(row)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Ledger row appended", "ref", ref, "kind", row.Kind, "id", row.ID)
	return ref, nil
}

// Contains scans the year's sheet for a row with id. Rows that do not parse,
// such as a header, are skipped.
func (c *Client) Contains(ctx context.Context, kind ports.RowKind, year int, id string) (bool, error) {
	if c.svc == nil {
		return false, errors.New("sheets service not initialized")
	}
	sheet, err := c.sheetName(kind, year)
	if err != nil {
		return false, err
	}
	rng := fmt.Sprintf("%s!A:G", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", rng, err)
	}
	for _, values := range resp.Values {
		row, err := parseRow(values)
		if err != nil {
			continue
		}
		if row.ID == id && row.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
