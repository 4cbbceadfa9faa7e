package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"freshlife/internal/docstore"
)

// Store persists documents as JSON rows in a single SQLite table and
// evaluates predicates with json_extract.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ docstore.Store = (*Store)(nil)

// Open creates the database file if needed and migrates it. dbPath must be
// a file path: migrations run on their own connection.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps UpdateIf and reads-after-writes consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", collection, err)
	}
	id := uuid.NewString()
	ts := s.timestamp()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, collection, string(data), ts, ts)
	if err != nil {
		return "", fmt.Errorf("insert %s document: %w", collection, err)
	}

	slog.DebugContext(ctx, "Document created", "collection", collection, "id", id)
	return id, nil
}

func (s *Store) Query(ctx context.Context, collection string, preds ...docstore.Predicate) ([]docstore.Document, error) {
	where, args, err := buildWhere(collection, preds)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data, created_at FROM documents WHERE `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s document: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", collection, err)
	}
	return out, nil
}

func (s *Store) FetchByID(ctx context.Context, collection, id string) (docstore.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, data, created_at FROM documents WHERE collection = ? AND id = ?`, collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get %s document by id: %w", collection, err)
	}
	return doc, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	applied, err := s.UpdateIf(ctx, collection, id, nil, fields)
	if err != nil {
		return err
	}
	if !applied {
		return docstore.ErrNotFound
	}
	return nil
}

// UpdateIf runs a single conditional UPDATE, so the condition and the write
// are atomic.
func (s *Store) UpdateIf(ctx context.Context, collection, id string, cond []docstore.Predicate, fields docstore.Fields) (bool, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return false, fmt.Errorf("encode %s document: %w", collection, err)
	}
	where, args, err := buildWhere(collection, cond)
	if err != nil {
		return false, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	args = append([]any{string(data), s.timestamp()}, args...)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE `+where+` AND id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s/%s rows affected: %w", collection, id, err)
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, docstore.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check %s/%s: %w", collection, id, err)
	}
	return false, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

var sqlOps = map[docstore.Op]string{
	docstore.OpEq:  "=",
	docstore.OpLte: "<=",
	docstore.OpGte: ">=",
}

// buildWhere renders predicates as bound json_extract comparisons. Field
// names are bound as JSON paths, never interpolated.
func buildWhere(collection string, preds []docstore.Predicate) (string, []any, error) {
	clauses := []string{"collection = ?"}
	args := []any{collection}
	for _, p := range preds {
		if err := p.Validate(); err != nil {
			return "", nil, err
		}
		clauses = append(clauses, "json_extract(data, ?) "+sqlOps[p.Op]+" ?")
		args = append(args, "$."+p.Field, bindValue(p.Value))
	}
	return strings.Join(clauses, " AND "), args, nil
}

// bindValue maps booleans to the 0/1 integers json_extract yields for
// JSON true/false.
func bindValue(v any) any {
	switch b := v.(type) {
	case bool:
		if b {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(b)
	}
	return v
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (docstore.Document, error) {
	var (
		id, data, created string
	)
	if err := sc.Scan(&id, &data, &created); err != nil {
		return docstore.Document{}, err
	}
	fields := docstore.Fields{}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("parse created_at of %s: %w", id, err)
	}
	return docstore.Document{ID: id, Fields: fields, CreatedAt: createdAt}, nil
}
