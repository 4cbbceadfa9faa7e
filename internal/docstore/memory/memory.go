package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"freshlife/internal/docstore"
)

type record struct {
	id        string
	fields    docstore.Fields
	createdAt time.Time
}

// Store keeps documents in process memory. Every operation runs under one
// mutex, so UpdateIf is atomic.
type Store struct {
	mu          sync.Mutex
	collections map[string][]*record
	index       map[string]map[string]*record
	now         func() time.Time
}

var _ docstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[string][]*record),
		index:       make(map[string]map[string]*record),
		now:         time.Now,
	}
}

// Create stores fields under a fresh UUID.
func (s *Store) Create(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &record{id: uuid.NewString(), fields: fields.Clone(), createdAt: s.now()}
	s.collections[collection] = append(s.collections[collection], rec)
	if s.index[collection] == nil {
		s.index[collection] = make(map[string]*record)
	}
	s.index[collection][rec.id] = rec
	return rec.id, nil
}

// Query returns matching documents in creation order.
func (s *Store) Query(ctx context.Context, collection string, preds ...docstore.Predicate) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, p := range preds {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []docstore.Document
	for _, rec := range s.collections[collection] {
		if docstore.MatchAll(rec.fields, preds) {
			out = append(out, rec.document())
		}
	}
	return out, nil
}

func (s *Store) FetchByID(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.index[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return rec.document(), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.index[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	rec.fields = fields.Clone()
	return nil
}

func (s *Store) UpdateIf(ctx context.Context, collection, id string, cond []docstore.Predicate, fields docstore.Fields) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, p := range cond {
		if err := p.Validate(); err != nil {
			return false, fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.index[collection][id]
	if !ok {
		return false, docstore.ErrNotFound
	}
	if !docstore.MatchAll(rec.fields, cond) {
		return false, nil
	}
	rec.fields = fields.Clone()
	return true, nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// Len returns the number of documents in collection.
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}

func (r *record) document() docstore.Document {
	return docstore.Document{ID: r.id, Fields: r.fields.Clone(), CreatedAt: r.createdAt}
}
