package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"freshlife/internal/amqp"
	"freshlife/internal/docstore"
	"freshlife/internal/docstore/memory"
)

// March 15th 2025, mid-morning.
var fixedNow = time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Events() []*amqp.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.Event(nil), p.events...)
}

var errStoreDown = errors.New("store unavailable")

// failingStore wraps a memory store and fails the selected operations.
type failingStore struct {
	*memory.Store
	failCreate, failQuery, failFetch, failUpdate bool
	queries                                      int
}

func newFailingStore() *failingStore {
	return &failingStore{Store: memory.New()}
}

func (s *failingStore) Create(ctx context.Context, c string, f docstore.Fields) (string, error) {
	if s.failCreate {
		return "", errStoreDown
	}
	return s.Store.Create(ctx, c, f)
}

func (s *failingStore) Query(ctx context.Context, c string, p ...docstore.Predicate) ([]docstore.Document, error) {
	s.queries++
	if s.failQuery {
		return nil, errStoreDown
	}
	return s.Store.Query(ctx, c, p...)
}

func (s *failingStore) FetchByID(ctx context.Context, c, id string) (docstore.Document, error) {
	if s.failFetch {
		return docstore.Document{}, errStoreDown
	}
	return s.Store.FetchByID(ctx, c, id)
}

func (s *failingStore) UpdateIf(ctx context.Context, c, id string, cond []docstore.Predicate, f docstore.Fields) (bool, error) {
	if s.failUpdate {
		return false, errStoreDown
	}
	return s.Store.UpdateIf(ctx, c, id, cond, f)
}
