// Package storetest holds the behaviour every docstore.Store backend must
// share. Backend packages embed Suite in their own tests.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"freshlife/internal/docstore"
)

// Suite runs the store contract against the store returned by NewStore.
type Suite struct {
	suite.Suite
	NewStore func() docstore.Store

	store docstore.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
	require.NotNil(s.T(), s.store, "NewStore returned nil")
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *Suite) create(collection string, fields docstore.Fields) string {
	id, err := s.store.Create(s.ctx, collection, fields)
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), id)
	return id
}

func (s *Suite) TestCreateAndFetch() {
	id := s.create(docstore.CollectionTasks, docstore.Fields{
		"title":       "Write report",
		"isCompleted": false,
		"dueDate":     "2025-03-15",
	})

	doc, err := s.store.FetchByID(s.ctx, docstore.CollectionTasks, id)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), id, doc.ID)
	assert.Equal(s.T(), "Write report", doc.String("title"))
	completed, err := doc.Bool("isCompleted")
	require.NoError(s.T(), err)
	assert.False(s.T(), completed)
	assert.False(s.T(), doc.CreatedAt.IsZero())
}

func (s *Suite) TestFetchUnknownID() {
	_, err := s.store.FetchByID(s.ctx, docstore.CollectionTasks, "missing")
	assert.ErrorIs(s.T(), err, docstore.ErrNotFound)
}

func (s *Suite) TestCollectionsAreIsolated() {
	id := s.create(docstore.CollectionTasks, docstore.Fields{"title": "a"})

	_, err := s.store.FetchByID(s.ctx, docstore.CollectionExpenses, id)
	assert.ErrorIs(s.T(), err, docstore.ErrNotFound)

	docs, err := s.store.Query(s.ctx, docstore.CollectionExpenses)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), docs)
}

func (s *Suite) TestQueryEqualityAndCreationOrder() {
	for _, title := range []string{"first", "second", "third"} {
		s.create(docstore.CollectionExpenses, docstore.Fields{"title": title, "userId": "u1", "date": "2025-03-15"})
	}
	s.create(docstore.CollectionExpenses, docstore.Fields{"title": "other", "userId": "u2", "date": "2025-03-15"})

	docs, err := s.store.Query(s.ctx, docstore.CollectionExpenses,
		docstore.Where("userId", docstore.OpEq, "u1"),
		docstore.Where("date", docstore.OpEq, "2025-03-15"),
	)
	require.NoError(s.T(), err)
	require.Len(s.T(), docs, 3)
	assert.Equal(s.T(), "first", docs[0].String("title"))
	assert.Equal(s.T(), "second", docs[1].String("title"))
	assert.Equal(s.T(), "third", docs[2].String("title"))
}

func (s *Suite) TestQueryRange() {
	s.create(docstore.CollectionBudgetPeriods, docstore.Fields{"title": "March", "dateFrom": "2025-03-01", "dateTo": "2025-03-31"})
	s.create(docstore.CollectionBudgetPeriods, docstore.Fields{"title": "April", "dateFrom": "2025-04-01", "dateTo": "2025-04-30"})

	tests := []struct {
		day  string
		want []string
	}{
		{"2025-03-01", []string{"March"}},
		{"2025-03-15", []string{"March"}},
		{"2025-03-31", []string{"March"}},
		{"2025-04-01", []string{"April"}},
		{"2025-05-01", nil},
		{"2025-02-28", nil},
	}
	for _, tt := range tests {
		docs, err := s.store.Query(s.ctx, docstore.CollectionBudgetPeriods,
			docstore.Where("dateFrom", docstore.OpLte, tt.day),
			docstore.Where("dateTo", docstore.OpGte, tt.day),
		)
		require.NoError(s.T(), err, tt.day)
		var got []string
		for _, d := range docs {
			got = append(got, d.String("title"))
		}
		assert.Equal(s.T(), tt.want, got, tt.day)
	}
}

func (s *Suite) TestQueryBoolean() {
	s.create(docstore.CollectionTasks, docstore.Fields{"title": "open", "isCompleted": false})
	s.create(docstore.CollectionTasks, docstore.Fields{"title": "done", "isCompleted": true})

	docs, err := s.store.Query(s.ctx, docstore.CollectionTasks, docstore.Where("isCompleted", docstore.OpEq, true))
	require.NoError(s.T(), err)
	require.Len(s.T(), docs, 1)
	assert.Equal(s.T(), "done", docs[0].String("title"))
}

func (s *Suite) TestQueryRejectsInvalidPredicate() {
	_, err := s.store.Query(s.ctx, docstore.CollectionTasks, docstore.Where("isCompleted", docstore.OpLte, true))
	assert.Error(s.T(), err)

	_, err = s.store.Query(s.ctx, docstore.CollectionTasks, docstore.Where("title", "!=", "x"))
	assert.Error(s.T(), err)
}

func (s *Suite) TestUpdate() {
	id := s.create(docstore.CollectionTasks, docstore.Fields{"title": "a", "isCompleted": false})

	require.NoError(s.T(), s.store.Update(s.ctx, docstore.CollectionTasks, id, docstore.Fields{"title": "a", "isCompleted": true}))

	doc, err := s.store.FetchByID(s.ctx, docstore.CollectionTasks, id)
	require.NoError(s.T(), err)
	completed, err := doc.Bool("isCompleted")
	require.NoError(s.T(), err)
	assert.True(s.T(), completed)

	err = s.store.Update(s.ctx, docstore.CollectionTasks, "missing", docstore.Fields{})
	assert.ErrorIs(s.T(), err, docstore.ErrNotFound)
}

func (s *Suite) TestUpdateIf() {
	id := s.create(docstore.CollectionTasks, docstore.Fields{"title": "a", "isCompleted": false})
	cond := []docstore.Predicate{docstore.Where("isCompleted", docstore.OpEq, false)}
	done := docstore.Fields{"title": "a", "isCompleted": true}

	applied, err := s.store.UpdateIf(s.ctx, docstore.CollectionTasks, id, cond, done)
	require.NoError(s.T(), err)
	assert.True(s.T(), applied)

	applied, err = s.store.UpdateIf(s.ctx, docstore.CollectionTasks, id, cond, done)
	require.NoError(s.T(), err)
	assert.False(s.T(), applied, "condition no longer holds")

	_, err = s.store.UpdateIf(s.ctx, docstore.CollectionTasks, "missing", cond, done)
	assert.ErrorIs(s.T(), err, docstore.ErrNotFound)
}

func (s *Suite) TestUpdateIfConcurrentWritersApplyOnce() {
	id := s.create(docstore.CollectionTasks, docstore.Fields{"title": "a", "isCompleted": false})
	cond := []docstore.Predicate{docstore.Where("isCompleted", docstore.OpEq, false)}

	const writers = 16
	var (
		wg      sync.WaitGroup
		applied atomic.Int32
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.UpdateIf(s.ctx, docstore.CollectionTasks, id, cond, docstore.Fields{"title": "a", "isCompleted": true})
			if err == nil && ok {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(s.T(), int32(1), applied.Load())
}

func (s *Suite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.store.Create(ctx, docstore.CollectionTasks, docstore.Fields{"title": "a"})
	assert.Error(s.T(), err)
}

func (s *Suite) TestPing() {
	assert.NoError(s.T(), s.store.Ping(s.ctx))
}
