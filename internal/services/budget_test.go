package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"freshlife/internal/amqp"
	"freshlife/internal/cache"
	"freshlife/internal/core"
	"freshlife/internal/docstore"
	"freshlife/internal/docstore/memory"
)

type BudgetResolverSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	pub      *recordingPublisher
	resolver *BudgetResolver
}

func (s *BudgetResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.pub = &recordingPublisher{}
	s.resolver = NewBudgetResolver(s.store,
		WithClock(fixedClock),
		WithLocation(time.UTC),
		WithPublisher(s.pub))
}

func (s *BudgetResolverSuite) create(title, from, to, amount string) core.BudgetPeriod {
	p, err := s.resolver.CreateBudgetPeriod(s.ctx, NewBudgetPeriod{Title: title, DateFrom: from, DateTo: to, BudgetAmount: amount}, "u1")
	require.NoError(s.T(), err)
	return p
}

func (s *BudgetResolverSuite) TestNoPeriod() {
	status, err := s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	assert.False(s.T(), status.Found)
	assert.Nil(s.T(), status.Period)
}

func (s *BudgetResolverSuite) TestMarchPeriodFoundOnFifteenth() {
	created := s.create("March", "01-03-2025", "31-03-2025", "5.000.000")

	status, err := s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	require.True(s.T(), status.Found)
	assert.Equal(s.T(), created.ID, status.Period.ID)
	assert.Equal(s.T(), "March", status.Period.Title)
	assert.True(s.T(), status.Period.BudgetAmount.Equal(decimal.NewFromInt(5000000)))
	assert.Equal(s.T(), "u1", status.Period.UserID)
}

func (s *BudgetResolverSuite) TestInclusiveBoundaries() {
	s.create("Ends today", "01-03-2025", "15-03-2025", "100")
	status, err := s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	require.True(s.T(), status.Found)
	assert.Equal(s.T(), "Ends today", status.Period.Title)

	s.create("Starts today", "15-03-2025", "20-03-2025", "100")
	status, err = s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Starts today", status.Period.Title)
}

func (s *BudgetResolverSuite) TestPeriodOutsideTodayNotFound() {
	s.create("February", "01-02-2025", "28-02-2025", "100")
	s.create("April", "01-04-2025", "30-04-2025", "100")

	status, err := s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	assert.False(s.T(), status.Found)
}

func (s *BudgetResolverSuite) TestOverlapMostRecentWins() {
	s.create("Quarter", "01-01-2025", "31-03-2025", "900")
	s.create("March", "01-03-2025", "31-03-2025", "300")

	status, err := s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	require.True(s.T(), status.Found)
	assert.Equal(s.T(), "March", status.Period.Title)
}

func (s *BudgetResolverSuite) TestPeriodsAreGlobal() {
	_, err := s.resolver.CreateBudgetPeriod(s.ctx, NewBudgetPeriod{
		Title: "Other user's", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "10",
	}, "someone-else")
	require.NoError(s.T(), err)

	status, err := s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	assert.True(s.T(), status.Found)
}

func (s *BudgetResolverSuite) TestCreateInvalidatesCachedStatus() {
	status, err := s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	require.False(s.T(), status.Found)

	s.create("March", "01-03-2025", "31-03-2025", "100")

	status, err = s.resolver.CheckTodayBudget(s.ctx)
	require.NoError(s.T(), err)
	assert.True(s.T(), status.Found)
}

func (s *BudgetResolverSuite) TestCreatePublishesEvent() {
	p := s.create("March", "01-03-2025", "31-03-2025", "100")

	events := s.pub.Events()
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), amqp.EventBudgetPeriodCreated, events[0].Type)
	assert.Equal(s.T(), p.ID, events[0].ID)
}

func (s *BudgetResolverSuite) TestCreateValidation() {
	tests := []struct {
		name  string
		in    NewBudgetPeriod
		field string
	}{
		{"empty title", NewBudgetPeriod{Title: " ", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "1"}, "title"},
		{"empty from", NewBudgetPeriod{Title: "t", DateFrom: "", DateTo: "31-03-2025", BudgetAmount: "1"}, "dateFrom"},
		{"bad to", NewBudgetPeriod{Title: "t", DateFrom: "01-03-2025", DateTo: "2025-03-31", BudgetAmount: "1"}, "dateTo"},
		{"to before from", NewBudgetPeriod{Title: "t", DateFrom: "31-03-2025", DateTo: "01-03-2025", BudgetAmount: "1"}, "dateTo"},
		{"negative amount", NewBudgetPeriod{Title: "t", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "-1"}, "budgetAmount"},
		{"non numeric amount", NewBudgetPeriod{Title: "t", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "lots"}, "budgetAmount"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.resolver.CreateBudgetPeriod(s.ctx, tt.in, "u1")
			var verr *core.ValidationError
			require.ErrorAs(s.T(), err, &verr)
			assert.Equal(s.T(), tt.field, verr.Field)
		})
	}
	assert.Equal(s.T(), 0, s.store.Len(docstore.CollectionBudgetPeriods))
	assert.Empty(s.T(), s.pub.Events())
}

func (s *BudgetResolverSuite) TestZeroBudgetAllowed() {
	p := s.create("Frugal", "01-03-2025", "31-03-2025", "0")
	assert.True(s.T(), p.BudgetAmount.IsZero())
}

func TestBudgetResolverSuite(t *testing.T) {
	suite.Run(t, new(BudgetResolverSuite))
}

func TestBudgetResolver_PersistenceErrors(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	r := NewBudgetResolver(store, WithClock(fixedClock), WithLocation(time.UTC))

	store.failCreate = true
	_, err := r.CreateBudgetPeriod(ctx, NewBudgetPeriod{Title: "March", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "1"}, "u1")
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Equal(t, 0, store.Len(docstore.CollectionBudgetPeriods))

	store.failQuery = true
	_, err = r.CheckTodayBudget(ctx)
	assert.ErrorIs(t, err, core.ErrPersistence)
}

func TestBudgetResolver_CachesFoundPerDay(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	now := fixedNow
	r := NewBudgetResolver(store, WithClock(func() time.Time { return now }), WithLocation(time.UTC)).
		WithCache(cache.NewLRUCache[core.BudgetStatus](8, time.Minute))

	_, err := r.CreateBudgetPeriod(ctx, NewBudgetPeriod{Title: "March", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "100"}, "u1")
	require.NoError(t, err)

	_, err = r.CheckTodayBudget(ctx)
	require.NoError(t, err)
	_, err = r.CheckTodayBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.queries, "second lookup on the same day is cached")

	now = now.Add(24 * time.Hour)
	_, err = r.CheckTodayBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.queries, "a new day is looked up again")

	r.WithCache(nil)
	_, err = r.CheckTodayBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, store.queries)
}

func TestBudgetResolver_MissesAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	r := NewBudgetResolver(store, WithClock(fixedClock), WithLocation(time.UTC)).
		WithCache(cache.NewLRUCache[core.BudgetStatus](8, time.Minute))

	for i := 0; i < 2; i++ {
		status, err := r.CheckTodayBudget(ctx)
		require.NoError(t, err)
		assert.False(t, status.Found)
	}
	assert.Equal(t, 2, store.queries)
}

func TestBudgetResolver_UncachedByDefault(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	r := NewBudgetResolver(store, WithClock(fixedClock), WithLocation(time.UTC))

	_, err := r.CreateBudgetPeriod(ctx, NewBudgetPeriod{Title: "March", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "100"}, "u1")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := r.CheckTodayBudget(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.queries)
}

// Two processes sharing one store each run their own resolver.
func TestBudgetResolver_SeesPeriodCreatedByAnotherResolver(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	server := NewBudgetResolver(store, WithClock(fixedClock), WithLocation(time.UTC)).
		WithCache(cache.NewLRUCache[core.BudgetStatus](8, time.Minute))
	admin := NewBudgetResolver(store, WithClock(fixedClock), WithLocation(time.UTC))

	status, err := server.CheckTodayBudget(ctx)
	require.NoError(t, err)
	require.False(t, status.Found)

	created, err := admin.CreateBudgetPeriod(ctx, NewBudgetPeriod{Title: "March", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "100"}, "u1")
	require.NoError(t, err)

	status, err = server.CheckTodayBudget(ctx)
	require.NoError(t, err)
	require.True(t, status.Found)
	assert.Equal(t, created.ID, status.Period.ID)
}

// afterQueryStore runs hook once, after the first query has read its results.
type afterQueryStore struct {
	*memory.Store
	hook func()
}

func (s *afterQueryStore) Query(ctx context.Context, c string, p ...docstore.Predicate) ([]docstore.Document, error) {
	docs, err := s.Store.Query(ctx, c, p...)
	if s.hook != nil {
		hook := s.hook
		s.hook = nil
		hook()
	}
	return docs, err
}

func TestBudgetResolver_CreateDuringLookupIsNotShadowed(t *testing.T) {
	ctx := context.Background()
	store := &afterQueryStore{Store: memory.New()}
	r := NewBudgetResolver(store, WithClock(fixedClock), WithLocation(time.UTC)).
		WithCache(cache.NewLRUCache[core.BudgetStatus](8, time.Minute))

	_, err := r.CreateBudgetPeriod(ctx, NewBudgetPeriod{Title: "Month", DateFrom: "01-03-2025", DateTo: "31-03-2025", BudgetAmount: "100"}, "u1")
	require.NoError(t, err)

	var newer core.BudgetPeriod
	store.hook = func() {
		newer, err = r.CreateBudgetPeriod(ctx, NewBudgetPeriod{Title: "Week", DateFrom: "10-03-2025", DateTo: "16-03-2025", BudgetAmount: "20"}, "u1")
		require.NoError(t, err)
	}

	status, err := r.CheckTodayBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Month", status.Period.Title, "the in-flight lookup returns what it read")

	status, err = r.CheckTodayBudget(ctx)
	require.NoError(t, err)
	require.True(t, status.Found)
	assert.Equal(t, newer.ID, status.Period.ID)
}

func TestBudgetResolver_TodayFollowsLocation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	tokyo := time.FixedZone("JST", 9*60*60)
	// 23:30 UTC on March 31st is already April 1st in Tokyo.
	clock := func() time.Time { return time.Date(2025, 3, 31, 23, 30, 0, 0, time.UTC) }
	r := NewBudgetResolver(store, WithClock(clock), WithLocation(tokyo))

	_, err := r.CreateBudgetPeriod(ctx, NewBudgetPeriod{Title: "April", DateFrom: "01-04-2025", DateTo: "30-04-2025", BudgetAmount: "1"}, "u1")
	require.NoError(t, err)

	status, err := r.CheckTodayBudget(ctx)
	require.NoError(t, err)
	assert.True(t, status.Found)
}
