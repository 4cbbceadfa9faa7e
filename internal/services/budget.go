package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"freshlife/internal/amqp"
	"freshlife/internal/cache"
	"freshlife/internal/core"
	"freshlife/internal/docstore"
	"freshlife/internal/log"
)

// NewBudgetPeriod is raw user input for CreateBudgetPeriod. Dates are
// DD-MM-YYYY; the amount may carry thousand separators.
type NewBudgetPeriod struct {
	Title        string `json:"title"`
	DateFrom     string `json:"dateFrom"`
	DateTo       string `json:"dateTo"`
	BudgetAmount string `json:"budgetAmount"`
}

// BudgetResolver finds the budget period covering today and creates new
// periods. Periods are global: the lookup does not filter by user.
type BudgetResolver struct {
	base
	cache cache.Cache[core.BudgetStatus]
	// gen is bumped on every purge under mu; lookups that started under an
	// older generation do not write their result back.
	mu  sync.Mutex
	gen uint64
}

// NewBudgetResolver returns an uncached resolver. Use WithCache to enable
// the per-day status cache.
func NewBudgetResolver(store docstore.Store, opts ...Option) *BudgetResolver {
	return &BudgetResolver{base: newBase(store, log.ComponentBudget, opts)}
}

// WithCache sets the per-day status cache. A nil cache disables caching.
// Only found periods are cached, so a period created elsewhere for a day
// without one is seen on the next lookup. A newer overlapping period
// created by another process stays hidden until the entry expires.
func (r *BudgetResolver) WithCache(c cache.Cache[core.BudgetStatus]) *BudgetResolver {
	r.cache = c
	return r
}

// CheckTodayBudget reports the period whose inclusive range contains today.
// When several overlap, the most recently created one wins.
func (r *BudgetResolver) CheckTodayBudget(ctx context.Context) (core.BudgetStatus, error) {
	return r.budgetFor(ctx, r.today())
}

func (r *BudgetResolver) budgetFor(ctx context.Context, day core.Date) (core.BudgetStatus, error) {
	key := day.Key()
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()
	if r.cache != nil {
		if status, ok := r.cache.Get(key); ok {
			return status, nil
		}
	}

	docs, err := r.store.Query(ctx, docstore.CollectionBudgetPeriods,
		docstore.Where(fieldDateFrom, docstore.OpLte, key),
		docstore.Where(fieldDateTo, docstore.OpGte, key),
	)
	if err != nil {
		return core.BudgetStatus{}, core.NewPersistenceError("query budget periods", err)
	}

	status := core.BudgetStatus{}
	for i := len(docs) - 1; i >= 0; i-- {
		p, err := decodeBudgetPeriod(docs[i])
		if err != nil {
			return core.BudgetStatus{}, core.NewPersistenceError("decode budget period", err)
		}
		if p.Covers(day) {
			status = core.BudgetStatus{Found: true, Period: &p}
			break
		}
	}

	if len(docs) > 1 {
		r.logger.DebugContext(ctx, "Overlapping budget periods, using most recent",
			log.FieldDay, day.String(), "matches", len(docs))
	}
	if r.cache != nil && status.Found {
		r.mu.Lock()
		if r.gen == gen {
			r.cache.Set(key, status)
		}
		r.mu.Unlock()
	}
	return status, nil
}

// CreateBudgetPeriod validates in and stores a new period. No overlap check
// is made against existing periods.
func (r *BudgetResolver) CreateBudgetPeriod(ctx context.Context, in NewBudgetPeriod, userID string) (core.BudgetPeriod, error) {
	p, err := r.parse(in, userID)
	if err != nil {
		return core.BudgetPeriod{}, err
	}

	id, err := r.store.Create(ctx, docstore.CollectionBudgetPeriods, encodeBudgetPeriod(p))
	if err != nil {
		return core.BudgetPeriod{}, core.NewPersistenceError("create budget period", err)
	}
	p.ID = id
	r.mu.Lock()
	r.gen++
	if r.cache != nil {
		r.cache.Purge()
	}
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Budget period created",
		log.FieldPeriodID, id,
		log.FieldUserID, userID,
		"from", p.DateFrom.String(),
		"to", p.DateTo.String())
	r.publish(ctx, amqp.EventBudgetPeriodCreated, id, userID)
	return p, nil
}

func (r *BudgetResolver) parse(in NewBudgetPeriod, userID string) (core.BudgetPeriod, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return core.BudgetPeriod{}, core.NewValidationError("title", "title is required")
	}
	from, err := core.ParseDate(in.DateFrom)
	if err != nil {
		return core.BudgetPeriod{}, core.NewValidationError("dateFrom", err.Error())
	}
	to, err := core.ParseDate(in.DateTo)
	if err != nil {
		return core.BudgetPeriod{}, core.NewValidationError("dateTo", err.Error())
	}
	amount, err := core.ParseAmount(in.BudgetAmount)
	if err != nil {
		return core.BudgetPeriod{}, core.NewValidationError("budgetAmount", err.Error())
	}
	p := core.BudgetPeriod{
		Title:        title,
		DateFrom:     from,
		DateTo:       to,
		BudgetAmount: amount,
		UserID:       userID,
		CreatedAt:    r.now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return core.BudgetPeriod{}, err
	}
	return p, nil
}

// GetBudgetPeriod fetches one period by id.
func (r *BudgetResolver) GetBudgetPeriod(ctx context.Context, id string) (core.BudgetPeriod, error) {
	doc, err := r.store.FetchByID(ctx, docstore.CollectionBudgetPeriods, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.BudgetPeriod{}, &core.NotFoundError{Kind: "budget period", ID: id}
	}
	if err != nil {
		return core.BudgetPeriod{}, core.NewPersistenceError("fetch budget period", err)
	}
	p, err := decodeBudgetPeriod(doc)
	if err != nil {
		return core.BudgetPeriod{}, core.NewPersistenceError("decode budget period", err)
	}
	return p, nil
}
