// Package services holds the budget, expense and task operations behind the
// HTTP API, the admin CLI and the export worker.
package services

import (
	"context"
	"time"

	"freshlife/internal/amqp"
	"freshlife/internal/core"
	"freshlife/internal/docstore"
	"freshlife/internal/log"
)

// Publisher announces committed changes. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, e *amqp.Event) error
}

type Option func(*base)

// WithPublisher enables event publishing after successful writes.
func WithPublisher(p Publisher) Option {
	return func(b *base) { b.publisher = p }
}

// WithClock overrides the time source used to compute "today".
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLocation sets the time zone whose calendar day counts as "today".
func WithLocation(loc *time.Location) Option {
	return func(b *base) {
		if loc != nil {
			b.loc = loc
		}
	}
}

type base struct {
	store     docstore.Store
	publisher Publisher
	now       func() time.Time
	loc       *time.Location
	logger    *log.Logger
}

func newBase(store docstore.Store, component string, opts []Option) base {
	b := base{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: log.WithComponent(component),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) today() core.Date {
	return core.Today(b.now().In(b.loc))
}

// publish is best effort: the write it announces has already committed.
func (b *base) publish(ctx context.Context, t amqp.EventType, id, userID string) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, amqp.NewEvent(t, id, userID)); err != nil {
		b.logger.WarnContext(ctx, "Failed to publish event",
			log.FieldEventType, t, "id", id, log.FieldError, err)
	}
}
