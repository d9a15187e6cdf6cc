// Package repository stores the site's tables in memory or in Postgres.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/metrics"
)

// Row is implemented by pointers to the model types.
type Row[E any] interface {
	*E
	EntityID() string
	SetEntityID(id string)
}

// Table provides CRUD access to one table. List is ordered the way the
// public pages show the rows.
type Table[E any] interface {
	List(ctx context.Context) ([]E, error)
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (E, error)
	// Create assigns a new id when e has none and returns ErrAlreadyExists
	// when the id is taken.
	Create(ctx context.Context, e *E) error
	// Update replaces an existing row and returns ErrNotFound otherwise.
	Update(ctx context.Context, e *E) error
	// Save inserts or replaces.
	Save(ctx context.Context, e *E) error
	Delete(ctx context.Context, id string) error
}

// Store groups every table the site uses.
type Store interface {
	Achievements() Table[model.ManualAchievement]
	Events() Table[model.ImportedEvent]
	Sponsors() Table[model.Sponsor]
	Tiers() Table[model.SponsorTier]
	Robots() Table[model.Robot]
	News() Table[model.NewsPost]
	Members() Table[model.Member]

	// NewsBySlug finds a post by its URL slug.
	NewsBySlug(ctx context.Context, slug string) (model.NewsPost, error)

	// ManualAchievements and ImportedEvents feed the achievement aggregator.
	ManualAchievements(ctx context.Context) ([]model.ManualAchievement, error)
	ImportedEvents(ctx context.Context) ([]model.ImportedEvent, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type validator interface {
	Validate() error
}

// checked wraps a backend table with id assignment, validation and
// latency metrics so both stores behave the same.
type checked[E any, P Row[E]] struct {
	name string
	next Table[E]
}

func wrap[E any, P Row[E]](name string, next Table[E]) Table[E] {
	return &checked[E, P]{name: name, next: next}
}

func (t *checked[E, P]) observe(op string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(t.name, op, float64(time.Since(start).Microseconds())/1000)
}

func (t *checked[E, P]) List(ctx context.Context) ([]E, error) {
	defer t.observe("list", time.Now())
	return t.next.List(ctx)
}

func (t *checked[E, P]) Get(ctx context.Context, id string) (E, error) {
	defer t.observe("get", time.Now())
	if id == "" {
		var zero E
		return zero, ErrInvalidID
	}
	return t.next.Get(ctx, id)
}

func (t *checked[E, P]) Create(ctx context.Context, e *E) error {
	defer t.observe("create", time.Now())
	p := P(e)
	if p.EntityID() == "" {
		p.SetEntityID(uuid.NewString())
	}
	if err := validate(p); err != nil {
		return err
	}
	return t.next.Create(ctx, e)
}

func (t *checked[E, P]) Update(ctx context.Context, e *E) error {
	defer t.observe("update", time.Now())
	p := P(e)
	if p.EntityID() == "" {
		return ErrInvalidID
	}
	if err := validate(p); err != nil {
		return err
	}
	return t.next.Update(ctx, e)
}

func (t *checked[E, P]) Save(ctx context.Context, e *E) error {
	defer t.observe("save", time.Now())
	p := P(e)
	if p.EntityID() == "" {
		return ErrInvalidID
	}
	if err := validate(p); err != nil {
		return err
	}
	return t.next.Save(ctx, e)
}

func (t *checked[E, P]) Delete(ctx context.Context, id string) error {
	defer t.observe("delete", time.Now())
	if id == "" {
		return ErrInvalidID
	}
	return t.next.Delete(ctx, id)
}

func validate(v any) error {
	if val, ok := v.(validator); ok {
		return val.Validate()
	}
	return nil
}
