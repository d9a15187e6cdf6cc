package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/okian/teamsite/internal/domain/model"
)

// MemoryStore keeps every table in process memory. It backs local
// development, tests and the default configuration.
type MemoryStore struct {
	achievements Table[model.ManualAchievement]
	events       Table[model.ImportedEvent]
	sponsors     Table[model.Sponsor]
	tiers        Table[model.SponsorTier]
	robots       Table[model.Robot]
	news         Table[model.NewsPost]
	members      Table[model.Member]

	newsRaw *memoryTable[model.NewsPost, *model.NewsPost]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	news := newMemoryTable[model.NewsPost](func(a, b model.NewsPost) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	}, nil)
	return &MemoryStore{
		achievements: wrap[model.ManualAchievement]("achievements", newMemoryTable[model.ManualAchievement](
			func(a, b model.ManualAchievement) int {
				if c := strings.Compare(b.Year, a.Year); c != 0 {
					return c
				}
				return strings.Compare(a.Description, b.Description)
			}, nil)),
		events: wrap[model.ImportedEvent]("events", newMemoryTable[model.ImportedEvent](
			func(a, b model.ImportedEvent) int {
				return b.EventDate.Compare(a.EventDate.Time)
			}, cloneEvent)),
		sponsors: wrap[model.Sponsor]("sponsors", newMemoryTable[model.Sponsor](
			func(a, b model.Sponsor) int {
				if c := b.Amount.Cmp(a.Amount); c != 0 {
					return c
				}
				return strings.Compare(a.Name, b.Name)
			}, nil)),
		tiers: wrap[model.SponsorTier]("sponsor_tiers", newMemoryTable[model.SponsorTier](
			func(a, b model.SponsorTier) int { return 0 }, nil)),
		robots: wrap[model.Robot]("robots", newMemoryTable[model.Robot](
			func(a, b model.Robot) int {
				if c := cmp.Compare(b.Year, a.Year); c != 0 {
					return c
				}
				return strings.Compare(a.Name, b.Name)
			}, nil)),
		news: wrap[model.NewsPost]("news_posts", news),
		members: wrap[model.Member]("members", newMemoryTable[model.Member](
			func(a, b model.Member) int {
				if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
					return c
				}
				return strings.Compare(a.Name, b.Name)
			}, nil)),
		newsRaw: news,
	}
}

func (s *MemoryStore) Achievements() Table[model.ManualAchievement] { return s.achievements }
func (s *MemoryStore) Events() Table[model.ImportedEvent]           { return s.events }
func (s *MemoryStore) Sponsors() Table[model.Sponsor]               { return s.sponsors }
func (s *MemoryStore) Tiers() Table[model.SponsorTier]              { return s.tiers }
func (s *MemoryStore) Robots() Table[model.Robot]                   { return s.robots }
func (s *MemoryStore) News() Table[model.NewsPost]                  { return s.news }
func (s *MemoryStore) Members() Table[model.Member]                 { return s.members }

func (s *MemoryStore) NewsBySlug(_ context.Context, slug string) (model.NewsPost, error) {
	s.newsRaw.mu.RLock()
	defer s.newsRaw.mu.RUnlock()
	for _, p := range s.newsRaw.rows {
		if p.Slug == slug {
			return p, nil
		}
	}
	return model.NewsPost{}, ErrNotFound
}

func (s *MemoryStore) ManualAchievements(ctx context.Context) ([]model.ManualAchievement, error) {
	return s.achievements.List(ctx)
}

func (s *MemoryStore) ImportedEvents(ctx context.Context) ([]model.ImportedEvent, error) {
	return s.events.List(ctx)
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Ping(context.Context) error    { return nil }
func (s *MemoryStore) Close() error                  { return nil }

// memoryTable is a map guarded by a RWMutex. Rows are copied in and out so
// callers never share slices with the store.
type memoryTable[E any, P Row[E]] struct {
	mu    sync.RWMutex
	rows  map[string]E
	order func(a, b E) int
	clone func(E) E
}

func newMemoryTable[E any, P Row[E]](order func(a, b E) int, clone func(E) E) *memoryTable[E, P] {
	if clone == nil {
		clone = func(e E) E { return e }
	}
	return &memoryTable[E, P]{rows: make(map[string]E), order: order, clone: clone}
}

func (t *memoryTable[E, P]) List(context.Context) ([]E, error) {
	t.mu.RLock()
	out := make([]E, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, t.clone(r))
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b E) int {
		if c := t.order(a, b); c != 0 {
			return c
		}
		return strings.Compare(P(&a).EntityID(), P(&b).EntityID())
	})
	return out, nil
}

func (t *memoryTable[E, P]) Get(_ context.Context, id string) (E, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rows[id]
	if !ok {
		var zero E
		return zero, ErrNotFound
	}
	return t.clone(r), nil
}

func (t *memoryTable[E, P]) Create(_ context.Context, e *E) error {
	id := P(e).EntityID()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return ErrAlreadyExists
	}
	t.rows[id] = t.clone(*e)
	return nil
}

func (t *memoryTable[E, P]) Update(_ context.Context, e *E) error {
	id := P(e).EntityID()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	t.rows[id] = t.clone(*e)
	return nil
}

func (t *memoryTable[E, P]) Save(_ context.Context, e *E) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[P(e).EntityID()] = t.clone(*e)
	return nil
}

func (t *memoryTable[E, P]) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func cloneEvent(e model.ImportedEvent) model.ImportedEvent {
	if e.Awards != nil {
		e.Awards = slices.Clone(e.Awards)
	}
	if e.EndDate != nil {
		end := *e.EndDate
		e.EndDate = &end
	}
	return e
}
