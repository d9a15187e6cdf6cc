package results

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
)

const defaultConcurrency = 4

// Source is the part of Client the importer needs.
type Source interface {
	TeamEvents(ctx context.Context, team string, year int) ([]Event, error)
	EventAwards(ctx context.Context, team, eventKey string) ([]Award, error)
}

// EventWriter upserts imported events.
type EventWriter interface {
	Save(ctx context.Context, e *model.ImportedEvent) error
}

// Importer copies one season of events and awards into storage.
type Importer struct {
	source      Source
	events      EventWriter
	team        string
	concurrency int
	now         func() time.Time
	logger      logger.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithConcurrency bounds parallel award fetches.
func WithConcurrency(n int) ImporterOption {
	return func(i *Importer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithImporterLogger sets the logger.
func WithImporterLogger(l logger.Logger) ImporterOption {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithClock replaces time.Now for the synced_at stamp.
func WithClock(now func() time.Time) ImporterOption {
	return func(i *Importer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewImporter creates an importer for one team key, such as "frc254".
func NewImporter(source Source, events EventWriter, team string, opts ...ImporterOption) *Importer {
	i := &Importer{
		source:      source,
		events:      events,
		team:        team,
		concurrency: defaultConcurrency,
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.Named("importer")
	return i
}

// Sync fetches the team's events for year, then each event's awards, and
// upserts one ImportedEvent per event. An event whose awards cannot be
// fetched or whose date cannot be parsed is listed in the report's Failed
// and left untouched in storage. Failing to list events or to write a row
// aborts the run.
func (i *Importer) Sync(ctx context.Context, year int) (model.SyncReport, error) {
	start := time.Now()
	report := model.SyncReport{Year: year}
	if i.team == "" {
		return report, ErrNoTeam
	}

	events, err := i.source.TeamEvents(ctx, i.team, year)
	if err != nil {
		return report, fmt.Errorf("list events for %d: %w", year, err)
	}

	var (
		mu     sync.Mutex
		failed []string
	)
	fail := func(key string, err error) {
		i.logger.Warn(ctx, "skipping event", logger.String("event", key), logger.Error(err))
		mu.Lock()
		failed = append(failed, key)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	rows := make([]*model.ImportedEvent, len(events))
	for idx, ev := range events {
		g.Go(func() error {
			row, err := toImportedEvent(ev)
			if err != nil {
				fail(ev.Key, err)
				return nil
			}
			awards, err := i.source.EventAwards(gctx, i.team, ev.Key)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fail(ev.Key, err)
				return nil
			}
			row.Awards = awardNames(awards)
			rows[idx] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("fetch awards for %d: %w", year, err)
	}

	synced := i.now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		row.SyncedAt = &synced
		if err := i.events.Save(ctx, row); err != nil {
			return report, fmt.Errorf("save event %s: %w", row.ID, err)
		}
		report.Events++
		report.Awards += len(row.Awards)
	}

	sort.Strings(failed)
	report.Failed = failed
	report.Duration = time.Since(start)
	return report, nil
}

func toImportedEvent(ev Event) (*model.ImportedEvent, error) {
	if ev.Key == "" {
		return nil, fmt.Errorf("%w: event without key", model.ErrInvalid)
	}
	start, err := model.ParseDate(ev.StartDate)
	if err != nil {
		return nil, err
	}
	row := &model.ImportedEvent{
		ID:        ev.Key,
		Name:      ev.Name,
		Location:  ev.Location(),
		EventDate: start,
		Website:   ev.Website,
	}
	if ev.EndDate != "" {
		if end, err := model.ParseDate(ev.EndDate); err == nil && !end.Before(start.Time) {
			row.EndDate = &end
		}
	}
	return row, nil
}

// awardNames keeps the API's order and duplicates. No awards is nil.
func awardNames(awards []Award) model.AwardList {
	if len(awards) == 0 {
		return nil
	}
	names := make(model.AwardList, 0, len(awards))
	for _, a := range awards {
		names = append(names, a.Name)
	}
	return names
}
