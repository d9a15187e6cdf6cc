// Package service wires storage, the domain rules and the results sync
// pipeline into the operations the HTTP API and CLI call.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	syncqueue "github.com/okian/teamsite/internal/adapters/mq/queue"
	workerpool "github.com/okian/teamsite/internal/adapters/mq/worker"
	"github.com/okian/teamsite/internal/adapters/repository"
	"github.com/okian/teamsite/internal/domain/achievements"
	"github.com/okian/teamsite/internal/domain/dedupe"
	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/internal/domain/sponsors"
	"github.com/okian/teamsite/pkg/logger"
	"github.com/okian/teamsite/pkg/metrics"
)

// firstSeason is the earliest year the results API knows about.
const firstSeason = 1992

// AchievementSource supplies the two inputs of the achievement aggregator.
type AchievementSource interface {
	ManualAchievements(ctx context.Context) ([]model.ManualAchievement, error)
	ImportedEvents(ctx context.Context) ([]model.ImportedEvent, error)
}

// SponsorSource supplies sponsors and tiers.
type SponsorSource interface {
	Sponsors() repository.Table[model.Sponsor]
	Tiers() repository.Table[model.SponsorTier]
}

// SyncStatus is the outcome of the last finished job for a season.
type SyncStatus struct {
	Job        model.SyncJob    `json:"job"`
	Report     model.SyncReport `json:"report"`
	Error      string           `json:"error,omitempty"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Service implements the API dependencies for the team site.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	importer workerpool.Importer
	deduper  dedupe.Deduper
	queue    syncqueue.Queue
	pool     *workerpool.Pool

	workerCount  int
	queueSize    int
	dedupeSize   int
	jobTimeout   time.Duration
	syncInterval time.Duration
	now          func() time.Time

	statusMu sync.RWMutex
	status   map[int]SyncStatus

	started bool
	cancel  context.CancelFunc
	loops   sync.WaitGroup

	base   logger.Logger
	logger logger.Logger
}

// New constructs a Service over store. importer may be nil when no results
// API is configured; sync requests then fail with ErrSyncDisabled.
func New(store repository.Store, importer workerpool.Importer, opts ...Option) *Service {
	s := &Service{
		store:       store,
		importer:    importer,
		workerCount: 2,
		queueSize:   64,
		dedupeSize:  1024,
		jobTimeout:  2 * time.Minute,
		now:         time.Now,
		status:      make(map[int]SyncStatus),
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.base = s.logger
	s.logger = s.logger.Named("service")
	return s
}

// Store exposes the tables for CRUD handlers.
func (s *Service) Store() repository.Store { return s.store }

// Start builds the sync pipeline and, if configured, the scheduled sync.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting team site service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithTTL(2*s.jobTimeout),
	)
	q := syncqueue.NewInMemoryQueue(syncqueue.WithCapacity(s.queueSize))
	s.queue = q

	if s.importer != nil {
		s.pool = workerpool.NewPool(s.workerCount, q, s.importer,
			workerpool.WithLogger(s.base),
			workerpool.WithJobTimeout(s.jobTimeout),
			workerpool.WithOnDone(s.jobDone),
		)
		s.pool.Start(runCtx)

		if s.syncInterval > 0 {
			s.loops.Add(1)
			go s.scheduleLoop(runCtx)
		}
	}

	s.started = true
	s.logger.Info(ctx, "team site service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("syncEnabled", s.importer != nil),
		logger.Duration("syncInterval", s.syncInterval),
	)
	return nil
}

// Stop drains queued jobs, stops the workers and the scheduler.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping team site service...")

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	} else {
		err = s.queue.Close()
	}
	s.cancel()
	s.loops.Wait()

	s.logger.Info(ctx, "team site service stopped")
	return err
}

// Achievements loads both sources in parallel and aggregates them.
func (s *Service) Achievements(ctx context.Context) ([]model.AwardRecord, error) {
	return LoadAchievements(ctx, s.store)
}

// LoadAchievements fetches the aggregator's inputs from src and aggregates.
func LoadAchievements(ctx context.Context, src AchievementSource) ([]model.AwardRecord, error) {
	var (
		manual []model.ManualAchievement
		events []model.ImportedEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		manual, err = src.ManualAchievements(gctx)
		return err
	})
	g.Go(func() (err error) {
		events, err = src.ImportedEvents(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}

	records := achievements.Aggregate(manual, events)
	metrics.UpdateAchievementsAggregated(len(records))
	return records, nil
}

// SponsorsByTier groups sponsors under their tiers, highest first.
func (s *Service) SponsorsByTier(ctx context.Context) ([]model.TierGroup, error) {
	return LoadSponsorGroups(ctx, s.store)
}

// LoadSponsorGroups fetches sponsors and tiers from src and groups them.
func LoadSponsorGroups(ctx context.Context, src SponsorSource) ([]model.TierGroup, error) {
	var (
		list  []model.Sponsor
		tiers []model.SponsorTier
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		list, err = src.Sponsors().List(gctx)
		return err
	})
	g.Go(func() (err error) {
		tiers, err = src.Tiers().List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load sponsors: %w", err)
	}

	groups := sponsors.Group(list, tiers)
	metrics.UpdateSponsorsUnclassified(sponsors.Unclassified(groups))
	return groups, nil
}

// EnqueueSync asks the worker pool to import one season. A season already
// queued or running yields ErrSyncInFlight; a full queue ErrBackpressure.
func (s *Service) EnqueueSync(ctx context.Context, year int, reason string) (model.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.SyncJob{}, ErrNotStarted
	}
	if s.importer == nil {
		return model.SyncJob{}, ErrSyncDisabled
	}
	if year < firstSeason || year > s.now().Year()+1 {
		return model.SyncJob{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}

	job := model.SyncJob{
		ID:          uuid.NewString(),
		Year:        year,
		Reason:      reason,
		RequestedAt: s.now().UTC(),
	}
	if s.deduper.SeenAndRecord(ctx, job.Key()) {
		metrics.RecordSyncDuplicate()
		s.logger.Debug(ctx, "sync already in flight", logger.String("key", job.Key()))
		return job, ErrSyncInFlight
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, job.Key())
		if errors.Is(err, syncqueue.ErrFull) {
			return job, ErrBackpressure
		}
		return job, fmt.Errorf("enqueue sync: %w", err)
	}

	metrics.RecordSyncEnqueued()
	s.logger.Info(ctx, "sync enqueued",
		logger.String("job", job.ID),
		logger.Int("year", year),
		logger.String("reason", reason),
	)
	return job, nil
}

// jobDone releases the season and remembers the outcome.
func (s *Service) jobDone(ctx context.Context, job model.SyncJob, report model.SyncReport, err error) {
	s.deduper.Unrecord(ctx, job.Key())

	st := SyncStatus{Job: job, Report: report, FinishedAt: s.now().UTC()}
	if err != nil {
		st.Error = err.Error()
	}
	s.statusMu.Lock()
	s.status[job.Year] = st
	s.statusMu.Unlock()
}

// SyncStatuses returns the last outcome per season, newest season first.
func (s *Service) SyncStatuses() []SyncStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	out := make([]SyncStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b SyncStatus) int { return b.Job.Year - a.Job.Year })
	return out
}

func (s *Service) scheduleLoop(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			year := s.now().Year()
			_, err := s.EnqueueSync(ctx, year, "schedule")
			switch {
			case err == nil, errors.Is(err, ErrSyncInFlight):
			case errors.Is(err, ErrNotStarted):
				return
			default:
				metrics.RecordErrorByComponent("scheduler", "enqueue_error")
				s.logger.Warn(ctx, "scheduled sync not queued", logger.Int("year", year), logger.Error(err))
			}
		}
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"syncEnabled": s.importer != nil,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	stats["queueLength"] = s.queue.Len(ctx)
	stats["inFlight"] = s.deduper.Keys()
	if s.pool != nil {
		total, failed := s.pool.Processed()
		stats["jobsProcessed"] = total
		stats["jobsFailed"] = failed
	}
	stats["lastSync"] = s.SyncStatuses()
	return stats
}
