package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/teamsite/internal/app"
	"github.com/okian/teamsite/internal/adapters/repository"
	"github.com/okian/teamsite/internal/domain/model"
)

type blockingImporter struct {
	mu      sync.Mutex
	years   []int
	started chan int
	release chan struct{}
}

func newBlockingImporter() *blockingImporter {
	return &blockingImporter{started: make(chan int, 16), release: make(chan struct{})}
}

func (b *blockingImporter) Sync(ctx context.Context, year int) (model.SyncReport, error) {
	select {
	case b.started <- year:
	default:
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return model.SyncReport{Year: year}, ctx.Err()
	}
	b.mu.Lock()
	b.years = append(b.years, year)
	b.mu.Unlock()
	return model.SyncReport{Year: year, Events: 1, Awards: 2}, nil
}

func waitYear(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case y := <-ch:
		return y
	case <-time.After(2 * time.Second):
		t.Fatal("importer was never called")
		return 0
	}
}

func stop(svc *service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = svc.Stop(ctx)
}

var spring2024 = func() time.Time { return time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC) }

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(repository.NewMemoryStore(), nil)

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["syncEnabled"], ShouldEqual, false)
		})

		Convey("When started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			stop(svc)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When a sync is requested without an importer", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			defer stop(svc)
			_, err := svc.EnqueueSync(context.Background(), 2024, "admin")
			So(errors.Is(err, service.ErrSyncDisabled), ShouldBeTrue)
		})
	})
}

func TestService_Achievements(t *testing.T) {
	ctx := context.Background()

	Convey("Given stored achievements and events", t, func() {
		store := repository.NewMemoryStore()
		So(store.Achievements().Create(ctx, &model.ManualAchievement{ID: "m1", Year: "2019", Description: "Rookie All-Star Award"}), ShouldBeNil)
		So(store.Events().Save(ctx, &model.ImportedEvent{ID: "e1", EventDate: model.NewDate(2024, time.April, 1), Awards: model.AwardList{"Safety Award", "Impact Award"}}), ShouldBeNil)
		So(store.Events().Save(ctx, &model.ImportedEvent{ID: "e2", EventDate: model.NewDate(2019, time.March, 1)}), ShouldBeNil)
		svc := service.New(store, nil)

		Convey("When aggregating", func() {
			records, err := svc.Achievements(ctx)

			Convey("Then both sources are merged and sorted", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				So(records[0].Description, ShouldEqual, "Impact Award")
				So(records[0].ID, ShouldEqual, "e1-1-Impact Award")
				So(records[1].Description, ShouldEqual, "Safety Award")
				So(records[2].ID, ShouldEqual, "m1")
				So(records[2].Source, ShouldEqual, model.AwardSourceManual)
			})
		})
	})

	Convey("Given a source that fails", t, func() {
		_, err := service.LoadAchievements(ctx, failingSource{})
		So(err, ShouldNotBeNil)
	})
}

type failingSource struct{}

func (failingSource) ManualAchievements(context.Context) ([]model.ManualAchievement, error) {
	return nil, nil
}

func (failingSource) ImportedEvents(context.Context) ([]model.ImportedEvent, error) {
	return nil, errors.New("database unavailable")
}

func TestService_SponsorsByTier(t *testing.T) {
	ctx := context.Background()

	Convey("Given tiers and sponsors", t, func() {
		store := repository.NewMemoryStore()
		So(store.Tiers().Create(ctx, &model.SponsorTier{TierID: "bronze", Name: "Bronze", Price: "$500"}), ShouldBeNil)
		So(store.Tiers().Create(ctx, &model.SponsorTier{TierID: "gold", Name: "Gold", Price: "$1,000"}), ShouldBeNil)
		So(store.Sponsors().Create(ctx, &model.Sponsor{Name: "Acme", Amount: decimal.NewFromInt(1000)}), ShouldBeNil)
		So(store.Sponsors().Create(ctx, &model.Sponsor{Name: "Bolt", Amount: decimal.NewFromInt(999)}), ShouldBeNil)
		So(store.Sponsors().Create(ctx, &model.Sponsor{Name: "Cog", Amount: decimal.NewFromInt(499)}), ShouldBeNil)

		groups, err := service.New(store, nil).SponsorsByTier(ctx)

		Convey("Then each sponsor lands in its tier", func() {
			So(err, ShouldBeNil)
			So(len(groups), ShouldEqual, 3)
			So(groups[0].Tier.TierID, ShouldEqual, "gold")
			So(groups[0].Sponsors[0].Name, ShouldEqual, "Acme")
			So(groups[1].Tier.TierID, ShouldEqual, "bronze")
			So(groups[1].Sponsors[0].Name, ShouldEqual, "Bolt")
			So(groups[2].Tier, ShouldBeNil)
			So(groups[2].Sponsors[0].Name, ShouldEqual, "Cog")
		})
	})
}

func TestService_EnqueueSync(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service with one worker and room for one job", t, func() {
		imp := newBlockingImporter()
		svc := service.New(repository.NewMemoryStore(), imp,
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithClock(spring2024),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer stop(svc)
		defer close(imp.release)

		Convey("When the year is out of range", func() {
			_, err := svc.EnqueueSync(ctx, 1980, "admin")
			So(errors.Is(err, service.ErrInvalidYear), ShouldBeTrue)
			_, err = svc.EnqueueSync(ctx, 2030, "admin")
			So(errors.Is(err, service.ErrInvalidYear), ShouldBeTrue)
		})

		Convey("When the same season is requested while it runs", func() {
			job, err := svc.EnqueueSync(ctx, 2024, "admin")
			So(err, ShouldBeNil)
			So(job.Key(), ShouldEqual, "season:2024")
			So(waitYear(t, imp.started), ShouldEqual, 2024)

			_, err = svc.EnqueueSync(ctx, 2024, "admin")
			So(errors.Is(err, service.ErrSyncInFlight), ShouldBeTrue)
			So(svc.GetStats()["inFlight"], ShouldResemble, []string{"season:2024"})
		})

		Convey("When the queue is full", func() {
			_, err := svc.EnqueueSync(ctx, 2023, "admin")
			So(err, ShouldBeNil)
			waitYear(t, imp.started)
			_, err = svc.EnqueueSync(ctx, 2022, "admin")
			So(err, ShouldBeNil)

			_, err = svc.EnqueueSync(ctx, 2021, "admin")

			Convey("Then the request is rejected and the season released", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
				So(svc.GetStats()["inFlight"], ShouldResemble, []string{"season:2022", "season:2023"})
			})
		})
	})

	Convey("Given a job that finishes", t, func() {
		imp := newBlockingImporter()
		close(imp.release)
		svc := service.New(repository.NewMemoryStore(), imp, service.WithClock(spring2024))
		So(svc.Start(ctx), ShouldBeNil)
		defer stop(svc)

		_, err := svc.EnqueueSync(ctx, 2024, "admin")
		So(err, ShouldBeNil)
		waitYear(t, imp.started)

		Convey("Then its status is recorded and the season can be synced again", func() {
			deadline := time.Now().Add(2 * time.Second)
			for len(svc.SyncStatuses()) == 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			statuses := svc.SyncStatuses()
			So(len(statuses), ShouldEqual, 1)
			So(statuses[0].Report.Awards, ShouldEqual, 2)
			So(statuses[0].Error, ShouldBeEmpty)

			_, err := svc.EnqueueSync(ctx, 2024, "admin")
			So(err, ShouldBeNil)
		})
	})
}

func TestService_ScheduledSync(t *testing.T) {
	Convey("Given a service with a short sync interval", t, func() {
		imp := newBlockingImporter()
		close(imp.release)
		svc := service.New(repository.NewMemoryStore(), imp,
			service.WithSyncInterval(10*time.Millisecond),
			service.WithClock(spring2024),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer stop(svc)

		Convey("Then the current season is imported on its own", func() {
			So(waitYear(t, imp.started), ShouldEqual, 2024)
		})
	})
}
