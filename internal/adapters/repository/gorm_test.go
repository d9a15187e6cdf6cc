package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/teamsite/internal/domain/model"
)

// Runs against a real database when TEAMSITE_TEST_DSN is set.
func TestGormStore(t *testing.T) {
	dsn := os.Getenv("TEAMSITE_TEST_DSN")
	if dsn == "" {
		t.Skip("TEAMSITE_TEST_DSN not set")
	}
	ctx := context.Background()

	s, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	Convey("Given a migrated database", t, func() {
		So(s.Ping(ctx), ShouldBeNil)

		Convey("Award lists keep the difference between null and empty", func() {
			withNull := &model.ImportedEvent{ID: "test-null", EventDate: model.NewDate(2019, time.March, 1)}
			withEmpty := &model.ImportedEvent{ID: "test-empty", EventDate: model.NewDate(2019, time.March, 2), Awards: model.AwardList{}}
			withTwo := &model.ImportedEvent{ID: "test-two", EventDate: model.NewDate(2024, time.April, 1), Awards: model.AwardList{"Impact Award", "Safety Award"}}
			for _, e := range []*model.ImportedEvent{withNull, withEmpty, withTwo} {
				So(s.Events().Save(ctx, e), ShouldBeNil)
			}
			defer func() {
				for _, id := range []string{"test-null", "test-empty", "test-two"} {
					_ = s.Events().Delete(ctx, id)
				}
			}()

			got, err := s.Events().Get(ctx, "test-null")
			So(err, ShouldBeNil)
			So(got.Awards, ShouldBeNil)

			got, err = s.Events().Get(ctx, "test-empty")
			So(err, ShouldBeNil)
			So(got.Awards, ShouldNotBeNil)
			So(got.Awards, ShouldBeEmpty)

			got, err = s.Events().Get(ctx, "test-two")
			So(err, ShouldBeNil)
			So([]string(got.Awards), ShouldResemble, []string{"Impact Award", "Safety Award"})
			So(got.EventDate.String(), ShouldEqual, "2024-04-01")
		})

		Convey("CRUD errors map to repository kinds", func() {
			a := &model.ManualAchievement{Year: "2019", Description: "Rookie All-Star Award"}
			So(s.Achievements().Create(ctx, a), ShouldBeNil)
			defer func() { _ = s.Achievements().Delete(ctx, a.ID) }()

			So(errors.Is(s.Achievements().Create(ctx, a), ErrAlreadyExists), ShouldBeTrue)
			So(errors.Is(s.Achievements().Update(ctx, &model.ManualAchievement{ID: "missing", Year: "2020", Description: "x"}), ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.Achievements().Delete(ctx, "missing"), ErrNotFound), ShouldBeTrue)
		})
	})
}
