package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/teamsite/internal/domain/model"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty memory store", t, func() {
		s := NewMemoryStore()

		Convey("When an achievement is created without an id", func() {
			a := &model.ManualAchievement{Year: "2019", Description: "Rookie All-Star Award"}
			So(s.Achievements().Create(ctx, a), ShouldBeNil)

			Convey("Then it gets one and can be read back", func() {
				So(a.ID, ShouldNotBeEmpty)
				got, err := s.Achievements().Get(ctx, a.ID)
				So(err, ShouldBeNil)
				So(got.Description, ShouldEqual, "Rookie All-Star Award")
			})

			Convey("Then creating it again conflicts", func() {
				So(errors.Is(s.Achievements().Create(ctx, a), ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then it can be updated and deleted", func() {
				a.Description = "Rookie Inspiration Award"
				So(s.Achievements().Update(ctx, a), ShouldBeNil)
				got, _ := s.Achievements().Get(ctx, a.ID)
				So(got.Description, ShouldEqual, "Rookie Inspiration Award")

				So(s.Achievements().Delete(ctx, a.ID), ShouldBeNil)
				_, err := s.Achievements().Get(ctx, a.ID)
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When records fail validation", func() {
			err := s.Achievements().Create(ctx, &model.ManualAchievement{Year: "last year", Description: "x"})

			Convey("Then the error is an invalid-record error", func() {
				So(errors.Is(err, model.ErrInvalid), ShouldBeTrue)
				list, _ := s.Achievements().List(ctx)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When unknown ids are used", func() {
			So(errors.Is(s.Sponsors().Update(ctx, &model.Sponsor{ID: "nope", Name: "x"}), ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.Sponsors().Delete(ctx, "nope"), ErrNotFound), ShouldBeTrue)
			_, err := s.Sponsors().Get(ctx, "")
			So(errors.Is(err, ErrInvalidID), ShouldBeTrue)
		})

		Convey("When an event is saved twice", func() {
			e := &model.ImportedEvent{ID: "2024casj", EventDate: model.NewDate(2024, time.March, 15), Awards: model.AwardList{"Winner"}}
			So(s.Events().Save(ctx, e), ShouldBeNil)
			e.Awards = model.AwardList{"Winner", "Impact Award"}
			So(s.Events().Save(ctx, e), ShouldBeNil)

			Convey("Then the second write wins", func() {
				got, err := s.Events().Get(ctx, "2024casj")
				So(err, ShouldBeNil)
				So([]string(got.Awards), ShouldResemble, []string{"Winner", "Impact Award"})
			})

			Convey("Then callers cannot mutate stored awards", func() {
				got, _ := s.Events().Get(ctx, "2024casj")
				got.Awards[0] = "changed"
				again, _ := s.Events().Get(ctx, "2024casj")
				So(again.Awards[0], ShouldEqual, "Winner")
			})
		})
	})
}

func TestMemoryStoreOrdering(t *testing.T) {
	ctx := context.Background()

	Convey("Given rows inserted out of order", t, func() {
		s := NewMemoryStore()
		for _, e := range []model.ImportedEvent{
			{ID: "a", EventDate: model.NewDate(2022, time.March, 1)},
			{ID: "b", EventDate: model.NewDate(2024, time.March, 1), Awards: model.AwardList{}},
			{ID: "c", EventDate: model.NewDate(2023, time.March, 1)},
		} {
			e := e
			So(s.Events().Save(ctx, &e), ShouldBeNil)
		}
		for _, sp := range []model.Sponsor{
			{ID: "1", Name: "Small", Amount: decimal.NewFromInt(100)},
			{ID: "2", Name: "Big", Amount: decimal.NewFromInt(9000)},
		} {
			sp := sp
			So(s.Sponsors().Create(ctx, &sp), ShouldBeNil)
		}
		for _, m := range []model.Member{
			{ID: "x", Name: "Zoe", SortOrder: 1},
			{ID: "y", Name: "Ari", SortOrder: 2},
			{ID: "z", Name: "Ben", SortOrder: 1},
		} {
			m := m
			So(s.Members().Create(ctx, &m), ShouldBeNil)
		}

		Convey("Then events list newest first", func() {
			events, err := s.ImportedEvents(ctx)
			So(err, ShouldBeNil)
			So(events[0].ID, ShouldEqual, "b")
			So(events[2].ID, ShouldEqual, "a")
		})

		Convey("Then sponsors list largest first", func() {
			list, _ := s.Sponsors().List(ctx)
			So(list[0].Name, ShouldEqual, "Big")
		})

		Convey("Then members list by sort order then name", func() {
			list, _ := s.Members().List(ctx)
			So(list[0].Name, ShouldEqual, "Ben")
			So(list[1].Name, ShouldEqual, "Zoe")
			So(list[2].Name, ShouldEqual, "Ari")
		})
	})
}

func TestMemoryStoreNewsBySlug(t *testing.T) {
	ctx := context.Background()

	Convey("Given a published post", t, func() {
		s := NewMemoryStore()
		p := &model.NewsPost{Title: "Kickoff 2025", Body: "# Hello"}
		So(s.News().Create(ctx, p), ShouldBeNil)

		Convey("Then it is found by its derived slug", func() {
			got, err := s.NewsBySlug(ctx, "kickoff-2025")
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, p.ID)
		})

		Convey("Then unknown slugs are not found", func() {
			_, err := s.NewsBySlug(ctx, "missing")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}
