package results

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/teamsite/internal/adapters/repository"
)

type stubSource struct {
	events    []Event
	awards    map[string][]Award
	awardErr  map[string]error
	eventsErr error
}

func (s *stubSource) TeamEvents(context.Context, string, int) ([]Event, error) {
	return s.events, s.eventsErr
}

func (s *stubSource) EventAwards(_ context.Context, _ string, key string) ([]Award, error) {
	if err := s.awardErr[key]; err != nil {
		return nil, err
	}
	return s.awards[key], nil
}

func TestImporterSync(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given a season with four events", t, func() {
		src := &stubSource{
			events: []Event{
				{Key: "2024casj", Name: "Silicon Valley", StartDate: "2024-04-01"},
				{Key: "2024cada", Name: "Sacramento", StartDate: "2024-03-14"},
				{Key: "2024bad", Name: "Broken", StartDate: "soon"},
				{Key: "2024down", Name: "Unreachable", StartDate: "2024-03-01"},
			},
			awards: map[string][]Award{
				"2024casj": {{Name: "Judges Award"}, {Name: "Judges Award"}, {Name: "Winner"}},
			},
			awardErr: map[string]error{"2024down": &APIError{Status: 500}},
		}
		store := repository.NewMemoryStore()
		imp := NewImporter(src, store.Events(), "frc9999", WithConcurrency(2), WithClock(func() time.Time { return fixed }))

		report, err := imp.Sync(ctx, 2024)

		Convey("Then good events are stored and bad ones reported", func() {
			So(err, ShouldBeNil)
			So(report.Year, ShouldEqual, 2024)
			So(report.Events, ShouldEqual, 2)
			So(report.Awards, ShouldEqual, 3)
			So(report.Failed, ShouldResemble, []string{"2024bad", "2024down"})
		})

		Convey("Then award names keep order and duplicates", func() {
			e, err := store.Events().Get(ctx, "2024casj")
			So(err, ShouldBeNil)
			So([]string(e.Awards), ShouldResemble, []string{"Judges Award", "Judges Award", "Winner"})
			So(e.SyncedAt.Equal(fixed), ShouldBeTrue)
		})

		Convey("Then an event with no awards stores a nil list", func() {
			e, err := store.Events().Get(ctx, "2024cada")
			So(err, ShouldBeNil)
			So(e.Awards, ShouldBeNil)
		})

		Convey("Then running again updates rows in place", func() {
			_, err := imp.Sync(ctx, 2024)
			So(err, ShouldBeNil)
			list, _ := store.Events().List(ctx)
			So(len(list), ShouldEqual, 2)
		})
	})

	Convey("Given the event list cannot be fetched", t, func() {
		src := &stubSource{eventsErr: errors.New("connection refused")}
		imp := NewImporter(src, repository.NewMemoryStore().Events(), "frc9999")
		_, err := imp.Sync(ctx, 2024)
		So(err, ShouldNotBeNil)
	})

	Convey("Given no team key", t, func() {
		imp := NewImporter(&stubSource{}, repository.NewMemoryStore().Events(), "")
		_, err := imp.Sync(ctx, 2024)
		So(errors.Is(err, ErrNoTeam), ShouldBeTrue)
	})
}

func TestToImportedEvent(t *testing.T) {
	Convey("An end date before the start is dropped", t, func() {
		row, err := toImportedEvent(Event{Key: "k", StartDate: "2024-04-03", EndDate: "2024-04-01"})
		So(err, ShouldBeNil)
		So(row.EndDate, ShouldBeNil)
		So(row.EventDate.String(), ShouldEqual, "2024-04-03")
	})

	Convey("Awards map to names or nil", t, func() {
		So(awardNames(nil), ShouldBeNil)
		So([]string(awardNames([]Award{{Name: "Winner"}})), ShouldResemble, []string{"Winner"})
	})
}
