package site_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/teamsite/internal/adapters/http/site"
	"github.com/okian/teamsite/internal/adapters/repository"
	service "github.com/okian/teamsite/internal/app"
	"github.com/okian/teamsite/internal/domain/model"
)

type deps struct {
	*repository.MemoryStore
}

func (d deps) Store() repository.Store { return d.MemoryStore }

func (d deps) Achievements(ctx context.Context) ([]model.AwardRecord, error) {
	return service.LoadAchievements(ctx, d.MemoryStore)
}

func (d deps) SponsorsByTier(ctx context.Context) ([]model.TierGroup, error) {
	return service.LoadSponsorGroups(ctx, d.MemoryStore)
}

var today = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func seeded() deps {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	So(store.Achievements().Create(ctx, &model.ManualAchievement{ID: "m1", Year: "2019", Description: "Rookie All-Star Award"}), ShouldBeNil)
	So(store.Events().Create(ctx, &model.ImportedEvent{
		ID: "2023casj", Name: "Silicon Valley Regional", Location: "San Jose, CA",
		EventDate: model.NewDate(2023, time.March, 30), Awards: model.AwardList{"Impact Award"},
	}), ShouldBeNil)
	So(store.Events().Create(ctx, &model.ImportedEvent{
		ID: "2024cada", Name: "Sacramento Regional",
		EventDate: model.NewDate(2024, time.April, 4),
	}), ShouldBeNil)
	So(store.Tiers().Create(ctx, &model.SponsorTier{TierID: "gold", Name: "Gold", Price: "$5,000+", Perks: "Logo on robot"}), ShouldBeNil)
	So(store.Sponsors().Create(ctx, &model.Sponsor{ID: "s1", Name: "Acme Robotics", Amount: decimal.NewFromInt(7500), Website: "https://acme.example"}), ShouldBeNil)
	So(store.Sponsors().Create(ctx, &model.Sponsor{ID: "s2", Name: "Parent Club", Amount: decimal.NewFromInt(50)}), ShouldBeNil)
	So(store.Robots().Create(ctx, &model.Robot{ID: "r1", Name: "Bolt", Year: 2024, Game: "Crescendo"}), ShouldBeNil)
	So(store.Members().Create(ctx, &model.Member{ID: "p1", Name: "Ada", Role: "Captain"}), ShouldBeNil)
	So(store.News().Create(ctx, &model.NewsPost{
		ID: "n1", Title: "Week 1 Recap", Summary: "A strong start.",
		Body:        "We **won** our first match.\n\n<script>alert(1)</script>",
		PublishedAt: today.Add(-24 * time.Hour),
	}), ShouldBeNil)
	So(store.News().Create(ctx, &model.NewsPost{
		ID: "n2", Title: "Championship Preview", PublishedAt: today.Add(30 * 24 * time.Hour),
	}), ShouldBeNil)
	return deps{store}
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSitePages(t *testing.T) {
	Convey("Given a site over a seeded store", t, func() {
		s, err := site.New(seeded(), site.WithTeamName("Team 9999"), site.WithClock(func() time.Time { return today }))
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		s.Register(context.Background(), mux)

		Convey("The home page lists upcoming events, awards and published news", func() {
			w := get(mux, "/")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			body := w.Body.String()
			So(body, ShouldContainSubstring, "<title>Team 9999</title>")
			So(body, ShouldContainSubstring, "Sacramento Regional")
			So(body, ShouldContainSubstring, "Impact Award")
			So(body, ShouldContainSubstring, "Week 1 Recap")
			So(body, ShouldNotContainSubstring, "Championship Preview")
		})

		Convey("The sponsors page groups by tier with the unclassified last", func() {
			body := get(mux, "/sponsors").Body.String()
			So(body, ShouldContainSubstring, "Gold <small>$5,000+</small>")
			So(body, ShouldContainSubstring, "Logo on robot")
			So(strings.Index(body, "Acme Robotics"), ShouldBeLessThan, strings.Index(body, "Parent Club"))
			So(body, ShouldContainSubstring, "Friends of the team")
		})

		Convey("The events page splits past from upcoming and lists awards", func() {
			body := get(mux, "/events").Body.String()
			So(strings.Index(body, "Sacramento Regional"), ShouldBeLessThan, strings.Index(body, "Silicon Valley Regional"))
			So(body, ShouldContainSubstring, "<td>2023</td><td>Impact Award</td>")
			So(body, ShouldContainSubstring, "<td>2019</td><td>Rookie All-Star Award</td>")
		})

		Convey("Robots and members render", func() {
			So(get(mux, "/robots").Body.String(), ShouldContainSubstring, "Crescendo")
			So(get(mux, "/about").Body.String(), ShouldContainSubstring, "Captain")
		})

		Convey("A news post renders sanitized markdown", func() {
			w := get(mux, "/news/week-1-recap")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := w.Body.String()
			So(body, ShouldContainSubstring, "<strong>won</strong>")
			So(body, ShouldNotContainSubstring, "<script>alert(1)</script>")
		})

		Convey("Unknown and scheduled posts are not found", func() {
			So(get(mux, "/news/nope").Code, ShouldEqual, http.StatusNotFound)
			So(get(mux, "/news/championship-preview").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("The news index hides scheduled posts", func() {
			body := get(mux, "/news").Body.String()
			So(body, ShouldContainSubstring, "Week 1 Recap")
			So(body, ShouldNotContainSubstring, "Championship Preview")
		})

		Convey("Static assets are served", func() {
			w := get(mux, "/static/site.css")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
		})

		Convey("Unknown paths are not found", func() {
			So(get(mux, "/does-not-exist").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMarkdown(t *testing.T) {
	Convey("Given the news renderer", t, func() {
		md := site.NewMarkdown()

		Convey("Tables from the extended syntax render", func() {
			out, err := md.Render("| a | b |\n|---|---|\n| 1 | 2 |\n")
			So(err, ShouldBeNil)
			So(string(out), ShouldContainSubstring, "<table>")
		})

		Convey("Script links are stripped", func() {
			out, err := md.Render("[click](javascript:alert(1))")
			So(err, ShouldBeNil)
			So(string(out), ShouldNotContainSubstring, "javascript:")
		})
	})
}
