package site

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/okian/teamsite/internal/domain/model"
)

type homeData struct {
	News         []model.NewsPost
	Achievements []model.AwardRecord
	Upcoming     []model.ImportedEvent
}

func (s *Site) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data homeData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		news, err := s.deps.Store().News().List(gctx)
		data.News = head(s.published(news), homeNews)
		return err
	})
	g.Go(func() error {
		list, err := s.deps.Achievements(gctx)
		data.Achievements = head(list, homeAchievements)
		return err
	})
	g.Go(func() error {
		events, err := s.deps.Store().Events().List(gctx)
		data.Upcoming, _ = s.splitEvents(events)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "home", "", data)
}

func (s *Site) handleSponsors(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.SponsorsByTier(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "sponsors", "Sponsors", groups)
}

type eventsData struct {
	Upcoming []model.ImportedEvent
	Past     []model.ImportedEvent
	Awards   []model.AwardRecord
}

func (s *Site) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data eventsData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := s.deps.Store().Events().List(gctx)
		data.Upcoming, data.Past = s.splitEvents(events)
		return err
	})
	g.Go(func() error {
		list, err := s.deps.Achievements(gctx)
		data.Awards = list
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "events", "Events & Awards", data)
}

func (s *Site) handleRobots(w http.ResponseWriter, r *http.Request) {
	robots, err := s.deps.Store().Robots().List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "robots", "Robots", robots)
}

func (s *Site) handleAbout(w http.ResponseWriter, r *http.Request) {
	members, err := s.deps.Store().Members().List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "about", "About", members)
}

func (s *Site) handleNewsIndex(w http.ResponseWriter, r *http.Request) {
	news, err := s.deps.Store().News().List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, "news", "News", s.published(news))
}

func (s *Site) handleNewsPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.deps.Store().NewsBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if post.PublishedAt.After(s.now()) {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, "post", post.Title, post)
}

// splitEvents divides events, already sorted newest first, into those that
// have not ended and those that have. Upcoming events come out soonest
// first.
func (s *Site) splitEvents(events []model.ImportedEvent) (upcoming, past []model.ImportedEvent) {
	y, m, d := s.now().Date()
	today := model.NewDate(y, m, d)
	for _, e := range events {
		end := e.EventDate
		if e.EndDate != nil {
			end = *e.EndDate
		}
		if end.Before(today.Time) {
			past = append(past, e)
			continue
		}
		upcoming = append(upcoming, e)
	}
	for i, j := 0, len(upcoming)-1; i < j; i, j = i+1, j-1 {
		upcoming[i], upcoming[j] = upcoming[j], upcoming[i]
	}
	return upcoming, past
}

// published drops posts scheduled for later.
func (s *Site) published(news []model.NewsPost) []model.NewsPost {
	now := s.now()
	out := make([]model.NewsPost, 0, len(news))
	for _, n := range news {
		if !n.PublishedAt.After(now) {
			out = append(out, n)
		}
	}
	return out
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}
