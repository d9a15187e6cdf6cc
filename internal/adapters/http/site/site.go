// Package site renders the public pages of the team website from embedded
// templates.
package site

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/teamsite/internal/adapters/repository"
	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
	"github.com/okian/teamsite/pkg/metrics"
)

// Error constants
var (
	ErrTemplate = errors.New("site template failed")
	ErrRender   = errors.New("site render failed")
)

const (
	homeNews         = 3
	homeAchievements = 5
)

// Dependencies is what the pages read from. *service.Service implements it.
type Dependencies interface {
	Store() repository.Store
	Achievements(ctx context.Context) ([]model.AwardRecord, error)
	SponsorsByTier(ctx context.Context) ([]model.TierGroup, error)
}

// Site serves the public pages.
type Site struct {
	deps     Dependencies
	pages    map[string]*template.Template
	markdown *Markdown
	teamName string
	now      func() time.Time
	logger   logger.Logger
}

// New parses the embedded templates. It fails only if a template is broken.
func New(deps Dependencies, opts ...Option) (*Site, error) {
	s := &Site{
		deps:     deps,
		markdown: NewMarkdown(),
		teamName: "Robotics Team",
		now:      time.Now,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("site")

	pages, err := parsePages(s.markdown)
	if err != nil {
		return nil, err
	}
	s.pages = pages
	return s, nil
}

// Register attaches the page routes to mux.
func (s *Site) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /{$}", s.observe(s.handleHome, "site_home"))
	mux.HandleFunc("GET /sponsors", s.observe(s.handleSponsors, "site_sponsors"))
	mux.HandleFunc("GET /events", s.observe(s.handleEvents, "site_events"))
	mux.HandleFunc("GET /robots", s.observe(s.handleRobots, "site_robots"))
	mux.HandleFunc("GET /about", s.observe(s.handleAbout, "site_about"))
	mux.HandleFunc("GET /news", s.observe(s.handleNewsIndex, "site_news"))
	mux.HandleFunc("GET /news/{slug}", s.observe(s.handleNewsPost, "site_news_post"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(StaticFS())))
}

// pageData is the value every template receives.
type pageData struct {
	Team  string
	Title string
	Path  string
	Year  int
	Data  any
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.fail(w, r, errors.Join(ErrTemplate, errors.New("no page "+name)))
		return
	}

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "layout", pageData{
		Team:  s.teamName,
		Title: title,
		Path:  r.URL.Path,
		Year:  s.now().Year(),
		Data:  data,
	})
	if err != nil {
		s.fail(w, r, errors.Join(ErrRender, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Site) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	s.logger.Error(r.Context(), "page failed", logger.String("path", r.URL.Path), logger.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// observe records request metrics for a page.
func (s *Site) observe(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Microseconds())/1000)
		switch {
		case rec.status >= http.StatusInternalServerError:
			metrics.RecordErrorByEndpoint(endpoint, r.Method, "server_error")
		case rec.status == http.StatusNotFound:
			metrics.RecordErrorByEndpoint(endpoint, r.Method, "not_found")
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
