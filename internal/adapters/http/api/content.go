package api

import (
	"context"
	"net/http"

	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
)

// ContentHandler serves the public read-only endpoints.
type ContentHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewContentHandler creates a new content handler.
func NewContentHandler(deps Dependencies, log logger.Logger) *ContentHandler {
	return &ContentHandler{deps: deps, logger: log}
}

// sponsorGroup is the wire shape of one tier on the sponsors page. Tier is
// null for sponsors below every threshold.
type sponsorGroup struct {
	Tier     *model.SponsorTier `json:"tier"`
	Sponsors []model.Sponsor    `json:"sponsors"`
}

// HandleAchievements handles GET /api/achievements.
func (h *ContentHandler) HandleAchievements(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_achievements"
	list, err := h.deps.Achievements(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSponsors handles GET /api/sponsors.
func (h *ContentHandler) HandleSponsors(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_sponsors"
	groups, err := h.deps.SponsorsByTier(r.Context())
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	out := make([]sponsorGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, sponsorGroup{Tier: g.Tier, Sponsors: g.Sponsors})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleEvents handles GET /api/events.
func (h *ContentHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, "api.get_events", h.deps.Store().Events().List)
}

// HandleRobots handles GET /api/robots.
func (h *ContentHandler) HandleRobots(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, "api.get_robots", h.deps.Store().Robots().List)
}

// HandleNews handles GET /api/news.
func (h *ContentHandler) HandleNews(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, "api.get_news", h.deps.Store().News().List)
}

// HandleMembers handles GET /api/members.
func (h *ContentHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, "api.get_members", h.deps.Store().Members().List)
}

func serveList[E any](w http.ResponseWriter, r *http.Request, log logger.Logger, op string, list func(context.Context) ([]E, error)) {
	rows, err := list(r.Context())
	if err != nil {
		fail(r.Context(), w, log, Wrap(op, err))
		return
	}
	if rows == nil {
		rows = []E{}
	}
	writeJSON(w, http.StatusOK, rows)
}
