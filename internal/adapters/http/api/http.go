// Package api declares the JSON API of the team site and its route
// registration.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/teamsite/internal/adapters/repository"
	service "github.com/okian/teamsite/internal/app"
	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
)

// maxBodyBytes caps admin request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	Store() repository.Store

	Achievements(ctx context.Context) ([]model.AwardRecord, error)
	SponsorsByTier(ctx context.Context) ([]model.TierGroup, error)

	// EnqueueSync queues an import of one season's results.
	EnqueueSync(ctx context.Context, year int, reason string) (model.SyncJob, error)
	SyncStatuses() []service.SyncStatus
}

// Server wires HTTP routes for the JSON API.
type Server struct {
	deps       Dependencies
	adminToken string
	logger     logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	contentHandler *ContentHandler
	syncHandler    *SyncHandler
	exportHandler  *ExportHandler
	adminPage      *adminPageHandler
}

// NewServer creates a new API server with all handlers. An empty admin
// token disables every admin route.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{deps: deps, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("api")

	s.healthHandler = NewHealthHandler(deps.Store())
	s.statsHandler = NewStatsHandler(statsProvider, deps.Store(), s.logger)
	s.contentHandler = NewContentHandler(deps, s.logger)
	s.syncHandler = NewSyncHandler(deps, s.logger)
	s.exportHandler = NewExportHandler(deps, s.logger)
	s.adminPage = newAdminPageHandler()
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/achievements", MetricsMiddleware(s.contentHandler.HandleAchievements, "achievements"))
	mux.HandleFunc("GET /api/sponsors", MetricsMiddleware(s.contentHandler.HandleSponsors, "sponsors"))
	mux.HandleFunc("GET /api/events", MetricsMiddleware(s.contentHandler.HandleEvents, "events"))
	mux.HandleFunc("GET /api/robots", MetricsMiddleware(s.contentHandler.HandleRobots, "robots"))
	mux.HandleFunc("GET /api/news", MetricsMiddleware(s.contentHandler.HandleNews, "news"))
	mux.HandleFunc("GET /api/members", MetricsMiddleware(s.contentHandler.HandleMembers, "members"))

	admin := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(RequireAdmin(s.adminToken, h), endpoint)
	}
	store := s.deps.Store()
	registerCRUD(mux, "achievements", store.Achievements(), admin, s.logger)
	registerCRUD(mux, "events", store.Events(), admin, s.logger)
	registerCRUD(mux, "sponsors", store.Sponsors(), admin, s.logger)
	registerCRUD(mux, "tiers", store.Tiers(), admin, s.logger)
	registerCRUD(mux, "robots", store.Robots(), admin, s.logger)
	registerCRUD(mux, "news", store.News(), admin, s.logger)
	registerCRUD(mux, "members", store.Members(), admin, s.logger)

	mux.HandleFunc("POST /api/admin/sync", admin(s.syncHandler.HandleEnqueue, "admin_sync"))
	mux.HandleFunc("GET /api/admin/sync", admin(s.syncHandler.HandleStatus, "admin_sync"))
	mux.HandleFunc("GET /api/admin/sponsors/export", admin(s.exportHandler.HandleSponsors, "admin_export"))

	mux.HandleFunc("GET /admin", s.adminPage.HandleAdmin)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to and logs server errors.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.Error(err))
	}
	writeError(w, status, code, err)
}

// decodeBody reads a JSON request body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}
