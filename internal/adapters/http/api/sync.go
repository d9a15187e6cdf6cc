package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
)

// SyncHandler triggers and reports results imports.
type SyncHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps Dependencies, log logger.Logger) *SyncHandler {
	return &SyncHandler{deps: deps, logger: log}
}

type syncAck struct {
	Status string        `json:"status"`
	Job    model.SyncJob `json:"job"`
}

// HandleEnqueue handles POST /api/admin/sync?year=YYYY.
func (h *SyncHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_sync"
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, errors.New("year must be an integer")))
		return
	}
	job, err := h.deps.EnqueueSync(r.Context(), year, "admin")
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, syncAck{Status: "accepted", Job: job})
}

// HandleStatus handles GET /api/admin/sync.
func (h *SyncHandler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.SyncStatuses())
}
