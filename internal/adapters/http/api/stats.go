package api

import (
	"context"
	"maps"
	"net/http"

	"github.com/okian/teamsite/internal/adapters/repository"
	"github.com/okian/teamsite/pkg/logger"
)

// StatsProvider reports pipeline state for GET /stats.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves the provider's stats plus a row count per table.
type StatsHandler struct {
	stats  StatsProvider
	store  repository.Store
	logger logger.Logger
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(stats StatsProvider, store repository.Store, log logger.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, store: store, logger: log}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]any)
	if h.stats != nil {
		maps.Copy(out, h.stats.GetStats())
	}
	rows, err := rowCounts(r.Context(), h.store)
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap("stats", err))
		return
	}
	out["rows"] = rows
	writeJSON(w, http.StatusOK, out)
}

func rowCounts(ctx context.Context, s repository.Store) (map[string]int, error) {
	counters := map[string]func(context.Context) (int, error){
		"achievements": count(s.Achievements()),
		"events":       count(s.Events()),
		"sponsors":     count(s.Sponsors()),
		"tiers":        count(s.Tiers()),
		"robots":       count(s.Robots()),
		"news":         count(s.News()),
		"members":      count(s.Members()),
	}
	rows := make(map[string]int, len(counters))
	for name, n := range counters {
		c, err := n(ctx)
		if err != nil {
			return nil, err
		}
		rows[name] = c
	}
	return rows, nil
}

func count[E any](t repository.Table[E]) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		list, err := t.List(ctx)
		return len(list), err
	}
}
