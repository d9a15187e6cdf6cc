package api

import (
	"net/http"

	"github.com/okian/teamsite/internal/adapters/repository"
	"github.com/okian/teamsite/pkg/logger"
)

// guard decorates an admin handler with auth and metrics.
type guard func(h http.HandlerFunc, endpoint string) http.HandlerFunc

// crudHandler exposes one table under /api/admin/<name>.
type crudHandler[E any, P repository.Row[E]] struct {
	name   string
	table  repository.Table[E]
	logger logger.Logger
}

func registerCRUD[E any, P repository.Row[E]](mux *http.ServeMux, name string, table repository.Table[E], g guard, log logger.Logger) {
	h := &crudHandler[E, P]{name: name, table: table, logger: log}
	base := "/api/admin/" + name
	endpoint := "admin_" + name

	mux.HandleFunc("GET "+base, g(h.list, endpoint))
	mux.HandleFunc("POST "+base, g(h.create, endpoint))
	mux.HandleFunc("GET "+base+"/{id}", g(h.get, endpoint))
	mux.HandleFunc("PUT "+base+"/{id}", g(h.update, endpoint))
	mux.HandleFunc("DELETE "+base+"/{id}", g(h.remove, endpoint))
}

func (h *crudHandler[E, P]) op(action string) string {
	return "api.admin_" + action + "_" + h.name
}

func (h *crudHandler[E, P]) list(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, h.logger, h.op("list"), h.table.List)
}

func (h *crudHandler[E, P]) get(w http.ResponseWriter, r *http.Request) {
	row, err := h.table.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(r.Context(), w, h.logger, Wrap(h.op("get"), err))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *crudHandler[E, P]) create(w http.ResponseWriter, r *http.Request) {
	op := h.op("create")
	var row E
	if err := decodeBody(w, r, &row); err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.table.Create(r.Context(), &row); err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	h.logger.Info(r.Context(), "record created",
		logger.String("table", h.name),
		logger.String("id", P(&row).EntityID()),
	)
	writeJSON(w, http.StatusCreated, row)
}

func (h *crudHandler[E, P]) update(w http.ResponseWriter, r *http.Request) {
	op := h.op("update")
	var row E
	if err := decodeBody(w, r, &row); err != nil {
		fail(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	// The path wins over any id in the body.
	P(&row).SetEntityID(r.PathValue("id"))
	if err := h.table.Update(r.Context(), &row); err != nil {
		fail(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	h.logger.Info(r.Context(), "record updated",
		logger.String("table", h.name),
		logger.String("id", P(&row).EntityID()),
	)
	writeJSON(w, http.StatusOK, row)
}

func (h *crudHandler[E, P]) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.table.Delete(r.Context(), id); err != nil {
		fail(r.Context(), w, h.logger, Wrap(h.op("delete"), err))
		return
	}
	h.logger.Info(r.Context(), "record deleted", logger.String("table", h.name), logger.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}
