package api

import (
	"net/http"
)

// adminPageHandler serves the single page admin panel. The page itself is
// public; every call it makes carries the token the operator types in.
type adminPageHandler struct{}

func newAdminPageHandler() *adminPageHandler {
	return &adminPageHandler{}
}

// HandleAdmin handles GET /admin requests.
func (h *adminPageHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, adminFS, "admin.html")
}
