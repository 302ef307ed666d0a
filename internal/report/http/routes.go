package reporthttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the report dispatch endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/reports", h.handleRun)
}
