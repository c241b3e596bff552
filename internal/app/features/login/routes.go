// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the authentication endpoints, mounted under /api.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/refresh", h.HandleRefresh)
	r.Post("/logout", h.HandleLogout)
	return r
}
