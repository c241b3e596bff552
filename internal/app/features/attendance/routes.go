// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/go-chi/chi/v5"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/domain/models"
)

// Routes returns the attendance endpoints, mounted under /api/attendance.
// Reads need any signed-in user; confirmations need a manager.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Get("/stream", h.HandleStream)
	r.With(auth.RequireRole(models.RoleManager)).Post("/", h.HandleCreate)
	r.Route("/{id}", func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleManager))
		r.Patch("/", h.HandlePatch)
		r.Delete("/", h.HandleDelete)
	})
	return r
}
