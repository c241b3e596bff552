// internal/app/features/matchingrules/routes.go
package matchingrules

import (
	"github.com/go-chi/chi/v5"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/domain/models"
)

// Routes returns the matching-rule endpoints, mounted under
// /api/matching-rules. The rule set is fixed, so there is no create/delete.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Get("/stream", h.HandleStream)
	r.With(auth.RequireRole(models.RoleManager)).Patch("/{id}", h.HandlePatch)
	return r
}
