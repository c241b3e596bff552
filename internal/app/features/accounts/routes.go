// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/go-chi/chi/v5"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/domain/models"
)

// Routes returns the account-management endpoints, mounted under
// /api/accounts. The whole surface is manager-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleManager))
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Patch("/{id}", h.HandlePatch)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
