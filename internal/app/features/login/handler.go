// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/app/system/inputval"
	"github.com/kesherteam/kesher/internal/app/system/timeouts"
	"github.com/kesherteam/kesher/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, ErrLog: errLog, Log: logger}
}

type loginInput struct {
	Username string `json:"username" label:"username" validate:"required,username"`
	Password string `json:"password" label:"password" validate:"required,min=1,max=128"`
	Remember bool   `json:"remember"`
}

type sessionResponse struct {
	User      userBody  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type userBody struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// HandleLogin processes POST /api/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode login body", err, "Invalid request body.")
		return
	}
	if err := inputval.Struct(in); err != nil {
		uierrors.Respond(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, tok, err := h.SessionMgr.Login(ctx, in.Username, in.Password, in.Remember)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		uierrors.Unauthorized(w, "Invalid username or password.")
		return
	case errors.Is(err, auth.ErrAccountDisabled):
		uierrors.Unauthorized(w, "Your account is disabled. Please contact a manager.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "login failed", err, "A server error occurred.")
		return
	}

	if in.Remember {
		auth.SaveSession(w, r, tok.Token)
	}

	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role),
		zap.Bool("remember", in.Remember))

	uierrors.JSON(w, http.StatusOK, sessionResponse{
		User:      toUserBody(u),
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
	})
}

// HandleRefresh processes POST /api/refresh. Each token refreshes at most
// once; afterwards the client must sign in again.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := auth.RequestToken(r)
	if token == "" {
		uierrors.Unauthorized(w, "Missing token.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tok, err := h.SessionMgr.Refresh(ctx, token)
	switch {
	case errors.Is(err, auth.ErrTokenInvalid):
		uierrors.Unauthorized(w, "Session expired. Please sign in again.")
		return
	case errors.Is(err, auth.ErrTokenSpent):
		uierrors.Unauthorized(w, "Session expired. Please sign in again.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "token refresh failed", err, "A server error occurred.")
		return
	}

	uierrors.JSON(w, http.StatusOK, map[string]any{
		"token":     tok.Token,
		"expiresAt": tok.ExpiresAt,
	})
}

// HandleLogout processes POST /api/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := auth.RequestToken(r)
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.SessionMgr.Logout(ctx, w, r, token); err != nil {
		h.ErrLog.LogServerError(w, r, "logout failed", err, "A server error occurred.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toUserBody(u *models.User) userBody {
	return userBody{
		ID:       u.ID.Hex(),
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
	}
}
