package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	tokenstore "github.com/kesherteam/kesher/internal/app/store/tokens"
	userstore "github.com/kesherteam/kesher/internal/app/store/users"
	"github.com/kesherteam/kesher/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords
	// alike, so a caller cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTokenInvalid       = errors.New("token is unknown or expired")
	// ErrTokenSpent marks a token that has already used its one silent
	// refresh; the holder must sign in again.
	ErrTokenSpent = errors.New("token already refreshed once")
)

// SessionManager authenticates credentials and manages bearer tokens.
type SessionManager struct {
	Users  *userstore.Store
	Tokens *tokenstore.Store
	Log    *zap.Logger

	// TokenTTL is the lifetime of a plain sign-in; RememberTTL applies when
	// the client asks to be remembered.
	TokenTTL    time.Duration
	RememberTTL time.Duration
}

// NewSessionManager wires the auth stores together.
func NewSessionManager(users *userstore.Store, tokens *tokenstore.Store, tokenTTL, rememberTTL time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		Users:       users,
		Tokens:      tokens,
		Log:         logger,
		TokenTTL:    tokenTTL,
		RememberTTL: rememberTTL,
	}
}

// Login verifies the credentials and issues a bearer token. Disabled
// accounts are rejected even with a correct password.
func (m *SessionManager) Login(ctx context.Context, username, password string, remember bool) (*models.User, tokenstore.Token, error) {
	u, err := m.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tokenstore.Token{}, ErrInvalidCredentials
		}
		return nil, tokenstore.Token{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, tokenstore.Token{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, tokenstore.Token{}, ErrAccountDisabled
	}

	ttl := m.TokenTTL
	if remember {
		ttl = m.RememberTTL
	}
	tok, err := m.Tokens.Issue(ctx, u.ID, ttl, remember)
	if err != nil {
		return nil, tokenstore.Token{}, err
	}
	return u, tok, nil
}

// Refresh extends a token's life exactly once. A second refresh of the same
// token fails with ErrTokenSpent and the client must sign in again.
func (m *SessionManager) Refresh(ctx context.Context, token string) (*tokenstore.Token, error) {
	cur, err := m.Tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if time.Now().UTC().After(cur.ExpiresAt) {
		return nil, ErrTokenInvalid
	}

	ttl := m.TokenTTL
	if cur.Remember {
		ttl = m.RememberTTL
	}
	refreshed, err := m.Tokens.Refresh(ctx, token, ttl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenSpent
		}
		return nil, err
	}
	return refreshed, nil
}

// Logout revokes the token and clears the remember-me cookie.
func (m *SessionManager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request, token string) error {
	if err := m.Tokens.Delete(ctx, token); err != nil {
		return err
	}
	ClearSession(w, r)
	return nil
}

// Resolve maps a bearer token to its account. Expired and unknown tokens,
// and tokens whose account has since been disabled, fail with
// ErrTokenInvalid.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	tok, err := m.Tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if time.Now().UTC().After(tok.ExpiresAt) {
		return nil, ErrTokenInvalid
	}

	u, err := m.Users.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrTokenInvalid
	}
	return u, nil
}

// LoadUser injects the token's user into context when the request carries a
// valid bearer token (header or remember-me cookie). Requests without one
// pass through anonymous; RequireSignedIn decides whether that matters.
func (m *SessionManager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.Resolve(r.Context(), bearerToken(r))
		if err == nil {
			r = withUser(r, &SessionUser{
				ID:       u.ID.Hex(),
				Name:     u.FullName,
				Username: u.Username,
				Role:     u.Role,
			})
		} else if !errors.Is(err, ErrTokenInvalid) {
			m.Log.Error("token resolution failed", zap.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

// SaveSession stores the token in the remember-me cookie.
func SaveSession(w http.ResponseWriter, r *http.Request, token string) {
	if Store == nil {
		return
	}
	sess := getSession(r)
	sess.Values[tokenKey] = token
	_ = sess.Save(r, w)
}

// ClearSession drops the remember-me cookie.
func ClearSession(w http.ResponseWriter, r *http.Request) {
	if Store == nil {
		return
	}
	sess := getSession(r)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// getSession loads the remember-me session, falling back to a fresh one when
// the existing cookie no longer decodes (key rotation, tampering).
func getSession(r *http.Request) *sessions.Session {
	sess, err := Store.Get(r, SessionName)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			storeLog.Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			storeLog.Error("session store error, using fresh session", zap.Error(err))
		}
	}
	return sess
}
