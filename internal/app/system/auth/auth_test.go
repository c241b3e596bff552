package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Error("bcrypt hash rejected the right password")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("bcrypt hash accepted a wrong password")
	}
}

func TestCheckPasswordLegacy(t *testing.T) {
	hash := LegacyHash("manager123")
	if !CheckPassword(hash, "manager123") {
		t.Error("legacy digest rejected the right password")
	}
	if CheckPassword(hash, "manager124") {
		t.Error("legacy digest accepted a wrong password")
	}
}

func TestRequireSignedIn(t *testing.T) {
	called := false
	h := RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// Anonymous request is rejected.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/residents", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Fatal("handler ran for an anonymous request")
	}

	// Request with a user in context passes.
	req := WithTestUser(httptest.NewRequest(http.MethodGet, "/api/residents", nil),
		&SessionUser{ID: "u1", Role: "volunteer"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called {
		t.Fatal("handler did not run for a signed-in request")
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("manager")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		user *SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"wrong role", &SessionUser{ID: "u1", Role: "volunteer"}, http.StatusForbidden},
		{"manager", &SessionUser{ID: "u2", Role: "manager"}, http.StatusNoContent},
		{"case insensitive", &SessionUser{ID: "u3", Role: "Manager"}, http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tc.user != nil {
				req = WithTestUser(req, tc.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
