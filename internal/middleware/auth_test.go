package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atinyakov/VoiceNotes/internal/models"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type fakeAuthenticator struct {
	gotToken string
	user     *models.User
	err      error
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	f.gotToken = token
	return f.user, f.err
}

func TestBearerAuth_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		auth   *fakeAuthenticator
	}{
		{"missing header", "", &fakeAuthenticator{}},
		{"wrong scheme", "Basic abc", &fakeAuthenticator{}},
		{"empty token", "Bearer   ", &fakeAuthenticator{}},
		{"invalid token", "Bearer bad", &fakeAuthenticator{err: models.ErrUnauthorized}},
		{"orphaned user", "Bearer ok", &fakeAuthenticator{err: fmt.Errorf("%w: user no longer exists", models.ErrUnauthorized)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dummy := &dummyHandler{}
			h := BearerAuth(tt.auth, nil)(dummy)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/notes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(rec, req)

			if dummy.called {
				t.Error("did not expect next handler to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
			}
		})
	}
}

func TestBearerAuth_StoreFailureIsServerError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	dummy := &dummyHandler{}
	fa := &fakeAuthenticator{err: fmt.Errorf("get user: %w: %w", models.ErrPersistence, errors.New("connection refused"))}
	h := BearerAuth(fa, zap.New(core))(dummy)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if logs.FilterMessage("failed to authenticate request").Len() != 1 {
		t.Errorf("expected one error log, got %v", logs.All())
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	dummy := &dummyHandler{}
	fa := &fakeAuthenticator{user: &models.User{ID: "alice-id"}}
	h := BearerAuth(fa, nil)(dummy)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	h.ServeHTTP(rec, req)

	if !dummy.called {
		t.Fatal("expected next handler to be called")
	}
	if fa.gotToken != "tok123" {
		t.Errorf("token passed = %q; want %q", fa.gotToken, "tok123")
	}
	if got := GetUserIDFromContext(dummy.ctx); got != "alice-id" {
		t.Errorf("GetUserIDFromContext = %q; want %q", got, "alice-id")
	}
}

func TestGetUserIDFromContext_Empty(t *testing.T) {
	if got := GetUserIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty user id, got %q", got)
	}
	if got := GetUserIDFromContext(WithUserID(context.Background(), "bob")); got != "bob" {
		t.Errorf("expected bob, got %q", got)
	}
}
