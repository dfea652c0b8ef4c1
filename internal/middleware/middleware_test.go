package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ayush/taskmanager/internal/auth"
	"github.com/ayush/taskmanager/internal/web"
)

func TestMethodOverride(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		want        string
	}{
		{name: "put", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "_method=put", want: http.MethodPut},
		{name: "delete", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "_method=DELETE&x=1", want: http.MethodDelete},
		{name: "unknown method ignored", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "_method=TRACE", want: http.MethodPost},
		{name: "no field", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "task=x", want: http.MethodPost},
		{name: "get untouched", method: http.MethodGet, want: http.MethodGet},
		{name: "json untouched", method: http.MethodPost, contentType: "application/json", body: `{"_method":"DELETE"}`, want: http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Method
			}))

			req := httptest.NewRequest(tt.method, "/tasks/edit/1", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubResolver map[string]string

func (s stubResolver) Resolve(_ context.Context, token string) (string, error) {
	if token == "broken" {
		return "", errors.New("redis down")
	}
	return s[token], nil
}

func TestLoadSession(t *testing.T) {
	resolver := stubResolver{"good": "user-1"}

	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{name: "no cookie", want: ""},
		{name: "valid", cookie: "good", want: "user-1"},
		{name: "unknown", cookie: "stale", want: ""},
		{name: "store failure", cookie: "broken", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := LoadSession(resolver, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = web.UserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: tt.cookie})
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(web.WithUserID(req.Context(), "user-1"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}
