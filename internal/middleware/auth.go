package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayush/taskmanager/internal/auth"
	"github.com/ayush/taskmanager/internal/web"
)

// SessionResolver turns a session cookie value into a user id.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// LoadSession validates the session cookie, if any, and injects the user id
// into the request context. Requests without a valid session continue
// anonymously.
func LoadSession(sessions SessionResolver, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				log.Error("session lookup failed", zap.Error(err))
			}
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(web.WithUserID(r.Context(), userID)))
		})
	}
}

// RequireAuth redirects anonymous requests to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if web.UserID(r.Context()) == "" {
			web.SetFlash(w, "Please log in first.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
