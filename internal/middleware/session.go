package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/pokecollect/internal/auth"
	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/repo"
	"github.com/crucial707/pokecollect/internal/session"
)

// SessionLoader resolves the session a request carries. *session.Manager implements it.
type SessionLoader interface {
	Load(r *http.Request) (string, *session.Data, error)
}

// UserLookup re-reads the bound user on every request.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// LoadSession puts the caller's auth.Identity into the request context when
// the session is bound to a user that still exists. Other requests continue
// anonymous.
func LoadSession(sessions SessionLoader, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, data, err := sessions.Load(r)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					slog.Warn("session load failed",
						"request_id", chimw.GetReqID(r.Context()),
						"error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !data.Authenticated() {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), data.UserID)
			if errors.Is(err, repo.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("session user lookup failed",
					"request_id", chimw.GetReqID(r.Context()),
					"user_id", data.UserID,
					"error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			noteUser(r.Context(), user.ID)
			id := auth.Identity{UserID: user.ID, Username: user.Username}
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), id)))
		})
	}
}

// RequireLogin redirects anonymous requests to the login page, remembering
// where they were going in the next parameter.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
