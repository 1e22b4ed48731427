package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/crucial707/pokecollect/internal/auth"
	"github.com/crucial707/pokecollect/internal/metrics"
	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/service"
)

// LogoutMessage is flashed on the login page after logging out.
const LogoutMessage = "Successfully Logged Out"

// Authenticator is implemented by *service.AuthService.
type Authenticator interface {
	Register(ctx context.Context, in service.Credentials) (*models.User, error)
	Authenticate(ctx context.Context, in service.Credentials) (*models.User, error)
}

// SessionManager is implemented by *session.Manager.
type SessionManager interface {
	Login(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int) error
	Logout(ctx context.Context, w http.ResponseWriter, r *http.Request, flashes ...string) error
}

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Auth     Authenticator
	Sessions SessionManager
	Views    *Renderer
}

// Root sends visitors to the login page, which forwards logged-in users on.
func (h *AuthHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/user/pokemon", http.StatusFound)
		return
	}
	h.Views.Render(w, r, http.StatusOK, "login.html", Page{
		Title: "Log in",
		Next:  r.URL.Query().Get("next"),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentialsForm
	if err := decodeForm(r, &in); err != nil {
		formError(w, err)
		return
	}

	user, err := h.Auth.Authenticate(r.Context(), in.credentials())
	if errors.Is(err, service.ErrInvalidCredentials) {
		metrics.IncLoginAttempt("failure")
		in.Password = ""
		h.Views.Render(w, r, http.StatusUnauthorized, "login.html", Page{
			Title: "Log in",
			Error: "Invalid username or password",
			Next:  in.Next,
			Form:  in,
		})
		return
	}
	if err != nil {
		h.Views.ServerError(w, r, err)
		return
	}

	metrics.IncLoginAttempt("success")
	if err := h.Sessions.Login(r.Context(), w, r, user.ID); err != nil {
		h.Views.ServerError(w, r, err)
		return
	}
	http.Redirect(w, r, safeNext(in.Next), http.StatusFound)
}

// ==========================
// Signup
// ==========================
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/user/pokemon", http.StatusFound)
		return
	}
	h.Views.Render(w, r, http.StatusOK, "signup.html", Page{Title: "Sign up"})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in credentialsForm
	if err := decodeForm(r, &in); err != nil {
		formError(w, err)
		return
	}

	user, err := h.Auth.Register(r.Context(), in.credentials())
	in.Password = ""

	var vErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrDuplicateUsername):
		h.Views.Render(w, r, http.StatusConflict, "signup.html", Page{
			Title:  "Sign up",
			Error:  "Username taken",
			Fields: map[string]string{"username": "already in use"},
			Form:   in,
		})
		return
	case errors.As(err, &vErr):
		h.Views.Render(w, r, http.StatusUnprocessableEntity, "signup.html", Page{
			Title:  "Sign up",
			Error:  "Please fix the highlighted fields",
			Fields: vErr.Fields,
			Form:   in,
		})
		return
	case err != nil:
		h.Views.ServerError(w, r, err)
		return
	}

	if err := h.Sessions.Login(r.Context(), w, r, user.ID); err != nil {
		h.Views.ServerError(w, r, err)
		return
	}
	http.Redirect(w, r, "/user/pokemon", http.StatusFound)
}

// ==========================
// Logout
// ==========================
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), w, r, LogoutMessage); err != nil {
		h.Views.ServerError(w, r, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
