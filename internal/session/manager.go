package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie set on the browser.
const CookieName = "pokecollect_session"

// DefaultTTL applies when NewManager is given a non-positive ttl.
const DefaultTTL = 24 * time.Hour

type claims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues and resolves session cookies. The cookie value is an HS256
// token holding only the session id and its expiry.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, secret []byte, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, secret: secret, ttl: ttl, secure: secure, now: time.Now}
}

// Load returns the session referenced by the request cookie. A missing,
// tampered or expired cookie, or an id unknown to the store, yields ErrNotFound.
func (m *Manager) Load(r *http.Request) (string, *Data, error) {
	id, ok := m.sessionID(r)
	if !ok {
		return "", nil, ErrNotFound
	}
	d, err := m.store.Get(r.Context(), id)
	if err != nil {
		return "", nil, err
	}
	return id, d, nil
}

// Login binds userID to a fresh session id. Any session the request already
// carried is deleted so a pre-login id can never become authenticated.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int) error {
	if old, ok := m.sessionID(r); ok {
		if err := m.store.Delete(ctx, old); err != nil {
			return fmt.Errorf("drop previous session: %w", err)
		}
	}
	return m.start(ctx, w, &Data{UserID: userID})
}

// Logout removes the server-side session and clears the cookie. It is a no-op
// without a session. Any flashes given are carried into a new anonymous session.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request, flashes ...string) error {
	if id, ok := m.sessionID(r); ok {
		if err := m.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	if len(flashes) > 0 {
		return m.start(ctx, w, &Data{Flashes: flashes})
	}
	m.clearCookie(w)
	return nil
}

// AddFlash queues a one-shot message, creating an anonymous session when needed.
func (m *Manager) AddFlash(ctx context.Context, w http.ResponseWriter, r *http.Request, msg string) error {
	id, d, err := m.Load(r)
	if errors.Is(err, ErrNotFound) {
		return m.start(ctx, w, &Data{Flashes: []string{msg}})
	}
	if err != nil {
		return err
	}
	d.Flashes = append(d.Flashes, msg)
	return m.store.Save(ctx, id, d, m.ttl)
}

// PopFlashes returns queued messages and removes them from the session.
func (m *Manager) PopFlashes(ctx context.Context, r *http.Request) ([]string, error) {
	id, d, err := m.Load(r)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(d.Flashes) == 0 {
		return nil, nil
	}
	flashes := d.Flashes
	d.Flashes = nil
	if err := m.store.Save(ctx, id, d, m.ttl); err != nil {
		return nil, err
	}
	return flashes, nil
}

func (m *Manager) start(ctx context.Context, w http.ResponseWriter, d *Data) error {
	id := uuid.NewString()
	now := m.now()
	d.CreatedAt = now

	if err := m.store.Save(ctx, id, d, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	expires := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	var cl claims
	token, err := jwt.ParseWithClaims(c.Value, &cl, m.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || cl.SID == "" {
		return "", false
	}
	return cl.SID, true
}

func (m *Manager) key(*jwt.Token) (interface{}, error) {
	return m.secret, nil
}
