package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crucial707/pokecollect/internal/auth"
	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/repo"
	"github.com/crucial707/pokecollect/internal/session"
)

type stubSessions struct {
	data *session.Data
	err  error
}

func (s stubSessions) Load(*http.Request) (string, *session.Data, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return "sid", s.data, nil
}

type stubUsers map[int]*models.User

func (u stubUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	if id == 99 {
		return nil, errors.New("db down")
	}
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, repo.ErrNotFound
}

// identityEcho writes the username found in the context, or "anon".
var identityEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if id, ok := auth.FromContext(r.Context()); ok {
		w.Write([]byte(id.Username))
		return
	}
	w.Write([]byte("anon"))
})

func TestLoadSession(t *testing.T) {
	users := stubUsers{1: {ID: 1, Username: "alice"}}

	tests := []struct {
		name     string
		sessions stubSessions
		code     int
		body     string
	}{
		{"no session", stubSessions{err: session.ErrNotFound}, http.StatusOK, "anon"},
		{"store failure", stubSessions{err: errors.New("redis down")}, http.StatusOK, "anon"},
		{"anonymous session", stubSessions{data: &session.Data{Flashes: []string{"x"}}}, http.StatusOK, "anon"},
		{"bound user", stubSessions{data: &session.Data{UserID: 1}}, http.StatusOK, "alice"},
		{"deleted user", stubSessions{data: &session.Data{UserID: 2}}, http.StatusOK, "anon"},
		{"user lookup failure", stubSessions{data: &session.Data{UserID: 99}}, http.StatusInternalServerError, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := LoadSession(tc.sessions, users)(identityEcho)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Errorf("expected body %q, got %q", tc.body, rec.Body.String())
			}
		})
	}
}

func TestRequireLogin(t *testing.T) {
	h := RequireLogin(identityEcho)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/pokemon/3/edit?x=1", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fuser%2Fpokemon%2F3%2Fedit%3Fx%3D1" {
		t.Errorf("unexpected redirect %q", loc)
	}

	req := httptest.NewRequest(http.MethodGet, "/user/pokemon", nil)
	req = req.WithContext(auth.NewContext(req.Context(), auth.Identity{UserID: 1, Username: "alice"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "alice" {
		t.Errorf("expected pass-through, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestAuthRateLimiter(t *testing.T) {
	l := AuthRateLimiter(4)
	h := l.Middleware(identityEcho)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other client should not be limited, got %d", rec.Code)
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(true)(identityEcho)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, k := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Strict-Transport-Security"} {
		if rec.Header().Get(k) == "" {
			t.Errorf("missing header %s", k)
		}
	}
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	h := MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		readErr = r.ParseForm()
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("username=aaaaaaaaaaaaaaaa"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	if !errors.As(readErr, &tooLarge) {
		t.Fatalf("expected *http.MaxBytesError, got %v", readErr)
	}
	if tooLarge.Limit != 8 {
		t.Errorf("expected limit 8, got %d", tooLarge.Limit)
	}
}

func TestMaxBytes_GetUntouched(t *testing.T) {
	var body []byte
	h := MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", strings.NewReader("0123456789abcdef")))
	if len(body) != 16 {
		t.Errorf("expected the full 16-byte body, got %d bytes", len(body))
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLog(t *testing.T) {
	users := stubUsers{1: {ID: 1, Username: "alice"}}

	tests := []struct {
		name     string
		sessions stubSessions
		handler  http.Handler
		level    string
		userID   float64
	}{
		{"anonymous", stubSessions{err: session.ErrNotFound}, identityEcho, "INFO", 0},
		{"logged in", stubSessions{data: &session.Data{UserID: 1}}, identityEcho, "INFO", 1},
		{"server error", stubSessions{data: &session.Data{UserID: 1}}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}), "ERROR", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLog(t)
			h := RequestLog(LoadSession(tc.sessions, users)(tc.handler))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/user/pokemon", nil))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["msg"] != "request" || entry["path"] != "/user/pokemon" {
				t.Errorf("unexpected entry: %v", entry)
			}
			if entry["level"] != tc.level {
				t.Errorf("expected level %s, got %v", tc.level, entry["level"])
			}
			got, _ := entry["user_id"].(float64)
			if got != tc.userID {
				t.Errorf("expected user_id %v, got %v", tc.userID, entry["user_id"])
			}
		})
	}
}
