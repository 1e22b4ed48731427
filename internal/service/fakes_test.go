package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/repo"
)

// fakeUsers enforces username uniqueness the way the users table does.
type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	nextID int

	// existsAlwaysFalse simulates a racing registration slipping past the pre-check.
	existsAlwaysFalse bool
	lookupErr         error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, username, hash string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[username]; ok {
		return nil, &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	f.nextID++
	u := &models.User{ID: f.nextID, Username: username, PasswordHash: hash, CreatedAt: time.Now()}
	f.byName[username] = u
	return u, nil
}

func (f *fakeUsers) Exists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsAlwaysFalse {
		return false, nil
	}
	_, ok := f.byName[username]
	return ok, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byName)
}

type fakeSpecies struct {
	list []models.Pokemon
}

func (f *fakeSpecies) FindByName(_ context.Context, name string) (*models.Pokemon, error) {
	for _, p := range f.list {
		if strings.EqualFold(p.Name, name) {
			p := p
			return &p, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeSpecies) List(_ context.Context, prefix string) ([]models.Pokemon, error) {
	var out []models.Pokemon
	for _, p := range f.list {
		if strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(prefix)) {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeMons mirrors UserMonRepo: every access is keyed by (id, user_id).
type fakeMons struct {
	rows    []models.UserMon
	names   map[int]string
	creates int
	updates int
}

func (f *fakeMons) Create(_ context.Context, userID, pokemonID int, s models.Stats) (*models.UserMon, error) {
	f.creates++
	m := models.UserMon{ID: len(f.rows) + 1, UserID: userID, PokemonID: pokemonID, PokemonName: f.names[pokemonID], Stats: s}
	f.rows = append(f.rows, m)
	return &m, nil
}

func (f *fakeMons) ListByUser(_ context.Context, userID int) ([]models.UserMon, error) {
	var out []models.UserMon
	for _, m := range f.rows {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMons) GetForUser(_ context.Context, id, userID int) (*models.UserMon, error) {
	for _, m := range f.rows {
		if m.ID == id && m.UserID == userID {
			m := m
			return &m, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeMons) UpdateStats(_ context.Context, id, userID int, s models.Stats) (*models.UserMon, error) {
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == userID {
			f.updates++
			f.rows[i].Stats = s
			m := f.rows[i]
			return &m, nil
		}
	}
	return nil, repo.ErrNotFound
}

type fakeActivity struct {
	actions []string
	entries []models.Activity
	err     error
}

func (f *fakeActivity) Log(_ context.Context, userID int, action string, userMonID int, details string) error {
	f.actions = append(f.actions, action)
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, models.Activity{
		ID: len(f.entries) + 1, UserID: userID, Action: action, UserMonID: userMonID, Details: details,
	})
	return nil
}

func (f *fakeActivity) ListByUser(_ context.Context, userID, limit int) ([]models.Activity, error) {
	var out []models.Activity
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}
