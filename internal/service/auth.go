package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/repo"
)

// UserStore is the credential storage AuthService needs. *repo.UserRepo implements it.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Credentials is the signup/login input.
type Credentials struct {
	Username string `form:"username" validate:"required,min=3,max=30,username"`
	Password string `form:"password" validate:"required,min=4,max=72"`
}

// AuthService registers users and verifies their passwords.
type AuthService struct {
	users UserStore
	cost  int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService returns an AuthService hashing with the given bcrypt cost
// (bcrypt.DefaultCost when out of range).
func NewAuthService(users UserStore, cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, cost: cost}
}

// Register creates a user. The Exists lookup only short-circuits the common
// case; the unique index on users.username decides races.
func (s *AuthService) Register(ctx context.Context, in Credentials) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := check(in); err != nil {
		return nil, err
	}

	taken, err := s.users.Exists(ctx, in.Username)
	if err != nil {
		return nil, wrap("check username", err)
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &ValidationError{Fields: map[string]string{"password": "must be at most 72 bytes"}}
	}
	if err != nil {
		return nil, wrap("hash password", err)
	}

	user, err := s.users.Create(ctx, in.Username, string(hash))
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, ErrDuplicateUsername
		}
		return nil, wrap("create user", err)
	}
	return user, nil
}

// Authenticate returns the user whose password matches. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials, after the same bcrypt work.
func (s *AuthService) Authenticate(ctx context.Context, in Credentials) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(in.Password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, wrap("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UserByID resolves a session's bound user id. repo.ErrNotFound passes through.
func (s *AuthService) UserByID(ctx context.Context, id int) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("pokecollect-dummy-password"), s.cost)
	})
	return s.dummyHash
}
