// Package service implements registration, authentication and the
// ownership-scoped inventory operations on top of the repositories.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Callers match these with errors.Is.
var (
	ErrDuplicateUsername  = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownSpecies     = errors.New("unknown species")
	ErrRecordNotFound     = errors.New("record not found")
	ErrUnauthenticated    = errors.New("not logged in")
)

// ValidationError reports malformed input, keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// postgres error classes translated into the taxonomy above.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
