package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crucial707/pokecollect/internal/auth"
	"github.com/crucial707/pokecollect/internal/metrics"
	"github.com/crucial707/pokecollect/internal/models"
	"github.com/crucial707/pokecollect/internal/repo"
)

// SpeciesStore is the catalog lookup. *repo.PokemonRepo implements it.
type SpeciesStore interface {
	FindByName(ctx context.Context, name string) (*models.Pokemon, error)
	List(ctx context.Context, prefix string) ([]models.Pokemon, error)
}

// UserMonStore persists inventory records. *repo.UserMonRepo implements it.
type UserMonStore interface {
	Create(ctx context.Context, userID, pokemonID int, s models.Stats) (*models.UserMon, error)
	ListByUser(ctx context.Context, userID int) ([]models.UserMon, error)
	GetForUser(ctx context.Context, id, userID int) (*models.UserMon, error)
	UpdateStats(ctx context.Context, id, userID int, s models.Stats) (*models.UserMon, error)
}

// ActivityLog records inventory history. *repo.ActivityRepo implements it.
type ActivityLog interface {
	Log(ctx context.Context, userID int, action string, userMonID int, details string) error
	ListByUser(ctx context.Context, userID, limit int) ([]models.Activity, error)
}

// StatsInput holds the editable combat values with their accepted ranges.
type StatsInput struct {
	CP  int `form:"cp" validate:"min=0,max=10000"`
	Atk int `form:"atk" validate:"min=0,max=1000"`
	Dfn int `form:"dfn" validate:"min=0,max=1000"`
	HP  int `form:"hp" validate:"min=0,max=1000"`
}

func (in StatsInput) stats() models.Stats {
	return models.Stats{CP: in.CP, Atk: in.Atk, Dfn: in.Dfn, HP: in.HP}
}

// AddInput is a new inventory record: a species name plus its stats.
type AddInput struct {
	Species string `form:"name" validate:"required,max=64"`
	Stats   StatsInput
}

// InventoryService implements the per-user collection operations. Every
// method that touches inventory records takes the caller's identity and
// scopes reads and writes to it.
type InventoryService struct {
	species  SpeciesStore
	mons     UserMonStore
	activity ActivityLog
}

// NewInventoryService wires the stores. activity may be nil.
func NewInventoryService(species SpeciesStore, mons UserMonStore, activity ActivityLog) *InventoryService {
	return &InventoryService{species: species, mons: mons, activity: activity}
}

// ListForUser returns the caller's records only.
func (s *InventoryService) ListForUser(ctx context.Context, id auth.Identity) ([]models.UserMon, error) {
	if id.Anonymous() {
		return nil, ErrUnauthenticated
	}
	mons, err := s.mons.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, wrap("list inventory", err)
	}
	return mons, nil
}

// Add validates the input, resolves the species and stores a new record owned by the caller.
func (s *InventoryService) Add(ctx context.Context, id auth.Identity, in AddInput) (*models.UserMon, error) {
	if id.Anonymous() {
		return nil, ErrUnauthenticated
	}
	in.Species = strings.TrimSpace(in.Species)
	if err := check(in); err != nil {
		return nil, err
	}

	species, err := s.species.FindByName(ctx, in.Species)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnknownSpecies
	}
	if err != nil {
		return nil, wrap("find species", err)
	}

	mon, err := s.mons.Create(ctx, id.UserID, species.ID, in.Stats.stats())
	if err != nil {
		return nil, translateWrite("add record", err)
	}
	mon.PokemonName = species.Name

	metrics.IncInventoryOps(models.ActivityAdd)
	s.record(ctx, id, models.ActivityAdd, mon)
	return mon, nil
}

// GetDetails returns one of the caller's records. Records owned by other
// users are reported as ErrRecordNotFound.
func (s *InventoryService) GetDetails(ctx context.Context, id auth.Identity, recordID int) (*models.UserMon, error) {
	if id.Anonymous() {
		return nil, ErrUnauthenticated
	}
	mon, err := s.mons.GetForUser(ctx, recordID, id.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, wrap("get record", err)
	}
	return mon, nil
}

// Edit overwrites the stats of one of the caller's records.
func (s *InventoryService) Edit(ctx context.Context, id auth.Identity, recordID int, in StatsInput) (*models.UserMon, error) {
	if id.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if err := check(in); err != nil {
		return nil, err
	}

	mon, err := s.mons.UpdateStats(ctx, recordID, id.UserID, in.stats())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, translateWrite("edit record", err)
	}

	metrics.IncInventoryOps(models.ActivityEdit)
	s.record(ctx, id, models.ActivityEdit, mon)
	return mon, nil
}

// ListAllSpecies returns the catalog, optionally narrowed to names starting with prefix.
func (s *InventoryService) ListAllSpecies(ctx context.Context, prefix string) ([]models.Pokemon, error) {
	list, err := s.species.List(ctx, prefix)
	if err != nil {
		return nil, wrap("list species", err)
	}
	return list, nil
}

// RecentActivity returns up to limit of the caller's latest adds and edits, newest first.
func (s *InventoryService) RecentActivity(ctx context.Context, id auth.Identity, limit int) ([]models.Activity, error) {
	if id.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if s.activity == nil {
		return nil, nil
	}
	list, err := s.activity.ListByUser(ctx, id.UserID, limit)
	if err != nil {
		return nil, wrap("list activity", err)
	}
	return list, nil
}

func (s *InventoryService) record(ctx context.Context, id auth.Identity, action string, mon *models.UserMon) {
	if s.activity == nil {
		return
	}
	details := fmt.Sprintf("%s cp=%d atk=%d dfn=%d hp=%d", mon.PokemonName, mon.CP, mon.Atk, mon.Dfn, mon.HP)
	if err := s.activity.Log(ctx, id.UserID, action, mon.ID, details); err != nil {
		slog.WarnContext(ctx, "activity log write failed",
			"user_id", id.UserID, "action", action, "user_mon_id", mon.ID, "error", err)
	}
}

// translateWrite maps constraint violations that slipped past validation.
func translateWrite(op string, err error) error {
	switch pqCode(err) {
	case pqForeignKeyViolation:
		return ErrUnknownSpecies
	case pqCheckViolation:
		return &ValidationError{Fields: map[string]string{"stats": "out of range"}}
	}
	return wrap(op, err)
}
