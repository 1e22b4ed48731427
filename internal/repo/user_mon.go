package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/pokecollect/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

// UserMonRepo stores inventory records. Every read and write is keyed by the
// owning user id as well as the record id.
type UserMonRepo struct {
	DB DBTX
}

func NewUserMonRepo(db DBTX) *UserMonRepo {
	return &UserMonRepo{DB: db}
}

// ========================
// CREATE RECORD
// ========================

func (r *UserMonRepo) Create(ctx context.Context, userID, pokemonID int, s models.Stats) (*models.UserMon, error) {
	mon := &models.UserMon{UserID: userID, PokemonID: pokemonID, Stats: s}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO user_mons (user_id, pokemon_id, cp, atk, dfn, hp)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		userID, pokemonID, s.CP, s.Atk, s.Dfn, s.HP,
	).Scan(&mon.ID, &mon.CreatedAt)
	if err != nil {
		return nil, err
	}
	return mon, nil
}

// ========================
// LIST BY OWNER
// ========================

func (r *UserMonRepo) ListByUser(ctx context.Context, userID int) ([]models.UserMon, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT um.id, um.user_id, um.pokemon_id, p.name, um.cp, um.atk, um.dfn, um.hp, um.created_at
		 FROM user_mons um
		 JOIN pokemon p ON p.id = um.pokemon_id
		 WHERE um.user_id = $1
		 ORDER BY um.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mons []models.UserMon
	for rows.Next() {
		var m models.UserMon
		if err := rows.Scan(&m.ID, &m.UserID, &m.PokemonID, &m.PokemonName,
			&m.CP, &m.Atk, &m.Dfn, &m.HP, &m.CreatedAt); err != nil {
			return nil, err
		}
		mons = append(mons, m)
	}
	return mons, rows.Err()
}

// ========================
// GET OWNED RECORD
// ========================

// GetForUser returns ErrNotFound both when the record does not exist and when
// it belongs to someone else.
func (r *UserMonRepo) GetForUser(ctx context.Context, id, userID int) (*models.UserMon, error) {
	var m models.UserMon
	err := r.DB.QueryRowContext(ctx,
		`SELECT um.id, um.user_id, um.pokemon_id, p.name, um.cp, um.atk, um.dfn, um.hp, um.created_at
		 FROM user_mons um
		 JOIN pokemon p ON p.id = um.pokemon_id
		 WHERE um.id = $1 AND um.user_id = $2`,
		id, userID,
	).Scan(&m.ID, &m.UserID, &m.PokemonID, &m.PokemonName,
		&m.CP, &m.Atk, &m.Dfn, &m.HP, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ========================
// UPDATE STATS
// ========================

// UpdateStats overwrites the four stat columns of an owned record. Ownership
// columns are never written.
func (r *UserMonRepo) UpdateStats(ctx context.Context, id, userID int, s models.Stats) (*models.UserMon, error) {
	var m models.UserMon
	err := r.DB.QueryRowContext(ctx,
		`UPDATE user_mons um
		 SET cp = $1, atk = $2, dfn = $3, hp = $4
		 FROM pokemon p
		 WHERE um.id = $5 AND um.user_id = $6 AND p.id = um.pokemon_id
		 RETURNING um.id, um.user_id, um.pokemon_id, p.name, um.cp, um.atk, um.dfn, um.hp, um.created_at`,
		s.CP, s.Atk, s.Dfn, s.HP, id, userID,
	).Scan(&m.ID, &m.UserID, &m.PokemonID, &m.PokemonName,
		&m.CP, &m.Atk, &m.Dfn, &m.HP, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
