package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/crucial707/pokecollect/internal/models"
)

// DefaultImportBatch is the number of rows per INSERT statement during Import.
const DefaultImportBatch = 200

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PokemonRepo reads and populates the species catalog.
type PokemonRepo struct {
	DB *sql.DB
}

func NewPokemonRepo(db *sql.DB) *PokemonRepo {
	return &PokemonRepo{DB: db}
}

// FindByName matches a species by name, ignoring case.
func (r *PokemonRepo) FindByName(ctx context.Context, name string) (*models.Pokemon, error) {
	p := &models.Pokemon{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name FROM pokemon WHERE lower(name) = lower($1)`, name,
	).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the catalog ordered by id. A non-empty prefix keeps only names starting with it.
func (r *PokemonRepo) List(ctx context.Context, prefix string) ([]models.Pokemon, error) {
	q := psql.Select("id", "name").From("pokemon").OrderBy("id")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where(sq.ILike{"name": likeEscaper.Replace(prefix) + "%"})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build catalog query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Pokemon
	for rows.Next() {
		var p models.Pokemon
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Count returns the number of catalog rows.
func (r *PokemonRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM pokemon`).Scan(&n)
	return n, err
}

// Import inserts the species that are not present yet, in one transaction, and
// reports how many rows were added. Existing ids or names are left untouched, so
// running it again (or concurrently) never duplicates a species.
func (r *PokemonRepo) Import(ctx context.Context, list []models.Pokemon, batchSize int) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultImportBatch
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for start := 0; start < len(list); start += batchSize {
		end := min(start+batchSize, len(list))

		ins := psql.Insert("pokemon").Columns("id", "name")
		for _, p := range list[start:end] {
			ins = ins.Values(p.ID, p.Name)
		}
		query, args, err := ins.Suffix("ON CONFLICT DO NOTHING").ToSql()
		if err != nil {
			return 0, fmt.Errorf("build import batch: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("import batch at %d: %w", start, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}
