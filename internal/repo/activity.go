package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/pokecollect/internal/models"
)

// ActivityRepo persists the inventory history shown on a user's list page.
type ActivityRepo struct {
	db DBTX
}

// NewActivityRepo returns a new ActivityRepo.
func NewActivityRepo(db DBTX) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// Log records an entry. action is add|edit.
func (r *ActivityRepo) Log(ctx context.Context, userID int, action string, userMonID int, details string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_log (user_id, action, user_mon_id, details) VALUES ($1, $2, $3, $4)`,
		userID, action, userMonID, details,
	)
	return err
}

// ListByUser returns the user's most recent entries, newest first.
func (r *ActivityRepo) ListByUser(ctx context.Context, userID, limit int) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, action, user_mon_id, details, created_at
		 FROM activity_log
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Activity
	for rows.Next() {
		var e models.Activity
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.UserMonID, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
