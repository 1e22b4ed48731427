package models

import "time"

const (
	ActivityAdd  = "add"
	ActivityEdit = "edit"
)

// Activity is one row of a user's inventory history.
type Activity struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Action    string    `json:"action"` // add, edit
	UserMonID int       `json:"user_mon_id"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
