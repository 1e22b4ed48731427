package models

import "time"

// Stats are the user-assigned combat values of an owned Pokemon.
type Stats struct {
	CP  int `json:"cp"`
	Atk int `json:"atk"`
	Dfn int `json:"dfn"`
	HP  int `json:"hp"`
}

// UserMon is one inventory record. UserID and PokemonID never change after creation.
type UserMon struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	PokemonID   int       `json:"pokemon_id"`
	PokemonName string    `json:"pokemon_name"`
	Stats
	CreatedAt time.Time `json:"created_at"`
}
