package models

// Pokemon is a catalog species. ID is the pokedex number from the import source.
type Pokemon struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
