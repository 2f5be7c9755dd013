package models

import "time"

// Location is a node in the storage-location forest.
type Location struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ParentID  *string   `db:"parent_id" json:"parent_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LocationNode is a location annotated with its depth in the tree.
type LocationNode struct {
	Location
	Level int `json:"level"`
}
