package models

import "time"

// Category is the lookup table assets reference. TagPrefix drives asset tag
// generation; empty falls back to "OBJ".
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Icon      string    `db:"icon" json:"icon"`
	TagPrefix string    `db:"tag_prefix" json:"tag_prefix"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultTagPrefix is used for categories without an explicit prefix.
const DefaultTagPrefix = "OBJ"

// Prefix returns the effective tag prefix for the category.
func (c Category) Prefix() string {
	if c.TagPrefix == "" {
		return DefaultTagPrefix
	}
	return c.TagPrefix
}
