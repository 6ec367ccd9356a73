package model

import "time"

// Friend is a single birthday record. Every friend belongs to exactly one
// profile (ProfileID), and ownership moves wholesale during an account merge.
//
// There is deliberately NO uniqueness constraint on (name, birthday) in the
// store — the same person can appear twice if the user insists. Uniqueness
// only matters during a merge, where the exact (name, birthday) pair —
// case-sensitive on name — decides whether a migrating record is a duplicate.
// That rule lives in the linking service, not the schema.
type Friend struct {
	ID        string    `json:"id"        db:"id"`
	ProfileID string    `json:"profileId" db:"profile_id"`
	Name      string    `json:"name"      db:"name"`
	Birthday  Date      `json:"birthday"  db:"birthday"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// SameEntry reports whether two friends are the same entry for merge-dedup
// purposes: identical name (case-sensitive) and identical birthday,
// year included.
func (f *Friend) SameEntry(other *Friend) bool {
	return f.Name == other.Name && f.Birthday == other.Birthday
}
