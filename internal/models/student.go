package models

import "time"

// Student represents a learner registered at the PKBM.
type Student struct {
	ID        string     `db:"id" json:"id"`
	UserID    *string    `db:"user_id" json:"user_id,omitempty"`
	NIS       string     `db:"nis" json:"nis"`
	NISN      string     `db:"nisn" json:"nisn"`
	FullName  string     `db:"full_name" json:"full_name"`
	Gender    string     `db:"gender" json:"gender"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Address   string     `db:"address" json:"address"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
