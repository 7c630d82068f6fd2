package models

import "time"

// Client is an end customer identified by citizen document number.
type Client struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"nombre"`
	Phone     *string   `db:"phone" json:"telefono,omitempty"`
	Email     *string   `db:"email" json:"correo,omitempty"`
	Note      *string   `db:"note" json:"observacion,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}
