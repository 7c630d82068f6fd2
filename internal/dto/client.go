package dto

// CreateClientRequest registers a client by citizen document id.
type CreateClientRequest struct {
	ID    string  `json:"id" validate:"required,max=32"`
	Name  string  `json:"nombre" validate:"required,max=160"`
	Phone *string `json:"telefono" validate:"omitempty,max=32"`
	Email *string `json:"correo" validate:"omitempty,email"`
	Note  *string `json:"observacion" validate:"omitempty,max=1000"`
}

// UpdateClientRequest overwrites the mutable client fields.
type UpdateClientRequest struct {
	Name  string  `json:"nombre" validate:"required,max=160"`
	Phone *string `json:"telefono" validate:"omitempty,max=32"`
	Email *string `json:"correo" validate:"omitempty,email"`
	Note  *string `json:"observacion" validate:"omitempty,max=1000"`
}
