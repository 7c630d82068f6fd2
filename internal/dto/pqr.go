package dto

// CreatePQRRequest is the dashboard payload for registering a request. Enum
// fields accept the canonical values and the legacy Spanish spellings.
type CreatePQRRequest struct {
	ClientID      string   `json:"clienteId" validate:"required"`
	Type          string   `json:"tipoPqr" validate:"required"`
	Condition     string   `json:"condicion" validate:"required,max=200"`
	Priority      string   `json:"prioridad"`
	Channel       string   `json:"medioReporte"`
	SubmittedAt   string   `json:"fechaPqr"`
	Address       string   `json:"direccionPqr" validate:"max=255"`
	Sector        string   `json:"sectorPqr" validate:"max=120"`
	Neighborhood  string   `json:"barrio" validate:"max=120"`
	Latitude      *float64 `json:"lat" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"lng" validate:"omitempty,longitude"`
	HasSerial     bool     `json:"hasSerie"`
	FixtureSerial string   `json:"serieLuminaria" validate:"required_if=HasSerial true"`
	Note          *string  `json:"observacionPqr" validate:"omitempty,max=2000"`
}

// TransitionRequest changes the workflow status of a request.
type TransitionRequest struct {
	Status  string  `json:"estado" validate:"required"`
	Comment *string `json:"comentario" validate:"omitempty,max=2000"`
}

// PQRQuery carries the optional list filters from the query string.
type PQRQuery struct {
	Status string `form:"estado"`
	Type   string `form:"tipoPqr"`
	Search string `form:"q"`
}
