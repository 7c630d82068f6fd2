package models

// Fixture is a streetlight in the municipal inventory.
type Fixture struct {
	Serial       string  `db:"serial" json:"serie" yaml:"serie"`
	Address      string  `db:"address" json:"direccion" yaml:"direccion"`
	Sector       string  `db:"sector" json:"sector" yaml:"sector"`
	Neighborhood string  `db:"neighborhood" json:"barrio" yaml:"barrio"`
	Latitude     float64 `db:"latitude" json:"lat" yaml:"lat"`
	Longitude    float64 `db:"longitude" json:"lng" yaml:"lng"`
}
