package domain

// Escola is read-only school reference data.
type Escola struct {
	INEP      INEP     `json:"inep"`
	Nome      string   `json:"nome_escola"`
	Endereco  string   `json:"endereco,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether the school can be placed on a map.
func (e Escola) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// EscolaPeso is a school annotated with its ticket density for the heat map.
type EscolaPeso struct {
	INEP      INEP    `json:"inep"`
	Nome      string  `json:"nome"`
	Endereco  string  `json:"endereco,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Count     int     `json:"count"`
	Weight    int     `json:"weight"`
}
