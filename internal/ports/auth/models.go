package auth

// Claims identifica al personal sanitario que opera la API.
type Claims struct {
	UserID string
	Name   string
	Email  string

	// Centro de vacunación al que pertenece (opcional).
	FacilityID string
}
