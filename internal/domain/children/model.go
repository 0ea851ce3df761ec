package children

import "time"

// Sex del niño (solo informativo).
// @Enum female, male, unknown
type Sex string

const (
	SexFemale  Sex = "female"
	SexMale    Sex = "male"
	SexUnknown Sex = "unknown"
)

func (s Sex) Valid() bool {
	switch s {
	case SexFemale, SexMale, SexUnknown:
		return true
	default:
		return false
	}
}

// Child representa al niño registrado en la clínica.
type Child struct {
	ID string

	Name      string
	Sex       Sex
	BirthDate time.Time // fecha civil (medianoche UTC)

	GuardianName  string
	GuardianPhone string // destino de los recordatorios SMS

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
