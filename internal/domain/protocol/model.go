package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Unit es la unidad del offset de edad de una dosis.
// @Enum days, weeks, months, years
type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
	UnitYears  Unit = "years"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		return true
	default:
		return false
	}
}

// ParseUnit acepta singular/plural y mayúsculas ("Month", "WEEKS", "day").
func ParseUnit(s string) (Unit, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v != "" && !strings.HasSuffix(v, "s") {
		v += "s"
	}
	u := Unit(v)
	if !u.Valid() {
		return "", fmt.Errorf("%w: unknown offset unit %q", ErrInvalidInput, s)
	}
	return u, nil
}

// Entry representa una dosis requerida del protocolo (una regla del catálogo).
// Es data de referencia inmutable.
type Entry struct {
	VaccineID   string
	VaccineName string

	DoseNumber int // 1-based, único por vacuna

	Unit  Unit
	Value int // >= 0

	Required bool
	Notes    string
}

type EntryInput struct {
	VaccineID   string
	VaccineName string
	DoseNumber  int
	Unit        Unit
	Value       int
	Required    bool
	Notes       string
}

// NewEntry construye una Entry validando sus campos.
func NewEntry(in EntryInput) (Entry, error) {
	id := strings.TrimSpace(in.VaccineID)
	if id == "" {
		return Entry{}, fmt.Errorf("%w: vaccine id required", ErrInvalidInput)
	}
	if in.DoseNumber <= 0 {
		return Entry{}, fmt.Errorf("%w: dose number must be positive (vaccine %s)", ErrInvalidInput, id)
	}
	if in.Value < 0 {
		return Entry{}, fmt.Errorf("%w: offset must be non-negative (vaccine %s dose %d)", ErrInvalidInput, id, in.DoseNumber)
	}
	if !in.Unit.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown offset unit %q", ErrInvalidInput, in.Unit)
	}

	name := strings.TrimSpace(in.VaccineName)
	if name == "" {
		name = id
	}

	return Entry{
		VaccineID:   id,
		VaccineName: name,
		DoseNumber:  in.DoseNumber,
		Unit:        in.Unit,
		Value:       in.Value,
		Required:    in.Required,
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

// Key identifica una dosis dentro del catálogo.
type Key struct {
	VaccineID  string
	DoseNumber int
}

func (e Entry) Key() Key {
	return Key{VaccineID: e.VaccineID, DoseNumber: e.DoseNumber}
}

// OffsetDays aproxima el offset en días. Solo sirve como clave de orden del catálogo;
// las fechas reales salen de DueDate.
func (e Entry) OffsetDays() int {
	switch e.Unit {
	case UnitWeeks:
		return e.Value * 7
	case UnitMonths:
		return e.Value * 30
	case UnitYears:
		return e.Value * 365
	default:
		return e.Value
	}
}

// Less ordena por offset (en días), luego número de dosis, luego vacuna.
func Less(a, b Entry) bool {
	if da, db := a.OffsetDays(), b.OffsetDays(); da != db {
		return da < db
	}
	if a.DoseNumber != b.DoseNumber {
		return a.DoseNumber < b.DoseNumber
	}
	return a.VaccineID < b.VaccineID
}

// Sort ordena el catálogo in-place con la clave del protocolo.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}
