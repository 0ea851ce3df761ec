package immunization

import (
	"fmt"
	"strings"
	"time"

	"immunization-scheduler/internal/domain/protocol"

	"github.com/google/uuid"
)

// Child es lo único que el motor lee del niño.
type Child struct {
	ID        string
	Name      string
	BirthDate time.Time
	Phone     string // teléfono del tutor para recordatorios
}

// DoseKey identifica una obligación: a lo sumo una por (niño, vacuna, dosis).
type DoseKey struct {
	ChildID    string
	VaccineID  string
	DoseNumber int
}

func (k DoseKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.ChildID, k.VaccineID, k.DoseNumber)
}

func (k DoseKey) validate() error {
	if strings.TrimSpace(k.ChildID) == "" {
		return fmt.Errorf("%w: child id required", ErrValidation)
	}
	if strings.TrimSpace(k.VaccineID) == "" {
		return fmt.Errorf("%w: vaccine id required", ErrValidation)
	}
	if k.DoseNumber <= 0 {
		return fmt.Errorf("%w: dose number must be positive", ErrValidation)
	}
	return nil
}

// Obligation es una dosis requerida para un niño.
// Status guarda solo el estado explícito; Missed por vencimiento se deriva con StatusAt.
type Obligation struct {
	ID string

	ChildID     string
	VaccineID   string
	VaccineName string
	DoseNumber  int

	DueDate         time.Time
	OriginalDueDate time.Time
	RescheduleCount int

	Status Status

	AppointmentID string

	AdministeredDate *time.Time
	AdministeredBy   string
	Notes            string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o Obligation) Key() DoseKey {
	return DoseKey{ChildID: o.ChildID, VaccineID: o.VaccineID, DoseNumber: o.DoseNumber}
}

// newObligation crea una obligación en estado Scheduled a partir de una entrada del protocolo.
func newObligation(childID string, e protocol.Entry, due, now time.Time) (Obligation, error) {
	k := DoseKey{ChildID: childID, VaccineID: e.VaccineID, DoseNumber: e.DoseNumber}
	if err := k.validate(); err != nil {
		return Obligation{}, err
	}
	due = protocol.DateOf(due)
	return Obligation{
		ID:              uuid.NewString(),
		ChildID:         k.ChildID,
		VaccineID:       k.VaccineID,
		VaccineName:     e.VaccineName,
		DoseNumber:      k.DoseNumber,
		DueDate:         due,
		OriginalDueDate: due,
		Status:          StatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Appointment agrupa una o más obligaciones en una visita.
type Appointment struct {
	ID      string
	ChildID string

	ScheduledDate time.Time
	Status        AppointmentStatus
	Notes         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentDose es el registro asociativo cita <-> (vacuna, dosis).
type AppointmentDose struct {
	AppointmentID string
	VaccineID     string
	DoseNumber    int
}

// Transition es una entrada del historial (append-only). Las obligaciones nunca se borran.
type Transition struct {
	ID string

	ChildID    string
	VaccineID  string
	DoseNumber int

	From    Status // vacío en la creación
	To      Status
	DueDate time.Time

	At    time.Time
	Actor string
	Notes string
}

func newTransition(o Obligation, from, to Status, actor, notes string, at time.Time) Transition {
	return Transition{
		ID:         uuid.NewString(),
		ChildID:    o.ChildID,
		VaccineID:  o.VaccineID,
		DoseNumber: o.DoseNumber,
		From:       from,
		To:         to,
		DueDate:    o.DueDate,
		At:         at,
		Actor:      strings.TrimSpace(actor),
		Notes:      strings.TrimSpace(notes),
	}
}

// NextDose es la siguiente dosis accionable de un niño.
type NextDose struct {
	Entry   protocol.Entry
	DueDate time.Time

	// Existing: ya hay una obligación para esta dosis (pendiente o vencida).
	Existing   bool
	Obligation *Obligation
}
