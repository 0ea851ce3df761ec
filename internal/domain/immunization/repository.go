package immunization

import (
	"context"

	"immunization-scheduler/internal/domain/protocol"
)

// Store es el repositorio transaccional del motor.
// Toda escritura multi-registro pasa por WithinTx: commit si fn devuelve nil, rollback si no.
// Los adapters deben devolver ErrUnavailable si no pueden abrir/confirmar la transacción
// y ErrDuplicateObligation ante la violación de unicidad (niño, vacuna, dosis).
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListObligationsByChild(ctx context.Context, childID string) ([]Obligation, error)
	ListAppointmentsByChild(ctx context.Context, childID string) ([]Appointment, error)
	ListTransitionsByChild(ctx context.Context, childID string) ([]Transition, error)
}

// Tx son las operaciones disponibles dentro de una transacción.
type Tx interface {
	InsertObligations(ctx context.Context, batch []Obligation) error
	InsertAppointment(ctx context.Context, a Appointment) error
	LinkAppointmentDose(ctx context.Context, link AppointmentDose) error

	// GetObligation bloquea la fila hasta el fin de la transacción. ErrNotFound si no existe.
	GetObligation(ctx context.Context, key DoseKey) (Obligation, error)
	UpdateObligationStatus(ctx context.Context, o Obligation) error
	ListObligationsByChild(ctx context.Context, childID string) ([]Obligation, error)

	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointmentObligations(ctx context.Context, appointmentID string) ([]Obligation, error)
	UpdateAppointment(ctx context.Context, a Appointment) error

	// DecrementStock descuenta una unidad. ErrInsufficientStock si no hay stock (no descuenta).
	DecrementStock(ctx context.Context, vaccineID string) (remaining int, err error)

	AppendTransition(ctx context.Context, t Transition) error
}

// Catalog es el catálogo de protocolo ya ordenado (protocol.Service lo implementa).
type Catalog interface {
	List(ctx context.Context) ([]protocol.Entry, error)
}

// ChildLookup evita importar el paquete children (rompe ciclos).
type ChildLookup interface {
	LookupChild(ctx context.Context, childID string) (Child, error)
}
