package immunization

// Status del ciclo de vida de una dosis (Obligation).
// @Enum scheduled, administered, missed, rescheduled, cancelled
type Status string

const (
	StatusScheduled    Status = "scheduled"
	StatusAdministered Status = "administered"
	StatusMissed       Status = "missed"
	StatusRescheduled  Status = "rescheduled"
	StatusCancelled    Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusAdministered, StatusMissed, StatusRescheduled, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal: no admite más transiciones.
func (s Status) Terminal() bool {
	return s == StatusAdministered || s == StatusCancelled
}

// AppointmentStatus es el estado agregado de una cita.
// @Enum scheduled, completed, missed, rescheduled
type AppointmentStatus string

const (
	AppointmentScheduled   AppointmentStatus = "scheduled"
	AppointmentCompleted   AppointmentStatus = "completed"
	AppointmentMissed      AppointmentStatus = "missed"
	AppointmentRescheduled AppointmentStatus = "rescheduled"
)

// Outcome distingue una generación con catálogo de una sin protocolo disponible.
type Outcome string

const (
	OutcomeScheduled  Outcome = "scheduled"
	OutcomeNoProtocol Outcome = "no_protocol"
)
