package immunization

import (
	"fmt"
	"time"

	"immunization-scheduler/internal/domain/protocol"
)

// StatusAt deriva el estado efectivo a una fecha.
// Missed no se persiste por vencimiento: una dosis Scheduled con fecha < hoy es Missed.
func (o Obligation) StatusAt(now time.Time) Status {
	if o.Status != StatusScheduled {
		return o.Status
	}
	if o.DueDate.Before(protocol.DateOf(now)) {
		return StatusMissed
	}
	if o.RescheduleCount > 0 {
		return StatusRescheduled
	}
	return StatusScheduled
}

// Pending: sigue abierta en el almacenamiento (no administrada, no marcada missed, no cancelada).
func (o Obligation) Pending() bool {
	return o.Status == StatusScheduled
}

// upcoming: pendiente y aún no vencida.
func (o Obligation) upcoming(now time.Time) bool {
	return o.Pending() && !o.DueDate.Before(protocol.DateOf(now))
}

// checkTransition valida (estado efectivo) -> destino.
//
//	Scheduled/Rescheduled -> Administered | Missed | Cancelled
//	Missed (vencida)      -> Administered | Missed | Rescheduled | Cancelled
//	Missed (explícita)    -> Rescheduled | Cancelled
//	Administered, Cancelled: terminales
func checkTransition(o Obligation, to Status, now time.Time) error {
	from := o.StatusAt(now)

	if from.Terminal() {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, o.Key(), from, to)
	}

	ok := false
	switch to {
	case StatusAdministered:
		// dosis tardía: solo si nadie la marcó missed explícitamente
		ok = o.Status == StatusScheduled
	case StatusMissed:
		// también fija como explícita una dosis ya vencida
		ok = o.Status == StatusScheduled
	case StatusRescheduled:
		ok = from == StatusMissed
	case StatusCancelled:
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, o.Key(), from, to)
	}
	return nil
}

// AggregateStatus recalcula el estado de una cita a partir de sus dosis.
// completed sii ninguna dosis sigue Scheduled; si no, missed/rescheduled/scheduled según la fecha de la cita.
func AggregateStatus(a Appointment, doses []Obligation, now time.Time) AppointmentStatus {
	pending := 0
	moved := false
	for _, d := range doses {
		if d.Pending() {
			pending++
			if d.RescheduleCount > 0 {
				moved = true
			}
		}
	}

	if len(doses) > 0 && pending == 0 {
		return AppointmentCompleted
	}
	if a.ScheduledDate.Before(protocol.DateOf(now)) {
		return AppointmentMissed
	}
	if moved {
		return AppointmentRescheduled
	}
	return AppointmentScheduled
}
