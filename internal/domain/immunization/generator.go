package immunization

import (
	"fmt"
	"time"

	"immunization-scheduler/internal/domain/protocol"

	"github.com/google/uuid"
)

// schedulePlan es el calendario completo de un niño, listo para insertarse en una sola transacción.
type schedulePlan struct {
	obligations  []Obligation
	appointments []Appointment
	links        []AppointmentDose

	// nextDue: la primera dosis no vencida (para el aviso de registro).
	nextDue *Obligation
}

// planSchedule calcula una obligación + una cita + su vínculo por cada entrada del protocolo.
// No escribe nada.
func planSchedule(childID string, birth time.Time, entries []protocol.Entry, now time.Time) (schedulePlan, error) {
	plan := schedulePlan{
		obligations:  make([]Obligation, 0, len(entries)),
		appointments: make([]Appointment, 0, len(entries)),
		links:        make([]AppointmentDose, 0, len(entries)),
	}

	today := protocol.DateOf(now)
	seen := make(map[protocol.Key]struct{}, len(entries))
	nextIdx := -1

	for _, e := range entries {
		if _, dup := seen[e.Key()]; dup {
			return schedulePlan{}, fmt.Errorf("%w: duplicate protocol entry %s dose %d", ErrValidation, e.VaccineID, e.DoseNumber)
		}
		seen[e.Key()] = struct{}{}

		o, appt, link, err := newScheduledDose(childID, e, protocol.DueDate(birth, e), now)
		if err != nil {
			return schedulePlan{}, err
		}

		plan.obligations = append(plan.obligations, o)
		plan.appointments = append(plan.appointments, appt)
		plan.links = append(plan.links, link)

		if o.DueDate.Before(today) {
			continue
		}
		if nextIdx < 0 || o.DueDate.Before(plan.obligations[nextIdx].DueDate) {
			nextIdx = len(plan.obligations) - 1
		}
	}

	if nextIdx >= 0 {
		next := plan.obligations[nextIdx]
		plan.nextDue = &next
	}
	return plan, nil
}

// newScheduledDose arma la obligación, su cita (misma fecha) y el vínculo entre ambas.
func newScheduledDose(childID string, e protocol.Entry, due, now time.Time) (Obligation, Appointment, AppointmentDose, error) {
	o, err := newObligation(childID, e, due, now)
	if err != nil {
		return Obligation{}, Appointment{}, AppointmentDose{}, err
	}

	appt := Appointment{
		ID:            uuid.NewString(),
		ChildID:       o.ChildID,
		ScheduledDate: o.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.AppointmentID = appt.ID
	appt.Status = AggregateStatus(appt, []Obligation{o}, now)

	link := AppointmentDose{
		AppointmentID: appt.ID,
		VaccineID:     o.VaccineID,
		DoseNumber:    o.DoseNumber,
	}
	return o, appt, link, nil
}
