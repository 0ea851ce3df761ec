package immunization

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"immunization-scheduler/internal/domain/protocol"
	"immunization-scheduler/internal/platform/logger"
	"immunization-scheduler/internal/ports/notification"
)

// DefaultGraceDays: una dosis reprogramada (o creada tarde) se corre a hoy + 7 días.
const DefaultGraceDays = 7

const systemActor = "system"

type Options struct {
	Notifier  notification.Notifier // nil => sin avisos
	Logger    logger.Logger
	GraceDays int
}

type Service struct {
	store    Store
	catalog  Catalog
	children ChildLookup
	notifier notification.Notifier
	log      logger.Logger

	graceDays int
	now       func() time.Time
}

func NewService(store Store, catalog Catalog, children ChildLookup, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	grace := opts.GraceDays
	if grace <= 0 {
		grace = DefaultGraceDays
	}
	return &Service{
		store:     store,
		catalog:   catalog,
		children:  children,
		notifier:  opts.Notifier,
		log:       log.With(map[string]any{"component": "immunization"}),
		graceDays: grace,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Now expone el reloj del servicio (los handlers derivan estados efectivos con él).
func (s *Service) Now() time.Time {
	return s.now()
}

// ---------- Generación ----------

type GenerateResult struct {
	ChildID string
	Outcome Outcome

	Obligations        []Obligation
	Appointments       []Appointment
	ObligationsCreated int

	// NextDue: la primera dosis no vencida; nil si todas quedaron en el pasado.
	NextDue *Obligation
}

// GenerateSchedule crea de una vez todas las obligaciones del protocolo para un niño.
// Todo o nada. Las dosis que el niño ya tiene se saltean; si ya tiene todas, ErrScheduleExists.
// Si el aviso falla, el resultado es válido y el error es *NotificationError.
func (s *Service) GenerateSchedule(ctx context.Context, childID string, birthDate time.Time) (GenerateResult, error) {
	childID = strings.TrimSpace(childID)
	now := s.now()

	if childID == "" {
		return GenerateResult{}, fmt.Errorf("%w: child id required", ErrValidation)
	}
	if birthDate.IsZero() {
		return GenerateResult{}, fmt.Errorf("%w: birth date required", ErrValidation)
	}
	birth := protocol.DateOf(birthDate)
	if birth.After(protocol.DateOf(now)) {
		return GenerateResult{}, fmt.Errorf("%w: birth date in the future", ErrValidation)
	}

	entries, err := s.catalog.List(ctx)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("%w: protocol catalog: %v", ErrUnavailable, err)
	}
	if len(entries) == 0 {
		s.log.Warn("no protocol available", map[string]any{"child_id": childID})
		return GenerateResult{ChildID: childID, Outcome: OutcomeNoProtocol}, nil
	}

	var plan schedulePlan
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.ListObligationsByChild(ctx, childID)
		if err != nil {
			return err
		}

		// dosis registradas antes de generar (fuera de calendario) no se duplican
		have := make(map[protocol.Key]struct{}, len(existing))
		for _, o := range existing {
			have[protocol.Key{VaccineID: o.VaccineID, DoseNumber: o.DoseNumber}] = struct{}{}
		}
		missing := make([]protocol.Entry, 0, len(entries))
		for _, e := range entries {
			if _, ok := have[e.Key()]; !ok {
				missing = append(missing, e)
			}
		}
		if len(missing) == 0 {
			return ErrScheduleExists
		}

		plan, err = planSchedule(childID, birth, missing, now)
		if err != nil {
			return err
		}

		if err := tx.InsertObligations(ctx, plan.obligations); err != nil {
			return err
		}
		for i, a := range plan.appointments {
			if err := tx.InsertAppointment(ctx, a); err != nil {
				return err
			}
			if err := tx.LinkAppointmentDose(ctx, plan.links[i]); err != nil {
				return err
			}
		}
		for _, o := range plan.obligations {
			t := newTransition(o, "", o.StatusAt(now), systemActor, "schedule generated", now)
			if err := tx.AppendTransition(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}

	res := GenerateResult{
		ChildID:            childID,
		Outcome:            OutcomeScheduled,
		Obligations:        plan.obligations,
		Appointments:       plan.appointments,
		ObligationsCreated: len(plan.obligations),
		NextDue:            plan.nextDue,
	}

	fields := map[string]any{"child_id": childID, "obligations": res.ObligationsCreated}
	if res.NextDue != nil {
		fields["next_vaccine"] = res.NextDue.VaccineID
		fields["next_due"] = res.NextDue.DueDate.Format("2006-01-02")
	}
	s.log.Info("schedule generated", fields)

	if res.NextDue == nil {
		return res, nil
	}
	return res, s.notifyDue(ctx, childID, res.NextDue.VaccineName, res.NextDue.DoseNumber, res.NextDue.DueDate)
}

// ---------- Registro de dosis ----------

type RecordInput struct {
	ChildID    string
	VaccineID  string
	DoseNumber int

	// Outcome: administered | missed | cancelled
	Outcome Status

	AdministeredDate *time.Time // default: ahora
	AdministeredBy   string
	Notes            string
}

type RecordResult struct {
	Obligation  Obligation
	Appointment Appointment

	// NextDue: siguiente dosis tras registrar (nil => serie completa).
	NextDue *NextDose

	Warnings []string
}

// RecordDose aplica un resultado a una dosis y recalcula su cita en la misma transacción.
// Si se administra y la siguiente dosis no existe aún, se crea ahí mismo.
func (s *Service) RecordDose(ctx context.Context, in RecordInput) (RecordResult, error) {
	key := DoseKey{ChildID: strings.TrimSpace(in.ChildID), VaccineID: strings.TrimSpace(in.VaccineID), DoseNumber: in.DoseNumber}
	if err := key.validate(); err != nil {
		return RecordResult{}, err
	}

	switch in.Outcome {
	case StatusAdministered, StatusMissed, StatusCancelled:
	default:
		return RecordResult{}, fmt.Errorf("%w: unsupported outcome %q", ErrValidation, in.Outcome)
	}

	now := s.now()
	child, err := s.lookupChild(ctx, key.ChildID)
	if err != nil {
		return RecordResult{}, err
	}

	var administeredAt time.Time
	if in.Outcome == StatusAdministered {
		if strings.TrimSpace(in.AdministeredBy) == "" {
			return RecordResult{}, fmt.Errorf("%w: administered_by required", ErrValidation)
		}
		administeredAt = now
		if in.AdministeredDate != nil && !in.AdministeredDate.IsZero() {
			administeredAt = *in.AdministeredDate
		}
		if protocol.DateOf(administeredAt).After(protocol.DateOf(now)) {
			return RecordResult{}, fmt.Errorf("%w: administered date in the future", ErrValidation)
		}
		if protocol.DateOf(administeredAt).Before(protocol.DateOf(child.BirthDate)) {
			return RecordResult{}, fmt.Errorf("%w: administered date before birth", ErrValidation)
		}
	}

	entries, err := s.catalog.List(ctx)
	if err != nil {
		return RecordResult{}, fmt.Errorf("%w: protocol catalog: %v", ErrUnavailable, err)
	}
	entry, ok := protocol.Find(entries, key.VaccineID, key.DoseNumber)
	if !ok {
		return RecordResult{}, fmt.Errorf("%w: unknown vaccine dose %s/%d", ErrValidation, key.VaccineID, key.DoseNumber)
	}

	actor := strings.TrimSpace(in.AdministeredBy)
	if actor == "" {
		actor = systemActor
	}
	notes := strings.TrimSpace(in.Notes)

	var (
		res     RecordResult
		created *Obligation
	)

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		res = RecordResult{}
		created = nil

		o, err := tx.GetObligation(ctx, key)
		switch {
		case errors.Is(err, ErrNotFound) && in.Outcome == StatusAdministered:
			// dosis registrada sin obligación previa (fuera de calendario)
			o, err = s.insertDose(ctx, tx, key.ChildID, entry, protocol.DueDate(child.BirthDate, entry), now)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		}

		from := o.StatusAt(now)
		if err := checkTransition(o, in.Outcome, now); err != nil {
			return err
		}

		o.Status = in.Outcome
		o.UpdatedAt = now
		if notes != "" {
			o.Notes = notes
		}
		if in.Outcome == StatusAdministered {
			at := administeredAt
			o.AdministeredDate = &at
			o.AdministeredBy = actor

			remaining, err := tx.DecrementStock(ctx, o.VaccineID)
			switch {
			case errors.Is(err, ErrInsufficientStock):
				res.Warnings = append(res.Warnings, fmt.Sprintf("insufficient stock for %s", o.VaccineID))
			case err != nil:
				return err
			case remaining == 0:
				res.Warnings = append(res.Warnings, fmt.Sprintf("last unit of %s used", o.VaccineID))
			}
		}

		if err := tx.UpdateObligationStatus(ctx, o); err != nil {
			return err
		}
		appt, err := s.refreshAppointment(ctx, tx, o, nil, now)
		if err != nil {
			return err
		}
		if err := tx.AppendTransition(ctx, newTransition(o, from, in.Outcome, actor, notes, now)); err != nil {
			return err
		}

		res.Obligation = o
		res.Appointment = appt

		all, err := tx.ListObligationsByChild(ctx, key.ChildID)
		if err != nil {
			return err
		}

		var current *protocol.Key
		if in.Outcome == StatusAdministered {
			current = &protocol.Key{VaccineID: o.VaccineID, DoseNumber: o.DoseNumber}
		} else {
			current = latestAdministered(all)
		}
		next := Resolve(entries, child.BirthDate, all, current, now, s.graceDays)

		if next != nil && !next.Existing && in.Outcome == StatusAdministered {
			no, err := s.insertDose(ctx, tx, key.ChildID, next.Entry, next.DueDate, now)
			if err != nil {
				return err
			}
			next.Obligation = &no
			created = &no
		}
		res.NextDue = next
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}

	for _, w := range res.Warnings {
		s.log.Warn(w, map[string]any{"child_id": key.ChildID, "dose": key.String()})
	}
	s.log.Info("dose recorded", map[string]any{
		"child_id": key.ChildID,
		"dose":     key.String(),
		"outcome":  string(in.Outcome),
	})

	if created == nil {
		return res, nil
	}
	return res, s.notifyDue(ctx, key.ChildID, created.VaccineName, created.DoseNumber, created.DueDate)
}

// ---------- Reprogramación / cancelación ----------

type RescheduleInput struct {
	ChildID    string
	VaccineID  string
	DoseNumber int

	Date *time.Time // nil => hoy + días de gracia

	Actor string
	Notes string
}

type RescheduleResult struct {
	Obligation  Obligation
	Appointment Appointment
}

// Reschedule mueve una dosis vencida a una nueva fecha y la deja otra vez pendiente.
func (s *Service) Reschedule(ctx context.Context, in RescheduleInput) (RescheduleResult, error) {
	key := DoseKey{ChildID: strings.TrimSpace(in.ChildID), VaccineID: strings.TrimSpace(in.VaccineID), DoseNumber: in.DoseNumber}
	if err := key.validate(); err != nil {
		return RescheduleResult{}, err
	}

	now := s.now()
	today := protocol.DateOf(now)
	newDate := today.AddDate(0, 0, s.graceDays)
	if in.Date != nil && !in.Date.IsZero() {
		newDate = protocol.DateOf(*in.Date)
		if newDate.Before(today) {
			return RescheduleResult{}, fmt.Errorf("%w: new date in the past", ErrValidation)
		}
	}

	actor := strings.TrimSpace(in.Actor)
	if actor == "" {
		actor = systemActor
	}

	var res RescheduleResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.GetObligation(ctx, key)
		if err != nil {
			return err
		}

		from := o.StatusAt(now)
		if err := checkTransition(o, StatusRescheduled, now); err != nil {
			return err
		}

		o.Status = StatusScheduled
		o.DueDate = newDate
		o.RescheduleCount++
		o.UpdatedAt = now
		if n := strings.TrimSpace(in.Notes); n != "" {
			o.Notes = n
		}
		if err := tx.UpdateObligationStatus(ctx, o); err != nil {
			return err
		}

		appt, err := s.refreshAppointment(ctx, tx, o, &newDate, now)
		if err != nil {
			return err
		}
		if err := tx.AppendTransition(ctx, newTransition(o, from, StatusRescheduled, actor, in.Notes, now)); err != nil {
			return err
		}

		res = RescheduleResult{Obligation: o, Appointment: appt}
		return nil
	})
	if err != nil {
		return RescheduleResult{}, err
	}

	s.log.Info("dose rescheduled", map[string]any{
		"child_id": key.ChildID,
		"dose":     key.String(),
		"due_date": newDate.Format("2006-01-02"),
	})

	return res, s.notifyDue(ctx, key.ChildID, res.Obligation.VaccineName, res.Obligation.DoseNumber, res.Obligation.DueDate)
}

type CancelInput struct {
	ChildID    string
	VaccineID  string
	DoseNumber int
	Actor      string
	Notes      string
}

// Cancel: acción administrativa explícita. Terminal, sin efecto sobre stock.
func (s *Service) Cancel(ctx context.Context, in CancelInput) (RecordResult, error) {
	return s.RecordDose(ctx, RecordInput{
		ChildID:        in.ChildID,
		VaccineID:      in.VaccineID,
		DoseNumber:     in.DoseNumber,
		Outcome:        StatusCancelled,
		AdministeredBy: in.Actor,
		Notes:          in.Notes,
	})
}

// ---------- Consultas ----------

// ResolveNextDose: consulta de solo lectura. La serie "en curso" es la última dosis administrada.
// nil, nil => serie completa.
func (s *Service) ResolveNextDose(ctx context.Context, childID string) (*NextDose, error) {
	child, err := s.lookupChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: protocol catalog: %v", ErrUnavailable, err)
	}
	obligations, err := s.store.ListObligationsByChild(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	return Resolve(entries, child.BirthDate, obligations, latestAdministered(obligations), s.now(), s.graceDays), nil
}

// ScheduleView es el calendario tal como está guardado; AsOf fija la fecha para StatusAt.
type ScheduleView struct {
	Child        Child
	Obligations  []Obligation
	Appointments []Appointment
	AsOf         time.Time
}

func (s *Service) Schedule(ctx context.Context, childID string) (ScheduleView, error) {
	child, err := s.lookupChild(ctx, childID)
	if err != nil {
		return ScheduleView{}, err
	}
	obligations, err := s.store.ListObligationsByChild(ctx, child.ID)
	if err != nil {
		return ScheduleView{}, err
	}
	appointments, err := s.store.ListAppointmentsByChild(ctx, child.ID)
	if err != nil {
		return ScheduleView{}, err
	}
	asOf := s.now()

	// el estado guardado de la cita queda viejo cuando pasa su fecha: se recalcula a AsOf
	byAppointment := make(map[string][]Obligation, len(appointments))
	for _, o := range obligations {
		if o.AppointmentID != "" {
			byAppointment[o.AppointmentID] = append(byAppointment[o.AppointmentID], o)
		}
	}
	for i := range appointments {
		if doses, ok := byAppointment[appointments[i].ID]; ok {
			appointments[i].Status = AggregateStatus(appointments[i], doses, asOf)
		}
	}

	return ScheduleView{Child: child, Obligations: obligations, Appointments: appointments, AsOf: asOf}, nil
}

func (s *Service) History(ctx context.Context, childID string) ([]Transition, error) {
	child, err := s.lookupChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	return s.store.ListTransitionsByChild(ctx, child.ID)
}

// ---------- helpers ----------

func (s *Service) lookupChild(ctx context.Context, childID string) (Child, error) {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return Child{}, fmt.Errorf("%w: child id required", ErrValidation)
	}
	if s.children == nil {
		return Child{}, fmt.Errorf("%w: child %s", ErrNotFound, childID)
	}
	return s.children.LookupChild(ctx, childID)
}

// insertDose crea obligación + cita + vínculo + transición de alta dentro de tx.
func (s *Service) insertDose(ctx context.Context, tx Tx, childID string, e protocol.Entry, due, now time.Time) (Obligation, error) {
	o, appt, link, err := newScheduledDose(childID, e, due, now)
	if err != nil {
		return Obligation{}, err
	}
	if err := tx.InsertObligations(ctx, []Obligation{o}); err != nil {
		return Obligation{}, err
	}
	if err := tx.InsertAppointment(ctx, appt); err != nil {
		return Obligation{}, err
	}
	if err := tx.LinkAppointmentDose(ctx, link); err != nil {
		return Obligation{}, err
	}
	if err := tx.AppendTransition(ctx, newTransition(o, "", o.StatusAt(now), systemActor, "", now)); err != nil {
		return Obligation{}, err
	}
	return o, nil
}

// refreshAppointment recalcula (y opcionalmente mueve) la cita de una obligación.
// Sin cita asociada devuelve el valor cero.
func (s *Service) refreshAppointment(ctx context.Context, tx Tx, o Obligation, moveTo *time.Time, now time.Time) (Appointment, error) {
	if o.AppointmentID == "" {
		return Appointment{}, nil
	}
	a, err := tx.GetAppointment(ctx, o.AppointmentID)
	if err != nil {
		return Appointment{}, err
	}
	doses, err := tx.ListAppointmentObligations(ctx, a.ID)
	if err != nil {
		return Appointment{}, err
	}
	if moveTo != nil {
		a.ScheduledDate = *moveTo
	}
	a.Status = AggregateStatus(a, doses, now)
	a.UpdatedAt = now
	if err := tx.UpdateAppointment(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// GenerateForChild genera el calendario de un niño ya registrado (fecha de nacimiento desde ChildLookup).
func (s *Service) GenerateForChild(ctx context.Context, childID string) (GenerateResult, error) {
	child, err := s.lookupChild(ctx, childID)
	if err != nil {
		return GenerateResult{}, err
	}
	return s.GenerateSchedule(ctx, child.ID, child.BirthDate)
}
