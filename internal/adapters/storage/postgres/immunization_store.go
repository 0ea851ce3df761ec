package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"immunization-scheduler/internal/domain/immunization"
)

// ImmunizationStore implementa immunization.Store sobre database/sql (pgx).
// La unicidad (niño, vacuna, dosis) la garantiza immunization_obligations_dose_key.
type ImmunizationStore struct {
	db *sql.DB
}

func NewImmunizationStore(db *sql.DB) *ImmunizationStore {
	return &ImmunizationStore{db: db}
}

func (s *ImmunizationStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx immunization.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", immunization.ErrUnavailable, err)
	}

	if err := fn(ctx, &pgTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return mapTxError(err)
	}

	if err := tx.Commit(); err != nil {
		switch pgCode(err) {
		case uniqueViolation, serializationFailure, deadlockDetected:
			return mapTxError(err)
		}
		return fmt.Errorf("%w: commit: %v", immunization.ErrUnavailable, err)
	}
	return nil
}

// mapTxError traduce errores de Postgres a la taxonomía del dominio.
func mapTxError(err error) error {
	switch pgCode(err) {
	case uniqueViolation:
		return fmt.Errorf("%w: %v", immunization.ErrDuplicateObligation, err)
	case serializationFailure, deadlockDetected:
		return fmt.Errorf("%w: %v", immunization.ErrConflict, err)
	default:
		return err
	}
}

func (s *ImmunizationStore) ListObligationsByChild(ctx context.Context, childID string) ([]immunization.Obligation, error) {
	return listObligations(ctx, s.db, childID)
}

func (s *ImmunizationStore) ListAppointmentsByChild(ctx context.Context, childID string) ([]immunization.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE child_id = $1
		ORDER BY scheduled_date ASC, id ASC
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]immunization.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *ImmunizationStore) ListTransitionsByChild(ctx context.Context, childID string) ([]immunization.Transition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, child_id, vaccine_id, dose_number, from_status, to_status, due_date, at, actor, notes
		FROM dose_transitions
		WHERE child_id = $1
		ORDER BY at ASC, id ASC
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]immunization.Transition, 0)
	for rows.Next() {
		var (
			t        immunization.Transition
			from, to string
		)
		if err := rows.Scan(&t.ID, &t.ChildID, &t.VaccineID, &t.DoseNumber, &from, &to, &t.DueDate, &t.At, &t.Actor, &t.Notes); err != nil {
			return nil, err
		}
		t.From = immunization.Status(from)
		t.To = immunization.Status(to)
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetStock fija las unidades disponibles de una vacuna (seed/admin).
func (s *ImmunizationStore) SetStock(ctx context.Context, vaccineID string, quantity int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vaccine_stock (vaccine_id, quantity) VALUES ($1, $2)
		ON CONFLICT (vaccine_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`, vaccineID, quantity)
	return err
}

// ---------- tx ----------

type pgTx struct {
	q querier
}

const obligationColumns = `id, child_id, vaccine_id, vaccine_name, dose_number,
	due_date, original_due_date, reschedule_count, status, COALESCE(appointment_id, ''),
	administered_date, administered_by, notes, created_at, updated_at`

const appointmentColumns = `id, child_id, scheduled_date, status, notes, created_at, updated_at`

func (t *pgTx) InsertObligations(ctx context.Context, batch []immunization.Obligation) error {
	for _, o := range batch {
		_, err := t.q.ExecContext(ctx, `
			INSERT INTO immunization_obligations (
				id, child_id, vaccine_id, vaccine_name, dose_number,
				due_date, original_due_date, reschedule_count, status, appointment_id,
				administered_date, administered_by, notes, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULL,$10,$11,$12,$13,$14)
		`,
			o.ID, o.ChildID, o.VaccineID, o.VaccineName, o.DoseNumber,
			o.DueDate, o.OriginalDueDate, o.RescheduleCount, string(o.Status),
			nullTime(o.AdministeredDate), o.AdministeredBy, o.Notes, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return mapTxError(err)
		}
	}
	return nil
}

func (t *pgTx) InsertAppointment(ctx context.Context, a immunization.Appointment) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, a.ID, a.ChildID, a.ScheduledDate, string(a.Status), a.Notes, a.CreatedAt, a.UpdatedAt)
	return mapTxError(err)
}

// LinkAppointmentDose crea el vínculo y fija appointment_id en la obligación
// (la obligación se inserta antes que su cita).
func (t *pgTx) LinkAppointmentDose(ctx context.Context, link immunization.AppointmentDose) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO appointment_doses (appointment_id, vaccine_id, dose_number)
		VALUES ($1,$2,$3)
	`, link.AppointmentID, link.VaccineID, link.DoseNumber)
	if err != nil {
		return mapTxError(err)
	}

	_, err = t.q.ExecContext(ctx, `
		UPDATE immunization_obligations o
		SET appointment_id = a.id
		FROM appointments a
		WHERE a.id = $1
		  AND o.child_id = a.child_id
		  AND o.vaccine_id = $2
		  AND o.dose_number = $3
	`, link.AppointmentID, link.VaccineID, link.DoseNumber)
	return err
}

func (t *pgTx) GetObligation(ctx context.Context, key immunization.DoseKey) (immunization.Obligation, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT `+obligationColumns+`
		FROM immunization_obligations
		WHERE child_id = $1 AND vaccine_id = $2 AND dose_number = $3
		FOR UPDATE
	`, key.ChildID, key.VaccineID, key.DoseNumber)

	o, err := scanObligation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return immunization.Obligation{}, fmt.Errorf("%w: obligation %s", immunization.ErrNotFound, key)
	}
	return o, err
}

func (t *pgTx) UpdateObligationStatus(ctx context.Context, o immunization.Obligation) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE immunization_obligations SET
			due_date = $2,
			reschedule_count = $3,
			status = $4,
			administered_date = $5,
			administered_by = $6,
			notes = $7,
			updated_at = $8
		WHERE id = $1
	`,
		o.ID, o.DueDate, o.RescheduleCount, string(o.Status),
		nullTime(o.AdministeredDate), o.AdministeredBy, o.Notes, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res, "obligation "+o.ID)
}

func (t *pgTx) ListObligationsByChild(ctx context.Context, childID string) ([]immunization.Obligation, error) {
	return listObligations(ctx, t.q, childID)
}

func (t *pgTx) GetAppointment(ctx context.Context, id string) (immunization.Appointment, error) {
	row := t.q.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return immunization.Appointment{}, fmt.Errorf("%w: appointment %s", immunization.ErrNotFound, id)
	}
	return a, err
}

func (t *pgTx) ListAppointmentObligations(ctx context.Context, appointmentID string) ([]immunization.Obligation, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT `+obligationColumns+`
		FROM immunization_obligations
		WHERE (child_id, vaccine_id, dose_number) IN (
			SELECT a.child_id, d.vaccine_id, d.dose_number
			FROM appointment_doses d
			JOIN appointments a ON a.id = d.appointment_id
			WHERE d.appointment_id = $1
		)
		ORDER BY vaccine_id, dose_number
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectObligations(rows)
}

func (t *pgTx) UpdateAppointment(ctx context.Context, a immunization.Appointment) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE appointments SET scheduled_date = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $1
	`, a.ID, a.ScheduledDate, string(a.Status), a.Notes, a.UpdatedAt)
	if err != nil {
		return err
	}
	return requireOneRow(res, "appointment "+a.ID)
}

// DecrementStock nunca deja cantidades negativas: sin fila afectada => ErrInsufficientStock.
func (t *pgTx) DecrementStock(ctx context.Context, vaccineID string) (int, error) {
	var remaining int
	err := t.q.QueryRowContext(ctx, `
		UPDATE vaccine_stock SET quantity = quantity - 1
		WHERE vaccine_id = $1 AND quantity > 0
		RETURNING quantity
	`, vaccineID).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", immunization.ErrInsufficientStock, vaccineID)
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (t *pgTx) AppendTransition(ctx context.Context, tr immunization.Transition) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO dose_transitions (id, child_id, vaccine_id, dose_number, from_status, to_status, due_date, at, actor, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, tr.ID, tr.ChildID, tr.VaccineID, tr.DoseNumber, string(tr.From), string(tr.To), tr.DueDate, tr.At, tr.Actor, tr.Notes)
	return err
}

// ---------- helpers ----------

func listObligations(ctx context.Context, q querier, childID string) ([]immunization.Obligation, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+obligationColumns+`
		FROM immunization_obligations
		WHERE child_id = $1
		ORDER BY due_date ASC, vaccine_id ASC, dose_number ASC
	`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectObligations(rows)
}

func collectObligations(rows *sql.Rows) ([]immunization.Obligation, error) {
	out := make([]immunization.Obligation, 0)
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanObligation(s rowScanner) (immunization.Obligation, error) {
	var (
		o            immunization.Obligation
		status       string
		administered sql.NullTime
	)
	if err := s.Scan(
		&o.ID, &o.ChildID, &o.VaccineID, &o.VaccineName, &o.DoseNumber,
		&o.DueDate, &o.OriginalDueDate, &o.RescheduleCount, &status, &o.AppointmentID,
		&administered, &o.AdministeredBy, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return immunization.Obligation{}, err
	}
	o.Status = immunization.Status(status)
	if administered.Valid {
		at := administered.Time
		o.AdministeredDate = &at
	}
	return o, nil
}

func scanAppointment(s rowScanner) (immunization.Appointment, error) {
	var (
		a      immunization.Appointment
		status string
	)
	if err := s.Scan(&a.ID, &a.ChildID, &a.ScheduledDate, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return immunization.Appointment{}, err
	}
	a.Status = immunization.AppointmentStatus(status)
	return a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", immunization.ErrNotFound, what)
	}
	return nil
}
