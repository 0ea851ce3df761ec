package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"immunization-scheduler/internal/domain/immunization"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var obligationCols = []string{
	"id", "child_id", "vaccine_id", "vaccine_name", "dose_number",
	"due_date", "original_due_date", "reschedule_count", "status", "appointment_id",
	"administered_date", "administered_by", "notes", "created_at", "updated_at",
}

func sampleObligation() immunization.Obligation {
	due := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return immunization.Obligation{
		ID:              "o1",
		ChildID:         "c1",
		VaccineID:       "OPV",
		VaccineName:     "Polio oral",
		DoseNumber:      1,
		DueDate:         due,
		OriginalDueDate: due,
		Status:          immunization.StatusScheduled,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestWithinTx_Commit(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO immunization_obligations`).
		WithArgs("o1", "c1", "OPV", "Polio oral", 1,
			sqlmock.AnyArg(), sqlmock.AnyArg(), 0, "scheduled",
			nil, "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		return tx.InsertObligations(ctx, []immunization.Obligation{sampleObligation()})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_UniqueViolationRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO immunization_obligations`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "immunization_obligations_dose_key"})
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		return tx.InsertObligations(ctx, []immunization.Obligation{sampleObligation()})
	})

	assert.ErrorIs(t, err, immunization.ErrDuplicateObligation)
	assert.ErrorIs(t, err, immunization.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_DomainErrorRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		return immunization.ErrInvalidTransition
	})

	assert.ErrorIs(t, err, immunization.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_BeginFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, immunization.ErrUnavailable)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error { return nil })
	assert.ErrorIs(t, err, immunization.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_SerializationFailureIsConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: serializationFailure})

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error { return nil })
	assert.ErrorIs(t, err, immunization.ErrConflict)
	assert.NotErrorIs(t, err, immunization.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetObligation_LocksRow(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)
	o := sampleObligation()
	administered := time.Date(2024, 2, 12, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM immunization_obligations\s+WHERE child_id = \$1 AND vaccine_id = \$2 AND dose_number = \$3\s+FOR UPDATE`).
		WithArgs("c1", "OPV", 1).
		WillReturnRows(sqlmock.NewRows(obligationCols).AddRow(
			o.ID, o.ChildID, o.VaccineID, o.VaccineName, o.DoseNumber,
			o.DueDate, o.OriginalDueDate, 0, "administered", "a1",
			administered, "dra. pérez", "", o.CreatedAt, o.UpdatedAt,
		))
	mock.ExpectCommit()

	var got immunization.Obligation
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		var err error
		got, err = tx.GetObligation(ctx, o.Key())
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, immunization.StatusAdministered, got.Status)
	assert.Equal(t, "a1", got.AppointmentID)
	require.NotNil(t, got.AdministeredDate)
	assert.Equal(t, administered, *got.AdministeredDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetObligation_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows(obligationCols))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		_, err := tx.GetObligation(ctx, immunization.DoseKey{ChildID: "c1", VaccineID: "MR", DoseNumber: 2})
		return err
	})

	assert.ErrorIs(t, err, immunization.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStock(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE vaccine_stock SET quantity = quantity - 1`).
		WithArgs("OPV").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(0))
	mock.ExpectQuery(`UPDATE vaccine_stock SET quantity = quantity - 1`).
		WithArgs("OPV").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}))
	mock.ExpectCommit()

	var remaining int
	var second error
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		var err error
		remaining, err = tx.DecrementStock(ctx, "OPV")
		if err != nil {
			return err
		}
		_, second = tx.DecrementStock(ctx, "OPV")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
	assert.ErrorIs(t, second, immunization.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateObligationStatus_MissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE immunization_obligations SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		return tx.UpdateObligationStatus(ctx, sampleObligation())
	})

	assert.ErrorIs(t, err, immunization.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkAppointmentDose_SetsObligationAppointment(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO appointment_doses`).
		WithArgs("a1", "OPV", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE immunization_obligations o\s+SET appointment_id = a.id`).
		WithArgs("a1", "OPV", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		return tx.LinkAppointmentDose(ctx, immunization.AppointmentDose{AppointmentID: "a1", VaccineID: "OPV", DoseNumber: 1})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListObligationsByChild(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)
	o := sampleObligation()

	mock.ExpectQuery(`FROM immunization_obligations\s+WHERE child_id = \$1\s+ORDER BY due_date`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(obligationCols).AddRow(
			o.ID, o.ChildID, o.VaccineID, o.VaccineName, o.DoseNumber,
			o.DueDate, o.OriginalDueDate, 0, "scheduled", "a1",
			nil, "", "", o.CreatedAt, o.UpdatedAt,
		))

	got, err := store.ListObligationsByChild(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "OPV", got[0].VaccineID)
	assert.Equal(t, immunization.StatusScheduled, got[0].Status)
	assert.Nil(t, got[0].AdministeredDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransitionsByChild(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewImmunizationStore(db)
	at := time.Date(2024, 2, 12, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM dose_transitions`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "child_id", "vaccine_id", "dose_number", "from_status", "to_status", "due_date", "at", "actor", "notes"}).
			AddRow("t1", "c1", "OPV", 1, "", "scheduled", at, at, "system", "").
			AddRow("t2", "c1", "OPV", 1, "scheduled", "administered", at, at, "nurse-1", ""))

	got, err := store.ListTransitionsByChild(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, immunization.Status(""), got[0].From)
	assert.Equal(t, immunization.StatusAdministered, got[1].To)
	assert.Equal(t, "nurse-1", got[1].Actor)
	assert.NoError(t, mock.ExpectationsWereMet())
}
