package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"immunization-scheduler/internal/domain/immunization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testObligation(id, childID, vaccineID string, dose int, due time.Time) immunization.Obligation {
	return immunization.Obligation{
		ID:              id,
		ChildID:         childID,
		VaccineID:       vaccineID,
		DoseNumber:      dose,
		DueDate:         due,
		OriginalDueDate: due,
		Status:          immunization.StatusScheduled,
		AppointmentID:   "appt-" + id,
	}
}

func seed(t *testing.T, s *ImmunizationStore, obls ...immunization.Obligation) {
	t.Helper()
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		if err := tx.InsertObligations(ctx, obls); err != nil {
			return err
		}
		for _, o := range obls {
			if err := tx.InsertAppointment(ctx, immunization.Appointment{ID: o.AppointmentID, ChildID: o.ChildID, ScheduledDate: o.DueDate, Status: immunization.AppointmentScheduled}); err != nil {
				return err
			}
			if err := tx.LinkAppointmentDose(ctx, immunization.AppointmentDose{AppointmentID: o.AppointmentID, VaccineID: o.VaccineID, DoseNumber: o.DoseNumber}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestImmunizationStore_CommitAndRollback(t *testing.T) {
	s := NewImmunizationStore()
	ctx := context.Background()
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed(t, s, testObligation("o1", "c1", "BCG", 1, d))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx immunization.Tx) error {
		if err := tx.InsertObligations(ctx, []immunization.Obligation{testObligation("o2", "c1", "OPV", 1, d)}); err != nil {
			return err
		}
		if err := tx.AppendTransition(ctx, immunization.Transition{ID: "t1", ChildID: "c1"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	obls, err := s.ListObligationsByChild(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, obls, 1)
	assert.Equal(t, "o1", obls[0].ID)

	hist, _ := s.ListTransitionsByChild(ctx, "c1")
	assert.Empty(t, hist)
}

func TestImmunizationStore_UniqueDoseKey(t *testing.T) {
	s := NewImmunizationStore()
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, s, testObligation("o1", "c1", "BCG", 1, d))

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		return tx.InsertObligations(ctx, []immunization.Obligation{testObligation("o9", "c1", "BCG", 1, d)})
	})
	assert.ErrorIs(t, err, immunization.ErrDuplicateObligation)
	assert.ErrorIs(t, err, immunization.ErrConflict)

	// otro niño, misma vacuna/dosis: permitido
	seed(t, s, testObligation("o2", "c2", "BCG", 1, d))
}

func TestImmunizationStore_AppointmentObligationsSeeTxWrites(t *testing.T) {
	s := NewImmunizationStore()
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, s, testObligation("o1", "c1", "BCG", 1, d))

	err := s.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		o, err := tx.GetObligation(ctx, immunization.DoseKey{ChildID: "c1", VaccineID: "BCG", DoseNumber: 1})
		if err != nil {
			return err
		}
		o.Status = immunization.StatusAdministered
		if err := tx.UpdateObligationStatus(ctx, o); err != nil {
			return err
		}

		doses, err := tx.ListAppointmentObligations(ctx, o.AppointmentID)
		if err != nil {
			return err
		}
		require.Len(t, doses, 1)
		assert.Equal(t, immunization.StatusAdministered, doses[0].Status)
		return nil
	})
	require.NoError(t, err)
}

func TestImmunizationStore_NotFound(t *testing.T) {
	s := NewImmunizationStore()
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		_, err := tx.GetObligation(ctx, immunization.DoseKey{ChildID: "c", VaccineID: "X", DoseNumber: 1})
		return err
	})
	assert.ErrorIs(t, err, immunization.ErrNotFound)
}

func TestImmunizationStore_Stock(t *testing.T) {
	s := NewImmunizationStore()
	s.SetStock("BCG", 1)

	var remaining int
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		var err error
		remaining, err = tx.DecrementStock(ctx, "BCG")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	err = s.WithinTx(context.Background(), func(ctx context.Context, tx immunization.Tx) error {
		_, err := tx.DecrementStock(ctx, "BCG")
		return err
	})
	assert.ErrorIs(t, err, immunization.ErrInsufficientStock)
	assert.Equal(t, 0, s.Stock("BCG"))
}

func TestImmunizationStore_CancelledContext(t *testing.T) {
	s := NewImmunizationStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(ctx context.Context, tx immunization.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, immunization.ErrUnavailable)
	assert.False(t, called)
}
