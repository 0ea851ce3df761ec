package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"immunization-scheduler/internal/domain/protocol"
)

type ProtocolRepo struct {
	db *sql.DB
}

func NewProtocolRepo(db *sql.DB) *ProtocolRepo {
	return &ProtocolRepo{db: db}
}

func (r *ProtocolRepo) List(ctx context.Context) ([]protocol.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT vaccine_id, vaccine_name, dose_number, offset_unit, offset_value, required, notes
		FROM vaccine_protocols
		ORDER BY vaccine_id, dose_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]protocol.Entry, 0)
	for rows.Next() {
		var (
			in   protocol.EntryInput
			unit string
		)
		if err := rows.Scan(&in.VaccineID, &in.VaccineName, &in.DoseNumber, &unit, &in.Value, &in.Required, &in.Notes); err != nil {
			return nil, err
		}
		u, err := protocol.ParseUnit(unit)
		if err != nil {
			return nil, err
		}
		in.Unit = u

		e, err := protocol.NewEntry(in)
		if err != nil {
			return nil, fmt.Errorf("vaccine_protocols row %s/%d: %w", in.VaccineID, in.DoseNumber, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Upsert carga/actualiza una entrada del catálogo (seed).
func (r *ProtocolRepo) Upsert(ctx context.Context, e protocol.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccine_protocols (vaccine_id, vaccine_name, dose_number, offset_unit, offset_value, required, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (vaccine_id, dose_number) DO UPDATE SET
			vaccine_name = EXCLUDED.vaccine_name,
			offset_unit  = EXCLUDED.offset_unit,
			offset_value = EXCLUDED.offset_value,
			required     = EXCLUDED.required,
			notes        = EXCLUDED.notes
	`, e.VaccineID, e.VaccineName, e.DoseNumber, string(e.Unit), e.Value, e.Required, e.Notes)
	return err
}
