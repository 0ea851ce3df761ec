package postgres

import (
	"context"
	"database/sql"

	"immunization-scheduler/internal/domain/protocol"
)

// SeedCatalog carga el protocolo si la tabla está vacía y, con initialStock > 0,
// deja ese stock para cada vacuna del protocolo. Devuelve true si sembró.
func SeedCatalog(ctx context.Context, db *sql.DB, entries []protocol.Entry, initialStock int) (bool, error) {
	protocols := NewProtocolRepo(db)
	existing, err := protocols.List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, e := range entries {
		if err := protocols.Upsert(ctx, e); err != nil {
			return false, err
		}
	}
	if initialStock > 0 {
		store := NewImmunizationStore(db)
		for _, vaccineID := range protocol.VaccineIDs(entries) {
			if err := store.SetStock(ctx, vaccineID, initialStock); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}
