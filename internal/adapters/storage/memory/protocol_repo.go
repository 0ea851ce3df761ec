package memory

import (
	"context"
	"sync"

	"immunization-scheduler/internal/domain/protocol"
)

type protocolRepo struct {
	mu      sync.RWMutex
	entries []protocol.Entry
}

// NewProtocolRepo guarda un catálogo fijo. Sin argumentos => catálogo vacío.
func NewProtocolRepo(entries ...protocol.Entry) protocol.Repository {
	cp := make([]protocol.Entry, len(entries))
	copy(cp, entries)
	return &protocolRepo{entries: cp}
}

func (r *protocolRepo) List(ctx context.Context) ([]protocol.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocol.Entry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

// DefaultProtocol es un esquema infantil básico para modo dev.
func DefaultProtocol() []protocol.Entry {
	type row struct {
		id, name string
		dose     int
		unit     protocol.Unit
		value    int
	}
	rows := []row{
		{"BCG", "BCG", 1, protocol.UnitDays, 0},
		{"HEPB", "Hepatitis B", 1, protocol.UnitDays, 0},
		{"OPV", "Polio oral", 1, protocol.UnitWeeks, 6},
		{"PENTA", "Pentavalente", 1, protocol.UnitWeeks, 6},
		{"PCV", "Neumococo conjugada", 1, protocol.UnitWeeks, 6},
		{"ROTA", "Rotavirus", 1, protocol.UnitWeeks, 6},
		{"OPV", "Polio oral", 2, protocol.UnitWeeks, 10},
		{"PENTA", "Pentavalente", 2, protocol.UnitWeeks, 10},
		{"PCV", "Neumococo conjugada", 2, protocol.UnitWeeks, 10},
		{"ROTA", "Rotavirus", 2, protocol.UnitWeeks, 10},
		{"OPV", "Polio oral", 3, protocol.UnitWeeks, 14},
		{"PENTA", "Pentavalente", 3, protocol.UnitWeeks, 14},
		{"PCV", "Neumococo conjugada", 3, protocol.UnitWeeks, 14},
		{"MR", "Sarampión-Rubéola", 1, protocol.UnitMonths, 9},
		{"YF", "Fiebre amarilla", 1, protocol.UnitMonths, 9},
		{"MR", "Sarampión-Rubéola", 2, protocol.UnitMonths, 15},
	}

	out := make([]protocol.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, protocol.Entry{
			VaccineID:   r.id,
			VaccineName: r.name,
			DoseNumber:  r.dose,
			Unit:        r.unit,
			Value:       r.value,
			Required:    true,
		})
	}
	return out
}
