package immunization

import (
	"sort"
	"time"

	"immunization-scheduler/internal/domain/protocol"
)

// Resolve determina la siguiente dosis accionable de un niño. nil => serie completa.
//
//  1. Si current != nil y existe (vacuna, dosis+1) no administrada ni cancelada, esa es la siguiente.
//  2. Si no: catálogo - administradas - pendientes no vencidas - canceladas,
//     ordenado por fecha desde el nacimiento, dosis y vacuna. La primera.
//  3. Si esa diferencia queda vacía pero hay dosis pendientes a futuro, la más próxima (Existing).
//
// Para una dosis sin obligación la fecha es DueDate(birth); si ya pasó se corre a hoy + graceDays.
func Resolve(entries []protocol.Entry, birth time.Time, obligations []Obligation, current *protocol.Key, now time.Time, graceDays int) *NextDose {
	byKey := make(map[protocol.Key]Obligation, len(obligations))
	for _, o := range obligations {
		byKey[protocol.Key{VaccineID: o.VaccineID, DoseNumber: o.DoseNumber}] = o
	}

	if current != nil {
		if e, ok := protocol.Find(entries, current.VaccineID, current.DoseNumber+1); ok {
			o, exists := byKey[e.Key()]
			if !exists {
				return &NextDose{Entry: e, DueDate: flooredDueDate(birth, e, now, graceDays)}
			}
			if !o.Status.Terminal() {
				return existingNext(e, o)
			}
		}
	}

	today := protocol.DateOf(now)
	type candidate struct {
		entry protocol.Entry
		due   time.Time
	}
	candidates := make([]candidate, 0, len(entries))

	for _, e := range entries {
		if o, exists := byKey[e.Key()]; exists {
			if o.Status.Terminal() || o.upcoming(now) {
				continue
			}
		}
		candidates = append(candidates, candidate{entry: e, due: protocol.DueDate(birth, e)})
	}
	if len(candidates) == 0 {
		return earliestUpcoming(entries, byKey, now)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.due.Equal(b.due) {
			return a.due.Before(b.due)
		}
		if a.entry.DoseNumber != b.entry.DoseNumber {
			return a.entry.DoseNumber < b.entry.DoseNumber
		}
		return a.entry.VaccineID < b.entry.VaccineID
	})

	first := candidates[0]
	if o, exists := byKey[first.entry.Key()]; exists {
		return existingNext(first.entry, o)
	}

	due := first.due
	if due.Before(today) {
		due = today.AddDate(0, 0, graceDays)
	}
	return &NextDose{Entry: first.entry, DueDate: due}
}

// earliestUpcoming: la pendiente no vencida con fecha más cercana; nil si no queda ninguna.
func earliestUpcoming(entries []protocol.Entry, byKey map[protocol.Key]Obligation, now time.Time) *NextDose {
	var (
		best  Obligation
		bestE protocol.Entry
		found bool
	)
	for _, e := range entries {
		o, exists := byKey[e.Key()]
		if !exists || !o.upcoming(now) {
			continue
		}
		if !found || o.DueDate.Before(best.DueDate) ||
			(o.DueDate.Equal(best.DueDate) && (o.DoseNumber < best.DoseNumber ||
				(o.DoseNumber == best.DoseNumber && o.VaccineID < best.VaccineID))) {
			best, bestE, found = o, e, true
		}
	}
	if !found {
		return nil
	}
	return existingNext(bestE, best)
}

func flooredDueDate(birth time.Time, e protocol.Entry, now time.Time, graceDays int) time.Time {
	due := protocol.DueDate(birth, e)
	today := protocol.DateOf(now)
	if due.Before(today) {
		return today.AddDate(0, 0, graceDays)
	}
	return due
}

func existingNext(e protocol.Entry, o Obligation) *NextDose {
	cp := o
	return &NextDose{Entry: e, DueDate: o.DueDate, Existing: true, Obligation: &cp}
}

// latestAdministered devuelve la última dosis administrada (la serie "en curso").
func latestAdministered(obligations []Obligation) *protocol.Key {
	var best *Obligation
	for i := range obligations {
		o := obligations[i]
		if o.Status != StatusAdministered || o.AdministeredDate == nil {
			continue
		}
		if best == nil ||
			o.AdministeredDate.After(*best.AdministeredDate) ||
			(o.AdministeredDate.Equal(*best.AdministeredDate) && o.UpdatedAt.After(best.UpdatedAt)) {
			best = &obligations[i]
		}
	}
	if best == nil {
		return nil
	}
	return &protocol.Key{VaccineID: best.VaccineID, DoseNumber: best.DoseNumber}
}
