package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"immunization-scheduler/internal/domain/immunization"
)

// immunizationState es todo lo que una transacción puede tocar.
type immunizationState struct {
	obligations  map[string]immunization.Obligation // por ID
	byKey        map[immunization.DoseKey]string    // unicidad (niño, vacuna, dosis)
	appointments map[string]immunization.Appointment
	links        map[string][]immunization.AppointmentDose // por appointment ID
	transitions  []immunization.Transition
	stock        map[string]int // vacunas sin entrada: sin stock
}

func newImmunizationState() *immunizationState {
	return &immunizationState{
		obligations:  make(map[string]immunization.Obligation),
		byKey:        make(map[immunization.DoseKey]string),
		appointments: make(map[string]immunization.Appointment),
		links:        make(map[string][]immunization.AppointmentDose),
		stock:        make(map[string]int),
	}
}

func (s *immunizationState) clone() *immunizationState {
	out := newImmunizationState()
	for k, v := range s.obligations {
		out.obligations[k] = v
	}
	for k, v := range s.byKey {
		out.byKey[k] = v
	}
	for k, v := range s.appointments {
		out.appointments[k] = v
	}
	for k, v := range s.links {
		out.links[k] = append([]immunization.AppointmentDose(nil), v...)
	}
	out.transitions = append([]immunization.Transition(nil), s.transitions...)
	for k, v := range s.stock {
		out.stock[k] = v
	}
	return out
}

// ImmunizationStore serializa las transacciones: cada una trabaja sobre una copia
// del estado que solo se publica si fn devuelve nil.
type ImmunizationStore struct {
	mu    sync.RWMutex
	state *immunizationState
}

func NewImmunizationStore() *ImmunizationStore {
	return &ImmunizationStore{state: newImmunizationState()}
}

// SetStock fija las unidades disponibles de una vacuna (seed de dev/tests).
func (s *ImmunizationStore) SetStock(vaccineID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.stock[vaccineID] = quantity
}

func (s *ImmunizationStore) Stock(vaccineID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.stock[vaccineID]
}

func (s *ImmunizationStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx immunization.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", immunization.ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *ImmunizationStore) ListObligationsByChild(ctx context.Context, childID string) ([]immunization.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return obligationsOf(s.state, childID), nil
}

func (s *ImmunizationStore) ListAppointmentsByChild(ctx context.Context, childID string) ([]immunization.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]immunization.Appointment, 0)
	for _, a := range s.state.appointments {
		if a.ChildID == childID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledDate.Before(out[j].ScheduledDate)
	})
	return out, nil
}

func (s *ImmunizationStore) ListTransitionsByChild(ctx context.Context, childID string) ([]immunization.Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]immunization.Transition, 0)
	for _, t := range s.state.transitions {
		if t.ChildID == childID {
			out = append(out, t)
		}
	}
	return out, nil
}

// obligationsOf ordena por fecha, vacuna y dosis.
func obligationsOf(st *immunizationState, childID string) []immunization.Obligation {
	out := make([]immunization.Obligation, 0)
	for _, o := range st.obligations {
		if o.ChildID == childID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.VaccineID != b.VaccineID {
			return a.VaccineID < b.VaccineID
		}
		return a.DoseNumber < b.DoseNumber
	})
	return out
}

type memTx struct {
	st *immunizationState
}

func (t *memTx) InsertObligations(ctx context.Context, batch []immunization.Obligation) error {
	for _, o := range batch {
		if strings.TrimSpace(o.ID) == "" {
			return fmt.Errorf("%w: obligation id required", immunization.ErrValidation)
		}
		if _, exists := t.st.byKey[o.Key()]; exists {
			return fmt.Errorf("%w: %s", immunization.ErrDuplicateObligation, o.Key())
		}
		if _, exists := t.st.obligations[o.ID]; exists {
			return fmt.Errorf("%w: %s", immunization.ErrDuplicateObligation, o.ID)
		}
		t.st.obligations[o.ID] = o
		t.st.byKey[o.Key()] = o.ID
	}
	return nil
}

func (t *memTx) InsertAppointment(ctx context.Context, a immunization.Appointment) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: appointment id required", immunization.ErrValidation)
	}
	if _, exists := t.st.appointments[a.ID]; exists {
		return fmt.Errorf("%w: appointment %s", immunization.ErrConflict, a.ID)
	}
	t.st.appointments[a.ID] = a
	return nil
}

func (t *memTx) LinkAppointmentDose(ctx context.Context, link immunization.AppointmentDose) error {
	if _, ok := t.st.appointments[link.AppointmentID]; !ok {
		return fmt.Errorf("%w: appointment %s", immunization.ErrNotFound, link.AppointmentID)
	}
	for _, l := range t.st.links[link.AppointmentID] {
		if l.VaccineID == link.VaccineID && l.DoseNumber == link.DoseNumber {
			return fmt.Errorf("%w: dose already linked", immunization.ErrConflict)
		}
	}
	t.st.links[link.AppointmentID] = append(t.st.links[link.AppointmentID], link)
	return nil
}

func (t *memTx) GetObligation(ctx context.Context, key immunization.DoseKey) (immunization.Obligation, error) {
	id, ok := t.st.byKey[key]
	if !ok {
		return immunization.Obligation{}, fmt.Errorf("%w: obligation %s", immunization.ErrNotFound, key)
	}
	return t.st.obligations[id], nil
}

func (t *memTx) UpdateObligationStatus(ctx context.Context, o immunization.Obligation) error {
	cur, ok := t.st.obligations[o.ID]
	if !ok {
		return fmt.Errorf("%w: obligation %s", immunization.ErrNotFound, o.ID)
	}
	// la identidad no cambia
	o.ChildID, o.VaccineID, o.DoseNumber = cur.ChildID, cur.VaccineID, cur.DoseNumber
	o.CreatedAt = cur.CreatedAt
	t.st.obligations[o.ID] = o
	return nil
}

func (t *memTx) ListObligationsByChild(ctx context.Context, childID string) ([]immunization.Obligation, error) {
	return obligationsOf(t.st, childID), nil
}

func (t *memTx) GetAppointment(ctx context.Context, id string) (immunization.Appointment, error) {
	a, ok := t.st.appointments[id]
	if !ok {
		return immunization.Appointment{}, fmt.Errorf("%w: appointment %s", immunization.ErrNotFound, id)
	}
	return a, nil
}

func (t *memTx) ListAppointmentObligations(ctx context.Context, appointmentID string) ([]immunization.Obligation, error) {
	a, ok := t.st.appointments[appointmentID]
	if !ok {
		return nil, fmt.Errorf("%w: appointment %s", immunization.ErrNotFound, appointmentID)
	}

	out := make([]immunization.Obligation, 0, len(t.st.links[appointmentID]))
	for _, l := range t.st.links[appointmentID] {
		key := immunization.DoseKey{ChildID: a.ChildID, VaccineID: l.VaccineID, DoseNumber: l.DoseNumber}
		if id, ok := t.st.byKey[key]; ok {
			out = append(out, t.st.obligations[id])
		}
	}
	return out, nil
}

func (t *memTx) UpdateAppointment(ctx context.Context, a immunization.Appointment) error {
	cur, ok := t.st.appointments[a.ID]
	if !ok {
		return fmt.Errorf("%w: appointment %s", immunization.ErrNotFound, a.ID)
	}
	a.ChildID = cur.ChildID
	a.CreatedAt = cur.CreatedAt
	t.st.appointments[a.ID] = a
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, vaccineID string) (int, error) {
	q := t.st.stock[vaccineID]
	if q <= 0 {
		return 0, fmt.Errorf("%w: %s", immunization.ErrInsufficientStock, vaccineID)
	}
	q--
	t.st.stock[vaccineID] = q
	return q, nil
}

func (t *memTx) AppendTransition(ctx context.Context, tr immunization.Transition) error {
	t.st.transitions = append(t.st.transitions, tr)
	return nil
}
