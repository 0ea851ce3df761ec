package immunization

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"immunization-scheduler/internal/domain/protocol"
	"immunization-scheduler/internal/ports/notification"
)

// -------------------------
// Test store (in-memory, transacciones serializadas con copy-on-write)
// -------------------------

type testState struct {
	obligations  map[DoseKey]Obligation
	appointments map[string]Appointment
	links        map[string][]AppointmentDose
	transitions  []Transition
	stock        map[string]int
}

func (s testState) clone() testState {
	out := testState{
		obligations:  make(map[DoseKey]Obligation, len(s.obligations)),
		appointments: make(map[string]Appointment, len(s.appointments)),
		links:        make(map[string][]AppointmentDose, len(s.links)),
		transitions:  append([]Transition(nil), s.transitions...),
		stock:        make(map[string]int, len(s.stock)),
	}
	for k, v := range s.obligations {
		out.obligations[k] = v
	}
	for k, v := range s.appointments {
		out.appointments[k] = v
	}
	for k, v := range s.links {
		out.links[k] = append([]AppointmentDose(nil), v...)
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	return out
}

type testStore struct {
	mu sync.Mutex
	st testState

	// failAppointmentAt > 0: la N-ésima InsertAppointment de una tx falla.
	failAppointmentAt int
	unavailable       bool
}

func newTestStore() *testStore {
	return &testStore{st: testState{
		obligations:  map[DoseKey]Obligation{},
		appointments: map[string]Appointment{},
		links:        map[string][]AppointmentDose{},
		stock:        map[string]int{},
	}}
}

func (s *testStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return fmt.Errorf("%w: begin", ErrUnavailable)
	}
	work := s.st.clone()
	if err := fn(ctx, &testTx{st: &work, failAppointmentAt: s.failAppointmentAt}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *testStore) ListObligationsByChild(ctx context.Context, childID string) ([]Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listObligations(&s.st, childID), nil
}

func (s *testStore) ListAppointmentsByChild(ctx context.Context, childID string) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Appointment{}
	for _, a := range s.st.appointments {
		if a.ChildID == childID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

func (s *testStore) ListTransitionsByChild(ctx context.Context, childID string) ([]Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Transition{}
	for _, t := range s.st.transitions {
		if t.ChildID == childID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *testStore) setStock(vaccineID string, q int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stock[vaccineID] = q
}

func (s *testStore) stock(vaccineID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stock[vaccineID]
}

func (s *testStore) appointment(id string) Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.appointments[id]
}

func listObligations(st *testState, childID string) []Obligation {
	out := []Obligation{}
	for _, o := range st.obligations {
		if o.ChildID == childID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

type testTx struct {
	st                *testState
	appointments      int
	failAppointmentAt int
}

func (t *testTx) InsertObligations(ctx context.Context, batch []Obligation) error {
	for _, o := range batch {
		if _, ok := t.st.obligations[o.Key()]; ok {
			return ErrDuplicateObligation
		}
		t.st.obligations[o.Key()] = o
	}
	return nil
}

func (t *testTx) InsertAppointment(ctx context.Context, a Appointment) error {
	t.appointments++
	if t.failAppointmentAt > 0 && t.appointments == t.failAppointmentAt {
		return errors.New("disk full")
	}
	t.st.appointments[a.ID] = a
	return nil
}

func (t *testTx) LinkAppointmentDose(ctx context.Context, link AppointmentDose) error {
	t.st.links[link.AppointmentID] = append(t.st.links[link.AppointmentID], link)
	return nil
}

func (t *testTx) GetObligation(ctx context.Context, key DoseKey) (Obligation, error) {
	o, ok := t.st.obligations[key]
	if !ok {
		return Obligation{}, ErrNotFound
	}
	return o, nil
}

func (t *testTx) UpdateObligationStatus(ctx context.Context, o Obligation) error {
	if _, ok := t.st.obligations[o.Key()]; !ok {
		return ErrNotFound
	}
	t.st.obligations[o.Key()] = o
	return nil
}

func (t *testTx) ListObligationsByChild(ctx context.Context, childID string) ([]Obligation, error) {
	return listObligations(t.st, childID), nil
}

func (t *testTx) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	a, ok := t.st.appointments[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (t *testTx) ListAppointmentObligations(ctx context.Context, appointmentID string) ([]Obligation, error) {
	a := t.st.appointments[appointmentID]
	out := []Obligation{}
	for _, l := range t.st.links[appointmentID] {
		if o, ok := t.st.obligations[DoseKey{ChildID: a.ChildID, VaccineID: l.VaccineID, DoseNumber: l.DoseNumber}]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (t *testTx) UpdateAppointment(ctx context.Context, a Appointment) error {
	t.st.appointments[a.ID] = a
	return nil
}

func (t *testTx) DecrementStock(ctx context.Context, vaccineID string) (int, error) {
	q := t.st.stock[vaccineID]
	if q <= 0 {
		return 0, ErrInsufficientStock
	}
	t.st.stock[vaccineID] = q - 1
	return q - 1, nil
}

func (t *testTx) AppendTransition(ctx context.Context, tr Transition) error {
	t.st.transitions = append(t.st.transitions, tr)
	return nil
}

// -------------------------
// Catálogo, niños y notificador
// -------------------------

type testCatalog struct {
	entries []protocol.Entry
	err     error
}

func (c testCatalog) List(ctx context.Context) ([]protocol.Entry, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := append([]protocol.Entry(nil), c.entries...)
	protocol.Sort(out)
	return out, nil
}

type testChildren map[string]Child

func (c testChildren) LookupChild(ctx context.Context, childID string) (Child, error) {
	ch, ok := c[childID]
	if !ok {
		return Child{}, fmt.Errorf("%w: child %s", ErrNotFound, childID)
	}
	return ch, nil
}

type sentMessage struct {
	to, body string
}

type testNotifier struct {
	mu   sync.Mutex
	sent []sentMessage

	err      error
	rejected bool
}

func (n *testNotifier) Notify(ctx context.Context, destination, message string) (notification.Delivery, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return notification.Delivery{}, n.err
	}
	n.sent = append(n.sent, sentMessage{to: destination, body: message})
	if n.rejected {
		return notification.Delivery{Delivered: false, ErrorDetail: "invalid number"}, nil
	}
	return notification.Delivery{Delivered: true, ProviderReference: fmt.Sprintf("msg-%d", len(n.sent))}, nil
}

func (n *testNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

// -------------------------
// helpers
// -------------------------

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(vaccineID string, dose int, unit protocol.Unit, value int) protocol.Entry {
	return protocol.Entry{
		VaccineID:   vaccineID,
		VaccineName: vaccineID,
		DoseNumber:  dose,
		Unit:        unit,
		Value:       value,
		Required:    true,
	}
}

type fixture struct {
	svc      *Service
	store    *testStore
	notifier *testNotifier
	children testChildren
}

func newFixture(entries []protocol.Entry, now time.Time, kids ...Child) *fixture {
	store := newTestStore()
	n := &testNotifier{}
	ch := testChildren{}
	for _, k := range kids {
		ch[k.ID] = k
	}
	svc := NewService(store, testCatalog{entries: entries}, ch, Options{Notifier: n})
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, store: store, notifier: n, children: ch}
}
