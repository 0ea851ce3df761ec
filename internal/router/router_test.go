package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"immunization-scheduler/internal/adapters/notification/console"
	"immunization-scheduler/internal/router"
)

func newTestServer(t *testing.T) (*httptest.Server, *console.Notifier) {
	t.Helper()
	notifier := console.New(nil)
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Notifier:  notifier,
		GraceDays: 7,
		Stock:     map[string]int{"BCG": 5, "HEPB": 5, "OPV": 5},
	}))
	t.Cleanup(ts.Close)
	return ts, notifier
}

func TestHTTP_EndToEnd_ScheduleLifecycle(t *testing.T) {
	ts, notifier := newTestServer(t)
	nurse := "nurse-1"

	// 1) Alta de un niño de ~2 meses: genera el calendario completo
	birth := time.Now().UTC().AddDate(0, 0, -60).Format("2006-01-02")
	childID := registerChild(t, ts.URL, map[string]any{
		"name":           "Ana",
		"sex":            "female",
		"birth_date":     birth,
		"guardian_name":  "Laura",
		"guardian_phone": "+5491100000000",
	})

	if len(notifier.Sent()) != 1 {
		t.Fatalf("expected 1 reminder after registration, got %d", len(notifier.Sent()))
	}

	// 2) Calendario: 16 dosis, BCG ya vencida
	{
		st, body := doReq(t, ts.URL, "GET", "/children/"+childID+"/schedule", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 schedule, got %d body=%s", st, string(body))
		}
		var out struct {
			Obligations []struct {
				VaccineID  string `json:"vaccine_id"`
				DoseNumber int    `json:"dose_number"`
				Status     string `json:"status"`
			} `json:"obligations"`
			Appointments []map[string]any `json:"appointments"`
		}
		mustJSON(t, body, &out)
		if len(out.Obligations) != 16 || len(out.Appointments) != 16 {
			t.Fatalf("expected 16 obligations/appointments, got %d/%d", len(out.Obligations), len(out.Appointments))
		}
		for _, o := range out.Obligations {
			if o.VaccineID == "BCG" && o.Status != "missed" {
				t.Fatalf("expected overdue BCG to read as missed, got %s", o.Status)
			}
		}
	}

	// 3) Generar de nuevo => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/children/"+childID+"/schedule", "", nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 on second generation, got %d", st)
		}
	}

	// 4) Registrar sin personal autenticado => 401
	dose := map[string]any{"vaccine_id": "BCG", "dose_number": 1, "outcome": "administered"}
	{
		st, _ := doReq(t, ts.URL, "POST", "/children/"+childID+"/doses", "", dose)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without staff, got %d", st)
		}
	}

	// 5) Aplicar BCG (vencida pero aplicable)
	{
		st, body := doReq(t, ts.URL, "POST", "/children/"+childID+"/doses", nurse, dose)
		if st != http.StatusOK {
			t.Fatalf("expected 200 recording dose, got %d body=%s", st, string(body))
		}
		var out struct {
			Obligation struct {
				Status         string `json:"status"`
				AdministeredBy string `json:"administered_by"`
			} `json:"obligation"`
			Warnings []string        `json:"warnings"`
			NextDue  json.RawMessage `json:"next_due"`
		}
		mustJSON(t, body, &out)
		if out.Obligation.Status != "administered" || out.Obligation.AdministeredBy != nurse {
			t.Fatalf("unexpected obligation: %+v", out.Obligation)
		}
		if len(out.Warnings) != 0 {
			t.Fatalf("expected no stock warnings, got %v", out.Warnings)
		}
		if len(out.NextDue) == 0 {
			t.Fatalf("expected next_due in response")
		}
	}

	// 6) Segunda aplicación de la misma dosis => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/children/"+childID+"/doses", nurse, dose)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 on double administration, got %d", st)
		}
	}

	// 7) Reprogramar OPV 1 (vencida a las 6 semanas)
	{
		st, body := doReq(t, ts.URL, "POST", "/children/"+childID+"/doses/OPV/1/reschedule", nurse, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 reschedule, got %d body=%s", st, string(body))
		}
		var out struct {
			Obligation struct {
				Status          string `json:"status"`
				DueDate         string `json:"due_date"`
				RescheduleCount int    `json:"reschedule_count"`
			} `json:"obligation"`
		}
		mustJSON(t, body, &out)
		want := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
		if out.Obligation.Status != "rescheduled" || out.Obligation.DueDate != want || out.Obligation.RescheduleCount != 1 {
			t.Fatalf("unexpected rescheduled obligation: %+v (want due %s)", out.Obligation, want)
		}
	}

	// 8) Cancelar MR 1; cancelar otra vez => 409
	{
		st, body := doReq(t, ts.URL, "POST", "/children/"+childID+"/doses/MR/1/cancel", nurse, map[string]any{"notes": "contraindicada"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "POST", "/children/"+childID+"/doses/MR/1/cancel", nurse, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 cancelling twice, got %d", st)
		}
	}

	// 9) Historial: 16 altas + aplicación + reprogramación + cancelación
	{
		st, body := doReq(t, ts.URL, "GET", "/children/"+childID+"/history", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 history, got %d", st)
		}
		var out []map[string]any
		mustJSON(t, body, &out)
		if len(out) != 19 {
			t.Fatalf("expected 19 transitions, got %d", len(out))
		}
	}

	// 10) Próxima dosis sigue existiendo
	{
		st, _ := doReq(t, ts.URL, "GET", "/children/"+childID+"/next-dose", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 next-dose, got %d", st)
		}
	}
}

func TestHTTP_RegisterChild_Validation(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []map[string]any{
		{"name": "Ana"},
		{"name": " ", "birth_date": "2024-01-01"},
		{"name": "Ana", "birth_date": "01/02/2024"},
		{"name": "Ana", "birth_date": "2024-01-01", "guardian_phone": "555-1234"},
		{"name": "Ana", "birth_date": "2024-01-01", "sex": "x"},
	}
	for _, payload := range cases {
		st, body := doReq(t, ts.URL, "POST", "/children", "", payload)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for %v, got %d body=%s", payload, st, string(body))
		}
	}
}

func TestHTTP_UnknownChild(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/children/nope", "/children/nope/schedule", "/children/nope/next-dose"} {
		st, _ := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, st)
		}
	}
}

func TestHTTP_HealthAndProtocol(t *testing.T) {
	ts, _ := newTestServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected health: %d %s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/protocol", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 protocol, got %d", st)
	}
	var entries []map[string]any
	mustJSON(t, body, &entries)
	if len(entries) != 16 {
		t.Fatalf("expected 16 protocol entries, got %d", len(entries))
	}
}

// helpers

func registerChild(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/children", "", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 creating child, got %d body=%s", st, string(body))
	}

	var out struct {
		Child struct {
			ID string `json:"id"`
		} `json:"child"`
		Schedule *struct {
			ObligationsCreated int `json:"obligations_created"`
		} `json:"schedule"`
	}
	mustJSON(t, body, &out)
	if out.Child.ID == "" {
		t.Fatalf("expected child id in response: %s", string(body))
	}
	if out.Schedule == nil || out.Schedule.ObligationsCreated != 16 {
		t.Fatalf("expected 16 obligations created, got %s", string(body))
	}
	return out.Child.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func mustJSON(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, string(b))
	}
}
