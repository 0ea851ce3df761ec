package immunization

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"immunization-scheduler/internal/middleware"
	"immunization-scheduler/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Rutas completas (sin r.Route): /children/{childID} lo registra el módulo children.
	r.Get("/children/{childID}/schedule", getScheduleHandler(svc))
	r.Post("/children/{childID}/schedule", generateScheduleHandler(svc))
	r.Get("/children/{childID}/next-dose", nextDoseHandler(svc))
	r.Get("/children/{childID}/history", historyHandler(svc))

	// Registro clínico (requiere personal autenticado)
	r.Post("/children/{childID}/doses", recordDoseHandler(svc))
	r.Post("/children/{childID}/doses/{vaccineID}/{doseNumber}/reschedule", rescheduleHandler(svc))
	r.Post("/children/{childID}/doses/{vaccineID}/{doseNumber}/cancel", cancelHandler(svc))
}

// recordDoseRequest es el cuerpo para registrar el resultado de una dosis.
type recordDoseRequest struct {
	VaccineID        string `json:"vaccine_id" validate:"notblank"`
	DoseNumber       int    `json:"dose_number" validate:"gte=1"`
	Outcome          Status `json:"outcome" validate:"required,oneof=administered missed cancelled" enums:"administered,missed,cancelled"`
	AdministeredDate string `json:"administered_date" validate:"civildate"` // YYYY-MM-DD opcional, default hoy
	Notes            string `json:"notes"`
}

type rescheduleRequest struct {
	Date  string `json:"date" validate:"civildate"` // YYYY-MM-DD opcional, default hoy + gracia
	Notes string `json:"notes"`
}

type cancelRequest struct {
	Notes string `json:"notes"`
}

// obligationResponse es una dosis con su estado efectivo a la fecha de la consulta.
type obligationResponse struct {
	ID               string     `json:"id"`
	ChildID          string     `json:"child_id"`
	VaccineID        string     `json:"vaccine_id"`
	VaccineName      string     `json:"vaccine_name"`
	DoseNumber       int        `json:"dose_number"`
	DueDate          string     `json:"due_date"`
	OriginalDueDate  string     `json:"original_due_date"`
	RescheduleCount  int        `json:"reschedule_count"`
	Status           Status     `json:"status"`
	AppointmentID    string     `json:"appointment_id,omitempty"`
	AdministeredDate *time.Time `json:"administered_date,omitempty"`
	AdministeredBy   string     `json:"administered_by,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

type appointmentResponse struct {
	ID            string            `json:"id"`
	ChildID       string            `json:"child_id"`
	ScheduledDate string            `json:"scheduled_date"`
	Status        AppointmentStatus `json:"status"`
}

type nextDoseResponse struct {
	VaccineID   string `json:"vaccine_id"`
	VaccineName string `json:"vaccine_name"`
	DoseNumber  int    `json:"dose_number"`
	DueDate     string `json:"due_date"`
	Existing    bool   `json:"existing"`
}

type scheduleResponse struct {
	ChildID      string                `json:"child_id"`
	AsOf         string                `json:"as_of"`
	Obligations  []obligationResponse  `json:"obligations"`
	Appointments []appointmentResponse `json:"appointments"`
}

// GenerateResponse resume una generación de calendario (también lo usa el alta de niños).
type GenerateResponse struct {
	ChildID            string            `json:"child_id"`
	Outcome            Outcome           `json:"outcome" enums:"scheduled,no_protocol"`
	ObligationsCreated int               `json:"obligations_created"`
	NextDue            *nextDoseResponse `json:"next_due,omitempty"`
	NotificationError  string            `json:"notification_error,omitempty"`
}

type recordResponse struct {
	Obligation        obligationResponse   `json:"obligation"`
	Appointment       *appointmentResponse `json:"appointment,omitempty"`
	NextDue           *nextDoseResponse    `json:"next_due,omitempty"`
	Warnings          []string             `json:"warnings,omitempty"`
	NotificationError string               `json:"notification_error,omitempty"`
}

type transitionResponse struct {
	ID         string    `json:"id"`
	VaccineID  string    `json:"vaccine_id"`
	DoseNumber int       `json:"dose_number"`
	From       Status    `json:"from,omitempty"`
	To         Status    `json:"to"`
	DueDate    string    `json:"due_date"`
	At         time.Time `json:"at"`
	Actor      string    `json:"actor"`
	Notes      string    `json:"notes,omitempty"`
}

// getScheduleHandler godoc
// @Summary Calendario de vacunación de un niño
// @Description Devuelve todas las dosis (con estado efectivo a hoy) y las citas del niño.
// @Tags immunization
// @Produce json
// @Param childID path string true "ID del niño"
// @Success 200 {object} scheduleResponse
// @Failure 404 {string} string "child not found"
// @Router /children/{childID}/schedule [get]
func getScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Schedule(r.Context(), chi.URLParam(r, "childID"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := scheduleResponse{
			ChildID:      view.Child.ID,
			AsOf:         view.AsOf.Format(validation.DateLayout),
			Obligations:  make([]obligationResponse, 0, len(view.Obligations)),
			Appointments: make([]appointmentResponse, 0, len(view.Appointments)),
		}
		for _, o := range view.Obligations {
			out.Obligations = append(out.Obligations, toObligationResponse(o, view.AsOf))
		}
		for _, a := range view.Appointments {
			out.Appointments = append(out.Appointments, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// generateScheduleHandler godoc
// @Summary Generar calendario
// @Description Genera las dosis del protocolo que el niño todavía no tiene. Falla con 409 si ya las tiene todas.
// @Tags immunization
// @Produce json
// @Param childID path string true "ID del niño"
// @Success 201 {object} GenerateResponse
// @Success 200 {object} GenerateResponse "sin protocolo disponible (outcome no_protocol)"
// @Failure 404 {string} string "child not found"
// @Failure 409 {string} string "schedule already generated"
// @Failure 503 {string} string "storage unavailable"
// @Router /children/{childID}/schedule [post]
func generateScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.GenerateForChild(r.Context(), chi.URLParam(r, "childID"))
		if err != nil && !IsNotificationOnly(err) {
			writeError(w, err)
			return
		}

		status := http.StatusCreated
		if res.Outcome == OutcomeNoProtocol {
			status = http.StatusOK
		}
		writeJSON(w, status, ToGenerateResponse(res, err))
	}
}

// nextDoseHandler godoc
// @Summary Próxima dosis
// @Description Devuelve la siguiente dosis accionable del niño. 204 si la serie está completa.
// @Tags immunization
// @Produce json
// @Param childID path string true "ID del niño"
// @Success 200 {object} nextDoseResponse
// @Success 204 "serie completa"
// @Failure 404 {string} string "child not found"
// @Router /children/{childID}/next-dose [get]
func nextDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next, err := svc.ResolveNextDose(r.Context(), chi.URLParam(r, "childID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if next == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, toNextDoseResponse(next))
	}
}

// historyHandler godoc
// @Summary Historial de transiciones
// @Description Lista (append-only) de cambios de estado de las dosis del niño.
// @Tags immunization
// @Produce json
// @Param childID path string true "ID del niño"
// @Success 200 {array} transitionResponse
// @Failure 404 {string} string "child not found"
// @Router /children/{childID}/history [get]
func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.History(r.Context(), chi.URLParam(r, "childID"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]transitionResponse, 0, len(items))
		for _, t := range items {
			out = append(out, transitionResponse{
				ID:         t.ID,
				VaccineID:  t.VaccineID,
				DoseNumber: t.DoseNumber,
				From:       t.From,
				To:         t.To,
				DueDate:    t.DueDate.Format(validation.DateLayout),
				At:         t.At,
				Actor:      t.Actor,
				Notes:      t.Notes,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// recordDoseHandler godoc
// @Summary Registrar dosis
// @Description Registra el resultado de una dosis (administered, missed, cancelled). Si se administra, crea la siguiente dosis cuando falta. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags immunization
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID del profesional"
// @Param Authorization header string false "Bearer token en producción"
// @Param childID path string true "ID del niño"
// @Param payload body recordDoseRequest true "Resultado de la dosis"
// @Success 200 {object} recordResponse
// @Failure 400 {string} string "validation error"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "conflict"
// @Failure 503 {string} string "storage unavailable"
// @Router /children/{childID}/doses [post]
func recordDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, ok := staffFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req recordDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		date, _ := validation.ParseDate(req.AdministeredDate)

		res, err := svc.RecordDose(r.Context(), RecordInput{
			ChildID:          chi.URLParam(r, "childID"),
			VaccineID:        req.VaccineID,
			DoseNumber:       req.DoseNumber,
			Outcome:          req.Outcome,
			AdministeredDate: date,
			AdministeredBy:   staffID,
			Notes:            req.Notes,
		})
		if err != nil && !IsNotificationOnly(err) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(res, svc.Now(), err))
	}
}

// rescheduleHandler godoc
// @Summary Reprogramar dosis vencida
// @Description Mueve una dosis vencida a una nueva fecha (por defecto hoy + días de gracia) y avisa al tutor.
// @Tags immunization
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID del profesional"
// @Param Authorization header string false "Bearer token en producción"
// @Param childID path string true "ID del niño"
// @Param vaccineID path string true "ID de la vacuna"
// @Param doseNumber path int true "Número de dosis"
// @Param payload body rescheduleRequest false "Nueva fecha opcional"
// @Success 200 {object} recordResponse
// @Failure 400 {string} string "validation error"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "invalid transition"
// @Router /children/{childID}/doses/{vaccineID}/{doseNumber}/reschedule [post]
func rescheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, ok := staffFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dose, err := strconv.Atoi(chi.URLParam(r, "doseNumber"))
		if err != nil {
			http.Error(w, "dose_number must be an integer", http.StatusBadRequest)
			return
		}

		var req rescheduleRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		date, _ := validation.ParseDate(req.Date)

		res, err := svc.Reschedule(r.Context(), RescheduleInput{
			ChildID:    chi.URLParam(r, "childID"),
			VaccineID:  chi.URLParam(r, "vaccineID"),
			DoseNumber: dose,
			Date:       date,
			Actor:      staffID,
			Notes:      req.Notes,
		})
		if err != nil && !IsNotificationOnly(err) {
			writeError(w, err)
			return
		}

		now := svc.Now()
		appt := toAppointmentResponse(res.Appointment)
		writeJSON(w, http.StatusOK, recordResponse{
			Obligation:        toObligationResponse(res.Obligation, now),
			Appointment:       &appt,
			NotificationError: notificationDetail(err),
		})
	}
}

// cancelHandler godoc
// @Summary Cancelar dosis
// @Description Cancela una dosis no terminal. No afecta stock.
// @Tags immunization
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID del profesional"
// @Param Authorization header string false "Bearer token en producción"
// @Param childID path string true "ID del niño"
// @Param vaccineID path string true "ID de la vacuna"
// @Param doseNumber path int true "Número de dosis"
// @Param payload body cancelRequest false "Motivo"
// @Success 200 {object} recordResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Failure 409 {string} string "invalid transition"
// @Router /children/{childID}/doses/{vaccineID}/{doseNumber}/cancel [post]
func cancelHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, ok := staffFromRequest(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dose, err := strconv.Atoi(chi.URLParam(r, "doseNumber"))
		if err != nil {
			http.Error(w, "dose_number must be an integer", http.StatusBadRequest)
			return
		}

		var req cancelRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		res, err := svc.Cancel(r.Context(), CancelInput{
			ChildID:    chi.URLParam(r, "childID"),
			VaccineID:  chi.URLParam(r, "vaccineID"),
			DoseNumber: dose,
			Actor:      staffID,
			Notes:      req.Notes,
		})
		if err != nil && !IsNotificationOnly(err) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(res, svc.Now(), err))
	}
}

func staffFromRequest(r *http.Request) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return "", false
	}
	return claims.UserID, true
}

// writeError traduce la taxonomía de errores a HTTP.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnavailable):
		http.Error(w, "storage unavailable, retry", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func ToGenerateResponse(res GenerateResult, err error) GenerateResponse {
	out := GenerateResponse{
		ChildID:            res.ChildID,
		Outcome:            res.Outcome,
		ObligationsCreated: res.ObligationsCreated,
		NotificationError:  notificationDetail(err),
	}
	if res.NextDue != nil {
		out.NextDue = &nextDoseResponse{
			VaccineID:   res.NextDue.VaccineID,
			VaccineName: res.NextDue.VaccineName,
			DoseNumber:  res.NextDue.DoseNumber,
			DueDate:     res.NextDue.DueDate.Format(validation.DateLayout),
			Existing:    true,
		}
	}
	return out
}

func notificationDetail(err error) string {
	if !IsNotificationOnly(err) {
		return ""
	}
	return err.Error()
}

func toRecordResponse(res RecordResult, now time.Time, err error) recordResponse {
	out := recordResponse{
		Obligation:        toObligationResponse(res.Obligation, now),
		Warnings:          res.Warnings,
		NotificationError: notificationDetail(err),
	}
	if res.Appointment.ID != "" {
		a := toAppointmentResponse(res.Appointment)
		out.Appointment = &a
	}
	if res.NextDue != nil {
		n := toNextDoseResponse(res.NextDue)
		out.NextDue = &n
	}
	return out
}

func toObligationResponse(o Obligation, asOf time.Time) obligationResponse {
	return obligationResponse{
		ID:               o.ID,
		ChildID:          o.ChildID,
		VaccineID:        o.VaccineID,
		VaccineName:      o.VaccineName,
		DoseNumber:       o.DoseNumber,
		DueDate:          o.DueDate.Format(validation.DateLayout),
		OriginalDueDate:  o.OriginalDueDate.Format(validation.DateLayout),
		RescheduleCount:  o.RescheduleCount,
		Status:           o.StatusAt(asOf),
		AppointmentID:    o.AppointmentID,
		AdministeredDate: o.AdministeredDate,
		AdministeredBy:   o.AdministeredBy,
		Notes:            o.Notes,
	}
}

func toAppointmentResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:            a.ID,
		ChildID:       a.ChildID,
		ScheduledDate: a.ScheduledDate.Format(validation.DateLayout),
		Status:        a.Status,
	}
}

func toNextDoseResponse(n *NextDose) nextDoseResponse {
	return nextDoseResponse{
		VaccineID:   n.Entry.VaccineID,
		VaccineName: n.Entry.VaccineName,
		DoseNumber:  n.Entry.DoseNumber,
		DueDate:     n.DueDate.Format(validation.DateLayout),
		Existing:    n.Existing,
	}
}

// writeJSON duplicado por módulo, igual que en protocol/children.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
