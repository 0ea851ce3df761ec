package children

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"immunization-scheduler/internal/domain/immunization"
	"immunization-scheduler/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/children", registerChildHandler(svc))
	r.Get("/children", listChildrenHandler(svc))
	r.Get("/children/{childID}", getChildHandler(svc))
}

// registerChildRequest es el cuerpo para registrar un niño.
type registerChildRequest struct {
	Name          string `json:"name" validate:"notblank,max=200"`
	Sex           Sex    `json:"sex" validate:"omitempty,oneof=female male unknown" enums:"female,male,unknown"`
	BirthDate     string `json:"birth_date" validate:"required,civildate"` // YYYY-MM-DD
	GuardianName  string `json:"guardian_name" validate:"max=200"`
	GuardianPhone string `json:"guardian_phone" validate:"omitempty,e164"`
	Notes         string `json:"notes"`
}

type childResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Sex           Sex       `json:"sex"`
	BirthDate     string    `json:"birth_date"`
	GuardianName  string    `json:"guardian_name,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type registerChildResponse struct {
	Child         childResponse                  `json:"child"`
	Schedule      *immunization.GenerateResponse `json:"schedule,omitempty"`
	ScheduleError string                         `json:"schedule_error,omitempty"`
}

// registerChildHandler godoc
// @Summary Registrar niño
// @Description Registra un niño y genera su calendario completo de vacunación. Si hay teléfono del tutor se envía un recordatorio de la próxima dosis.
// @Tags children
// @Accept json
// @Produce json
// @Param payload body registerChildRequest true "Datos del niño; birth_date en formato YYYY-MM-DD, guardian_phone en E.164"
// @Success 201 {object} registerChildResponse
// @Failure 400 {string} string "invalid json / validation error"
// @Failure 500 {string} string "internal error"
// @Router /children [post]
func registerChildHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerChildRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validation.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		birth, _ := validation.ParseDate(req.BirthDate)

		res, err := svc.Register(r.Context(), RegisterInput{
			Name:          req.Name,
			Sex:           req.Sex,
			BirthDate:     *birth,
			GuardianName:  req.GuardianName,
			GuardianPhone: req.GuardianPhone,
			Notes:         req.Notes,
		})
		if err != nil && res.Child.ID == "" {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := registerChildResponse{Child: toChildResponse(res.Child)}
		if err == nil || immunization.IsNotificationOnly(err) {
			sched := immunization.ToGenerateResponse(res.Schedule, err)
			out.Schedule = &sched
		} else {
			out.ScheduleError = err.Error()
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// listChildrenHandler godoc
// @Summary Listar niños
// @Tags children
// @Produce json
// @Success 200 {array} childResponse
// @Router /children [get]
func listChildrenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]childResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toChildResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getChildHandler godoc
// @Summary Perfil del niño
// @Tags children
// @Produce json
// @Param childID path string true "ID del niño"
// @Success 200 {object} childResponse
// @Failure 404 {string} string "child not found"
// @Router /children/{childID} [get]
func getChildHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetByID(r.Context(), chi.URLParam(r, "childID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
				http.Error(w, "child not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toChildResponse(c))
	}
}

func toChildResponse(c Child) childResponse {
	return childResponse{
		ID:            c.ID,
		Name:          c.Name,
		Sex:           c.Sex,
		BirthDate:     c.BirthDate.Format(validation.DateLayout),
		GuardianName:  c.GuardianName,
		GuardianPhone: c.GuardianPhone,
		Notes:         c.Notes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
