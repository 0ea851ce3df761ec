package protocol

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/protocol", listProtocolHandler(svc))
}

// entryResponse representa una dosis del protocolo de vacunación.
type entryResponse struct {
	VaccineID   string `json:"vaccine_id"`
	VaccineName string `json:"vaccine_name"`
	DoseNumber  int    `json:"dose_number"`
	OffsetUnit  Unit   `json:"offset_unit" enums:"days,weeks,months,years"`
	OffsetValue int    `json:"offset_value"`
	Required    bool   `json:"required"`
	Notes       string `json:"notes,omitempty"`
}

// listProtocolHandler godoc
// @Summary Listar protocolo de vacunación
// @Description Devuelve el catálogo de dosis requeridas ordenado por edad de aplicación y número de dosis.
// @Tags protocol
// @Produce json
// @Success 200 {array} entryResponse
// @Failure 500 {string} string "internal error"
// @Router /protocol [get]
func listProtocolHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		VaccineID:   e.VaccineID,
		VaccineName: e.VaccineName,
		DoseNumber:  e.DoseNumber,
		OffsetUnit:  e.Unit,
		OffsetValue: e.Value,
		Required:    e.Required,
		Notes:       e.Notes,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
