package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("protocol entry not found")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List devuelve el catálogo completo ya ordenado (offset, dosis, vacuna).
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list protocol: %w", err)
	}

	out := make([]Entry, len(items))
	copy(out, items)
	Sort(out)
	return out, nil
}

// Lookup busca la entrada (vacuna, dosis).
func (s *Service) Lookup(ctx context.Context, vaccineID string, doseNumber int) (Entry, error) {
	items, err := s.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	e, ok := Find(items, vaccineID, doseNumber)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Find busca (vacuna, dosis) en un catálogo ya cargado.
func Find(items []Entry, vaccineID string, doseNumber int) (Entry, bool) {
	vaccineID = strings.TrimSpace(vaccineID)
	for _, e := range items {
		if e.VaccineID == vaccineID && e.DoseNumber == doseNumber {
			return e, true
		}
	}
	return Entry{}, false
}

// HasVaccine indica si el catálogo conoce la vacuna (sin importar la dosis).
func HasVaccine(items []Entry, vaccineID string) bool {
	vaccineID = strings.TrimSpace(vaccineID)
	for _, e := range items {
		if e.VaccineID == vaccineID {
			return true
		}
	}
	return false
}

// VaccineIDs lista las vacunas del catálogo sin repetir, en orden de aparición.
func VaccineIDs(items []Entry) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, e := range items {
		if _, ok := seen[e.VaccineID]; ok {
			continue
		}
		seen[e.VaccineID] = struct{}{}
		out = append(out, e.VaccineID)
	}
	return out
}
