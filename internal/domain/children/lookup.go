package children

import (
	"context"
	"errors"
	"fmt"

	"immunization-scheduler/internal/domain/immunization"
)

// Lookup expone al motor de inmunización solo lo que necesita del niño.
// Se construye sobre el Repository para no crear un ciclo entre servicios
// (children.Service -> immunization.Service -> children).
type Lookup struct {
	repo Repository
}

func NewLookup(repo Repository) *Lookup {
	return &Lookup{repo: repo}
}

func (l *Lookup) LookupChild(ctx context.Context, childID string) (immunization.Child, error) {
	c, err := l.repo.GetByID(ctx, childID)
	if errors.Is(err, ErrNotFound) {
		return immunization.Child{}, fmt.Errorf("%w: child %s", immunization.ErrNotFound, childID)
	}
	if err != nil {
		return immunization.Child{}, err
	}
	return immunization.Child{
		ID:        c.ID,
		Name:      c.Name,
		BirthDate: c.BirthDate,
		Phone:     c.GuardianPhone,
	}, nil
}
