package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"immunization-scheduler/internal/domain/children"
)

type childRepo struct {
	mu   sync.RWMutex
	byID map[string]children.Child
}

func NewChildRepo() children.Repository {
	return &childRepo{
		byID: make(map[string]children.Child),
	}
}

func (r *childRepo) Create(ctx context.Context, c children.Child) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("child id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("child already exists")
	}
	r.byID[c.ID] = c
	return nil
}

func (r *childRepo) GetByID(ctx context.Context, id string) (children.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return children.Child{}, children.ErrNotFound
	}
	return c, nil
}

func (r *childRepo) List(ctx context.Context) ([]children.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]children.Child, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
