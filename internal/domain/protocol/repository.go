package protocol

import "context"

// Repository expone el catálogo de protocolo. Solo lectura durante el scheduling.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
}
