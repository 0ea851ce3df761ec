package children

import "context"

type Repository interface {
	Create(ctx context.Context, c Child) error
	GetByID(ctx context.Context, id string) (Child, error)
	List(ctx context.Context) ([]Child, error)
}
