package genes

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, g *Gene) error
	GetByID(ctx context.Context, id uuid.UUID) (*Gene, error)
	GetBySymbol(ctx context.Context, symbol string) (*Gene, error)
	Update(ctx context.Context, g *Gene) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Gene, int, error)
	Stats(ctx context.Context) (*Stats, error)
}
