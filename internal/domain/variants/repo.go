package variants

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Variant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Variant, error)
	Update(ctx context.Context, v *Variant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Variant, int, error)
	ListBySignificance(ctx context.Context, significance string, limit, offset int) ([]*Variant, int, error)
	Stats(ctx context.Context) (*Stats, error)
}

type GeneticRepository interface {
	Create(ctx context.Context, gv *GeneticVariant) error
	GetByID(ctx context.Context, id uuid.UUID) (*GeneticVariant, error)
	Update(ctx context.Context, gv *GeneticVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*GeneticVariant, int, error)
}
