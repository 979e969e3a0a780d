package contract

import (
	"context"

	"giga-banana-web/internal/entity"

	"github.com/google/uuid"
)

type ICreationRepository interface {
	Create(ctx context.Context, creation *entity.Creation) error
	FindAllActive(ctx context.Context, userId uuid.UUID) ([]*entity.Creation, error)
	// FindActiveById returns (nil, nil) when the creation does not exist,
	// belongs to another user, or has already been deleted.
	FindActiveById(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*entity.Creation, error)
	SoftDelete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}
