package contract

import (
	"context"

	"giga-banana-web/internal/entity"

	"github.com/google/uuid"
)

type IUserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// FindByEmail returns (nil, nil) when no user exists for the address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindById(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
