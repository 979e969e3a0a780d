package implementation

import (
	"context"

	"giga-banana-web/internal/entity"
	"giga-banana-web/internal/model"
	"giga-banana-web/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) contract.IUserRepository {
	return &userRepository{db: db}
}

func userModelToEntity(m *model.User) *entity.User {
	return &entity.User{
		Id:           m.Id,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func userEntityToModel(e *entity.User) *model.User {
	return &model.User{
		Id:           e.Id,
		Email:        e.Email,
		Name:         e.Name,
		PasswordHash: e.PasswordHash,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	m := userEntityToModel(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	user.CreatedAt = m.CreatedAt
	user.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var m model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return userModelToEntity(&m), nil
}

func (r *userRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var m model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return userModelToEntity(&m), nil
}
