package implementation

import (
	"context"
	"encoding/json"

	"giga-banana-web/internal/entity"
	"giga-banana-web/internal/model"
	"giga-banana-web/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type creationRepository struct {
	db *gorm.DB
}

func NewCreationRepository(db *gorm.DB) contract.ICreationRepository {
	return &creationRepository{db: db}
}

func creationModelToEntity(m *model.Creation) *entity.Creation {
	var metadata map[string]interface{}
	if len(m.Metadata) > 0 {
		// Metadata is display-only; a malformed blob degrades to empty.
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	return &entity.Creation{
		Id:        m.Id,
		UserId:    m.UserId,
		Workflow:  m.Workflow,
		Metadata:  metadata,
		ImageURL:  m.ImageURL,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
	}
}

func creationEntityToModel(e *entity.Creation) (*model.Creation, error) {
	var metadata datatypes.JSON
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = raw
	}
	return &model.Creation{
		Id:        e.Id,
		UserId:    e.UserId,
		Workflow:  e.Workflow,
		Metadata:  metadata,
		ImageURL:  e.ImageURL,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
	}, nil
}

func (r *creationRepository) Create(ctx context.Context, creation *entity.Creation) error {
	if creation.Id == uuid.Nil {
		creation.Id = uuid.New()
	}
	if creation.Status == "" {
		creation.Status = entity.CreationStatusActive
	}
	m, err := creationEntityToModel(creation)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	creation.CreatedAt = m.CreatedAt
	return nil
}

func (r *creationRepository) FindAllActive(ctx context.Context, userId uuid.UUID) ([]*entity.Creation, error) {
	var models []model.Creation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userId, entity.CreationStatusActive).
		Order("created_date DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entities := make([]*entity.Creation, len(models))
	for i := range models {
		entities[i] = creationModelToEntity(&models[i])
	}
	return entities, nil
}

func (r *creationRepository) FindActiveById(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*entity.Creation, error) {
	var m model.Creation
	err := r.db.WithContext(ctx).
		Where("creation_id = ? AND user_id = ? AND status = ?", id, userId, entity.CreationStatusActive).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return creationModelToEntity(&m), nil
}

func (r *creationRepository) SoftDelete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Creation{}).
		Where("creation_id = ? AND user_id = ?", id, userId).
		Update("status", entity.CreationStatusDeleted).Error
}
