package service

import (
	"context"
	"time"

	"giga-banana-web/internal/dto"
	"giga-banana-web/internal/entity"
	"giga-banana-web/internal/pkg/logger"
	"giga-banana-web/internal/repository/contract"
	"giga-banana-web/pkg/events"
	pkgNats "giga-banana-web/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICreationService interface {
	List(ctx context.Context, userId uuid.UUID) (*dto.ListCreationsResponse, error)
	Get(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GetCreationResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DeleteCreationResponse, error)
}

type creationService struct {
	creations      contract.ICreationRepository
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func NewCreationService(
	creations contract.ICreationRepository,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) ICreationService {
	return &creationService{
		creations:      creations,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func creationToDTO(c *entity.Creation) dto.CreationDTO {
	return dto.CreationDTO{
		Id:        c.Id.String(),
		UserId:    c.UserId.String(),
		Workflow:  c.Workflow,
		Metadata:  c.Metadata,
		ImageURL:  c.ImageURL,
		CreatedAt: c.CreatedAt,
		Status:    c.Status,
	}
}

func (s *creationService) List(ctx context.Context, userId uuid.UUID) (*dto.ListCreationsResponse, error) {
	creations, err := s.creations.FindAllActive(ctx, userId)
	if err != nil {
		return nil, err
	}

	dtos := make([]dto.CreationDTO, len(creations))
	for i, c := range creations {
		dtos[i] = creationToDTO(c)
	}
	return &dto.ListCreationsResponse{Creations: dtos}, nil
}

func (s *creationService) Get(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.GetCreationResponse, error) {
	creation, err := s.creations.FindActiveById(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	if creation == nil {
		return nil, newStatusError(fiber.StatusNotFound, "생성물을 찾을 수 없습니다.")
	}
	return &dto.GetCreationResponse{Creation: creationToDTO(creation)}, nil
}

func (s *creationService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DeleteCreationResponse, error) {
	creation, err := s.creations.FindActiveById(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	if creation == nil {
		return nil, newStatusError(fiber.StatusNotFound, "생성물을 찾을 수 없습니다.")
	}
	if err := s.creations.SoftDelete(ctx, userId, id); err != nil {
		return nil, err
	}

	s.log.Info("CreationService", "creation deleted", map[string]interface{}{
		"creation_id": id.String(),
		"user_id":     userId.String(),
	})
	if s.eventPublisher != nil {
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			event := events.New(events.TypeCreationDeleted, map[string]interface{}{
				"creation_id": id.String(),
				"user_id":     userId.String(),
			})
			if err := s.eventPublisher.Publish(pubCtx, event); err != nil {
				s.log.Warn("CreationService", "event publish failed", map[string]interface{}{
					"event": events.TypeCreationDeleted,
					"error": err.Error(),
				})
			}
		}()
	}

	return &dto.DeleteCreationResponse{Message: "삭제되었습니다."}, nil
}
