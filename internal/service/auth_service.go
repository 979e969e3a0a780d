package service

import (
	"context"
	"strings"
	"time"

	"giga-banana-web/internal/dto"
	"giga-banana-web/internal/entity"
	"giga-banana-web/internal/pkg/logger"
	"giga-banana-web/internal/pkg/token"
	"giga-banana-web/internal/repository/contract"
	"giga-banana-web/pkg/events"
	pkgNats "giga-banana-web/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type IAuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, string, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, string, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, string, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users          contract.IUserRepository
	allowlist      contract.IRefreshAllowlist
	tokens         *token.Manager
	eventPublisher *pkgNats.Publisher
	log            logger.ILogger
}

func NewAuthService(
	users contract.IUserRepository,
	allowlist contract.IRefreshAllowlist,
	tokens *token.Manager,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IAuthService {
	return &authService{
		users:          users,
		allowlist:      allowlist,
		tokens:         tokens,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *authService) publish(eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
			s.log.Warn("AuthService", "event publish failed", map[string]interface{}{
				"event": eventType,
				"error": err.Error(),
			})
		}
	}()
}

// issuePair signs an access/refresh pair and registers the refresh token
// so it survives exactly one Refresh or Logout.
func (s *authService) issuePair(ctx context.Context, user *entity.User) (access, refresh string, err error) {
	access, err = s.tokens.SignAccess(user.Id.String(), user.Email)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.tokens.SignRefresh(user.Id.String(), user.Email)
	if err != nil {
		return "", "", err
	}
	claims, err := s.tokens.Verify(refresh)
	if err != nil {
		return "", "", err
	}
	if err := s.allowlist.Add(ctx, claims.ID, s.tokens.RefreshTTL()); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func userToDTO(user *entity.User) dto.UserDTO {
	return dto.UserDTO{
		Id:    user.Id.String(),
		Name:  user.Name,
		Email: user.Email,
	}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || req.Password == "" {
		return nil, "", newStatusError(fiber.StatusBadRequest, "모든 필드를 입력해주세요.")
	}
	if len(req.Password) < 8 {
		return nil, "", newStatusError(fiber.StatusBadRequest, "비밀번호는 최소 8자 이상이어야 합니다.")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", newStatusError(fiber.StatusConflict, "이미 사용 중인 이메일입니다.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &entity.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.log.Info("AuthService", "user signed up", map[string]interface{}{"user_id": user.Id.String()})
	s.publish(events.TypeUserSignup, map[string]interface{}{
		"user_id": user.Id.String(),
		"email":   user.Email,
	})

	return &dto.AuthResponse{
		Message:     "회원가입이 완료되었습니다.",
		User:        userToDTO(user),
		AccessToken: access,
	}, refresh, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", newStatusError(fiber.StatusBadRequest, "모든 필드를 입력해주세요.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", newStatusError(fiber.StatusUnauthorized, "이메일 또는 비밀번호가 올바르지 않습니다.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", newStatusError(fiber.StatusUnauthorized, "이메일 또는 비밀번호가 올바르지 않습니다.")
	}

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.publish(events.TypeUserLogin, map[string]interface{}{
		"user_id": user.Id.String(),
		"email":   user.Email,
	})

	return &dto.AuthResponse{
		Message:     "로그인 성공",
		User:        userToDTO(user),
		AccessToken: access,
	}, refresh, nil
}

// Refresh rotates the pair: the presented refresh token is retired and a
// new one is returned alongside the new access token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, string, error) {
	if refreshToken == "" {
		return nil, "", newStatusError(fiber.StatusUnauthorized, "리프레시 토큰이 없습니다.")
	}

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil || claims.Type != token.TypeRefresh {
		return nil, "", newStatusError(fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}
	allowed, err := s.allowlist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, "", err
	}
	if !allowed {
		return nil, "", newStatusError(fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}

	userId, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, "", newStatusError(fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}
	user, err := s.users.FindById(ctx, userId)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", newStatusError(fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}

	if err := s.allowlist.Remove(ctx, claims.ID); err != nil {
		return nil, "", err
	}
	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return &dto.RefreshResponse{
		Message:     "토큰이 갱신되었습니다.",
		AccessToken: access,
	}, refresh, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil
	}
	return s.allowlist.Remove(ctx, claims.ID)
}
