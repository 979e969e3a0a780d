package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by both access and refresh tokens. Type tells them apart
// so a refresh token can never pass as an access token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (m *Manager) sign(userID, email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) SignAccess(userID, email string) (string, error) {
	return m.sign(userID, email, TypeAccess, m.accessTTL)
}

func (m *Manager) SignRefresh(userID, email string) (string, error) {
	return m.sign(userID, email, TypeRefresh, m.refreshTTL)
}

// Pair issues a fresh access/refresh token pair.
func (m *Manager) Pair(userID, email string) (access string, refresh string, err error) {
	access, err = m.SignAccess(userID, email)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.SignRefresh(userID, email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify parses and validates a token of either type.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}
