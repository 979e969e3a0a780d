package handler

import (
	"strings"

	"giga-banana-web/internal/pkg/logger"
	"giga-banana-web/internal/pkg/serverutils"
	"giga-banana-web/internal/pkg/token"
	internalWS "giga-banana-web/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// EventStreamHandler upgrades authenticated clients onto the event hub so
// they receive account and gallery events as they happen.
type EventStreamHandler struct {
	tokens *token.Manager
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewEventStreamHandler(tokens *token.Manager, hub *internalWS.Hub, log logger.ILogger) *EventStreamHandler {
	return &EventStreamHandler{tokens: tokens, hub: hub, logger: log}
}

func (h *EventStreamHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
}

func (h *EventStreamHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on websocket dials, so the token may
	// arrive as a query param instead.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenStr == "" {
		return serverutils.Error(c, fiber.StatusUnauthorized, "인증이 필요합니다.")
	}

	claims, err := h.tokens.Verify(tokenStr)
	if err != nil || claims.Type != token.TypeAccess {
		return serverutils.Error(c, fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return serverutils.Error(c, fiber.StatusUnauthorized, "유효하지 않은 토큰입니다.")
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(h.hub, conn, userID)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
