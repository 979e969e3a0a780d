package service

import (
	"context"

	"giga-banana-web/internal/pkg/logger"
	"giga-banana-web/internal/websocket"
	"giga-banana-web/pkg/events"
	pkgNats "giga-banana-web/pkg/nats"

	"github.com/google/uuid"
)

type IEventBridgeService interface {
	Start() error
}

// eventBridgeService relays NATS system events to connected websocket
// clients. Events with a user_id go to that user, the rest broadcast.
type eventBridgeService struct {
	subscriber *pkgNats.Subscriber
	hub        *websocket.Hub
	log        logger.ILogger
}

func NewEventBridgeService(subscriber *pkgNats.Subscriber, hub *websocket.Hub, log logger.ILogger) IEventBridgeService {
	return &eventBridgeService{subscriber: subscriber, hub: hub, log: log}
}

func (s *eventBridgeService) Start() error {
	if s.subscriber == nil {
		s.log.Warn("EventBridge", "no NATS subscriber configured, websocket push disabled", nil)
		return nil
	}
	return s.subscriber.Subscribe("events.>", "banana-ws-bridge", s.handle)
}

func (s *eventBridgeService) handle(_ context.Context, event events.Event) error {
	if raw, ok := event.Payload()["user_id"].(string); ok {
		if uid, err := uuid.Parse(raw); err == nil {
			s.hub.Send(uid, event)
			return nil
		}
	}
	s.hub.Broadcast(event)
	return nil
}
