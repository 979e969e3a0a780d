package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	gocache "github.com/patrickmn/go-cache"

	"giga-banana-web/pkg/banana"
)

// SessionDirectory serves the sidebar's session list. Results are cached
// per user; a session-created event on the bus drops that user's entry so
// the next read reflects the new session.
type SessionDirectory struct {
	gateway Gateway
	cache   *gocache.Cache
	logger  Logger
}

func NewSessionDirectory(gateway Gateway, logger Logger) *SessionDirectory {
	return &SessionDirectory{
		gateway: gateway,
		cache:   gocache.New(1*time.Minute, 5*time.Minute),
		logger:  logger,
	}
}

// Sessions returns the user's session summaries, from cache when fresh.
func (d *SessionDirectory) Sessions(ctx context.Context, userID string) ([]banana.SessionListItem, error) {
	if cached, found := d.cache.Get(userID); found {
		return cached.([]banana.SessionListItem), nil
	}

	sessions, err := d.gateway.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.cache.Set(userID, sessions, gocache.DefaultExpiration)
	return sessions, nil
}

// Invalidate drops the cached list for one user.
func (d *SessionDirectory) Invalidate(userID string) {
	d.cache.Delete(userID)
}

// Watch subscribes to session-created events and invalidates the affected
// user's cache entry for each one. Runs until ctx is cancelled.
func (d *SessionDirectory) Watch(ctx context.Context, subscriber message.Subscriber) error {
	messages, err := subscriber.Subscribe(ctx, TopicSessionCreated)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var event SessionCreatedEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				if d.logger != nil {
					d.logger.Warn("Chat", "Malformed session-created event", map[string]interface{}{"error": err.Error()})
				}
				msg.Ack()
				continue
			}
			d.Invalidate(event.UserID)
			msg.Ack()
		}
	}()

	return nil
}
