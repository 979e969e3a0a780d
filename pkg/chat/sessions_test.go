package chat

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giga-banana-web/pkg/banana"
)

func TestSessionDirectoryCachesPerUser(t *testing.T) {
	var calls int64
	gw := &fakeGateway{
		listFn: func(ctx context.Context, userID string) ([]banana.SessionListItem, error) {
			atomic.AddInt64(&calls, 1)
			return []banana.SessionListItem{{SessionID: "s-" + userID, UserID: userID}}, nil
		},
	}
	d := NewSessionDirectory(gw, nil)

	first, err := d.Sessions(context.Background(), "user-1")
	require.NoError(t, err)
	second, err := d.Sessions(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))

	_, err = d.Sessions(context.Background(), "user-2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestSessionDirectoryInvalidate(t *testing.T) {
	var calls int64
	gw := &fakeGateway{
		listFn: func(ctx context.Context, userID string) ([]banana.SessionListItem, error) {
			atomic.AddInt64(&calls, 1)
			return nil, nil
		},
	}
	d := NewSessionDirectory(gw, nil)

	_, err := d.Sessions(context.Background(), "user-1")
	require.NoError(t, err)
	d.Invalidate("user-1")
	_, err = d.Sessions(context.Background(), "user-1")
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestSessionDirectoryWatchInvalidatesOnEvent(t *testing.T) {
	var calls int64
	gw := &fakeGateway{
		listFn: func(ctx context.Context, userID string) ([]banana.SessionListItem, error) {
			atomic.AddInt64(&calls, 1)
			return nil, nil
		},
	}
	d := NewSessionDirectory(gw, nil)
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Watch(ctx, bus))

	_, err := d.Sessions(ctx, "user-1")
	require.NoError(t, err)

	payload, err := json.Marshal(SessionCreatedEvent{SessionID: "sess-1", UserID: "user-1"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(TopicSessionCreated, message.NewMessage(watermill.NewUUID(), payload)))

	assert.Eventually(t, func() bool {
		_, err := d.Sessions(ctx, "user-1")
		return err == nil && atomic.LoadInt64(&calls) == 2
	}, 2*time.Second, 10*time.Millisecond, "event must drop the cached list")
}
