package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingStoreTakeIsReadOnce(t *testing.T) {
	store := NewPendingStore()
	store.Set(PendingMessage{Content: "hello"})

	msg, ok := store.Take()
	require.True(t, ok)
	assert.Equal(t, "hello", msg.Content)

	_, ok = store.Take()
	assert.False(t, ok)
}

func TestPendingStoreSetOverwrites(t *testing.T) {
	store := NewPendingStore()
	store.Set(PendingMessage{Content: "first"})
	store.Set(PendingMessage{Content: "second"})

	msg, ok := store.Take()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Content)
}

func TestPendingStoreClear(t *testing.T) {
	store := NewPendingStore()
	store.Set(PendingMessage{Content: "gone"})
	store.Clear()

	_, ok := store.Take()
	assert.False(t, ok)
}
