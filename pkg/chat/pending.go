package chat

import "sync"

// PendingImage is the durable part of a staged image, detached from the
// local preview so it can survive the page transition.
type PendingImage struct {
	URI      string
	MimeType string
}

// PendingMessage is a user turn captured right before navigating to the
// session page, to be delivered by the orchestrator constructed there.
type PendingMessage struct {
	Content string
	Image   *PendingImage
}

// PendingStore is a single-slot, read-once holding area. It is memory-only:
// a pending message never outlives the process, only a page transition.
type PendingStore struct {
	mu  sync.Mutex
	msg *PendingMessage
}

func NewPendingStore() *PendingStore {
	return &PendingStore{}
}

func (s *PendingStore) Set(msg PendingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := msg
	s.msg = &m
}

// Take consumes the slot. The second caller gets nothing, which is what
// prevents a hand-off from being delivered twice.
func (s *PendingStore) Take() (PendingMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.msg == nil {
		return PendingMessage{}, false
	}
	msg := *s.msg
	s.msg = nil
	return msg, true
}

func (s *PendingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = nil
}
