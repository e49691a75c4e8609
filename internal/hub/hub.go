// Package hub provides the in-process publish/subscribe fan-out that
// carries entity events from writers to connected stream sessions.
package hub

import (
	"log"
	"sync"
)

// DefaultBufferSize 구독자별 채널 버퍼 크기
const DefaultBufferSize = 32

// Event 구독자에게 전달되는 엔티티 이벤트
type Event struct {
	Type string // e.g. "element_created"
	Body string // pre-serialized JSON payload
}

// Subscription 단일 구독자. C는 Unsubscribe 시 닫힌다.
type Subscription struct {
	C   <-chan Event
	key string
	ch  chan Event
}

// Key returns the subject this subscription listens on.
func (s *Subscription) Key() string {
	return s.key
}

// Hub 키(보드 ID 또는 유저 ID)별 구독자 집합
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
	bufferSize  int
}

// NewHub creates a hub with the default per-subscriber buffer.
func NewHub() *Hub {
	return NewHubWithBuffer(DefaultBufferSize)
}

// NewHubWithBuffer creates a hub with an explicit per-subscriber buffer size.
func NewHubWithBuffer(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subscribers: make(map[string]map[*Subscription]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new subscriber under the given key.
func (h *Hub) Subscribe(key string) *Subscription {
	ch := make(chan Event, h.bufferSize)
	sub := &Subscription{C: ch, key: key, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[key] == nil {
		h.subscribers[key] = make(map[*Subscription]struct{})
	}
	h.subscribers[key][sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. The key's
// entry is pruned when its last subscriber leaves. Safe to call once per
// subscription.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[sub.key]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.key)
	}
	close(sub.ch)
}

// Publish delivers the event to every current subscriber of the key.
// Slow subscribers whose buffer is full are skipped, the publisher never
// blocks.
func (h *Hub) Publish(key string, event Event) {
	// Sends stay under the read lock: Unsubscribe closes channels under
	// the write lock, so a send can never race a close. Sends never block.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[key] {
		select {
		case sub.ch <- event:
		default:
			log.Printf("[Hub] Dropping %s event for slow subscriber on %s", event.Type, key)
		}
	}
}

// SubscriberCount reports how many subscribers a key currently has.
func (h *Hub) SubscriberCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[key])
}
