package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	sub1 := h.Subscribe("board-1")
	sub2 := h.Subscribe("board-1")

	h.Publish("board-1", Event{Type: "element_created", Body: `{"id":"e1"}`})

	ev1 := <-sub1.C
	ev2 := <-sub2.C
	assert.Equal(t, "element_created", ev1.Type)
	assert.Equal(t, `{"id":"e1"}`, ev1.Body)
	assert.Equal(t, ev1, ev2)
}

func TestPublishIsolatedByKey(t *testing.T) {
	h := NewHub()
	sub1 := h.Subscribe("board-1")
	sub2 := h.Subscribe("board-2")

	h.Publish("board-1", Event{Type: "element_removed"})

	require.Len(t, sub1.C, 1)
	assert.Len(t, sub2.C, 0)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.Publish("nobody-home", Event{Type: "element_created"})
	})
}

func TestUnsubscribeClosesChannelAndPrunesKey(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("board-1")
	require.Equal(t, 1, h.SubscriberCount("board-1"))

	h.Unsubscribe(sub)

	_, open := <-sub.C
	assert.False(t, open)
	assert.Equal(t, 0, h.SubscriberCount("board-1"))

	// 두 번 호출해도 안전
	assert.NotPanics(t, func() { h.Unsubscribe(sub) })
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	h := NewHubWithBuffer(2)
	slow := h.Subscribe("board-1")

	for i := 0; i < 10; i++ {
		h.Publish("board-1", Event{Type: "element_moved"})
	}

	// 버퍼 초과분은 버려지고 publish는 반환했다
	assert.Len(t, slow.C, 2)
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub := h.Subscribe("board-1")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range sub.C {
			}
		}()
		go func() {
			defer wg.Done()
			h.Publish("board-1", Event{Type: "element_updated"})
			h.Unsubscribe(sub)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.SubscriberCount("board-1"))
}
