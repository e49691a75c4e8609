package handler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/session"
	"whiteboard-backend/internal/store"
)

func newCollabHandler(t *testing.T) (*CollabWSHandler, *store.Store, *miniredis.Miniredis) {
	t.Helper()
	st := store.NewMemoryStore()
	contexts := event.NewContexts(st)
	dispatcher := protocol.NewHandler(st, contexts)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracker := presence.NewTrackerWithClient(client, 30*time.Second)
	t.Cleanup(func() { tracker.Close() })

	return NewCollabWSHandler(st, contexts, dispatcher, tracker, time.Second), st, mr
}

func TestSubscribeRoutesByCategory(t *testing.T) {
	h, _, _ := newCollabHandler(t)

	sub, unsubscribe := h.subscribe(session.CategoryElement, "board-1")
	defer unsubscribe()

	h.contexts.Element.Emit("board-1", event.ElementCreated, `{"_id":"e1"}`)

	select {
	case ev := <-sub.C:
		assert.Equal(t, event.ElementCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected an element event on the board subscription")
	}

	// 다른 카테고리의 허브에는 전달되지 않는다
	boardSub, boardUnsub := h.subscribe(session.CategoryBoard, "board-1")
	defer boardUnsub()

	h.contexts.Element.Emit("board-1", event.ElementRemoved, `{"_id":"e1"}`)
	select {
	case <-boardSub.C:
		t.Fatal("board subscription should not receive element events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h, _, _ := newCollabHandler(t)

	_, unsubscribe := h.subscribe(session.CategoryActiveMember, "board-1")
	unsubscribe()
	unsubscribe()
}

func TestMirrorPositionUpdatesCursor(t *testing.T) {
	h, st, _ := newCollabHandler(t)
	ctx := context.Background()

	require.NoError(t, st.ActiveMembers.Create(ctx, &model.ActiveMember{UserID: "user-1", BoardID: "board-1"}))

	body, _ := json.Marshal(map[string]interface{}{"userId": "user-1", "x": 10.0, "y": 20.0})
	h.mirrorPosition(ctx, protocol.ClientMessage{
		MessageType: "activemember_updateposition",
		Body:        body,
	})

	data, err := h.tracker.GetCursor(ctx, "board-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, 10.0, data.X)
	assert.Equal(t, 20.0, data.Y)
}

func TestMirrorPositionIgnoresOtherMessages(t *testing.T) {
	h, _, _ := newCollabHandler(t)
	ctx := context.Background()

	h.mirrorPosition(ctx, protocol.ClientMessage{
		MessageType: "element_lockelement",
		Body:        json.RawMessage(`{"_id":"e1"}`),
	})

	data, err := h.tracker.GetCursor(ctx, "board-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMirrorPositionWithoutTracker(t *testing.T) {
	st := store.NewMemoryStore()
	contexts := event.NewContexts(st)
	h := NewCollabWSHandler(st, contexts, protocol.NewHandler(st, contexts), nil, time.Second)

	// tracker가 없으면 아무 일도 하지 않는다
	h.mirrorPosition(context.Background(), protocol.ClientMessage{
		MessageType: "activemember_updateposition",
		Body:        json.RawMessage(`{"userId":"user-1","x":1,"y":2}`),
	})
}
