// Package event groups the per-entity broadcast contexts. Each context
// owns one hub keyed by board id (or user id for clients) and knows the
// event type strings its entity can produce.
package event

import (
	"context"
	"log"

	"whiteboard-backend/internal/hub"
	"whiteboard-backend/internal/store"
)

// Element event types
const (
	ElementCreated  = "element_created"
	ElementRemoved  = "element_removed"
	ElementMoved    = "element_moved"
	ElementLocked   = "element_locked"
	ElementUnlocked = "element_unlocked"
	ElementUpdated  = "element_updated"
)

// Board event types
const (
	BoardMemberAdded   = "board_memberadded"
	BoardMemberRemoved = "board_memberremoved"
)

// Client event types
const (
	ClientChanged = "client_changed"
	ClientRemoved = "client_removed"
)

// ActiveMember event types
const (
	ActiveMemberCreated         = "activemember_created"
	ActiveMemberRemoved         = "activemember_removed"
	ActiveMemberPositionUpdated = "activemember_positionupdated"
)

// ===== Element =====

// ElementContext 보드 ID로 키잉된 요소 이벤트 스트림
type ElementContext struct {
	hub *hub.Hub
}

func NewElementContext(h *hub.Hub) *ElementContext {
	return &ElementContext{hub: h}
}

func (c *ElementContext) Subscribe(boardID string) *hub.Subscription {
	return c.hub.Subscribe(boardID)
}

func (c *ElementContext) Unsubscribe(sub *hub.Subscription) {
	c.hub.Unsubscribe(sub)
}

// SubscriberCount 보드의 현재 구독자 수
func (c *ElementContext) SubscriberCount(boardID string) int {
	return c.hub.SubscriberCount(boardID)
}

// Emit publishes an element event to the board's subscribers. The caller
// guarantees the board exists.
func (c *ElementContext) Emit(boardID, eventType, body string) {
	c.hub.Publish(boardID, hub.Event{Type: eventType, Body: body})
}

// ===== Board =====

// BoardContext 보드 멤버십 이벤트 스트림. Emit은 보드 존재를 재검증한다.
type BoardContext struct {
	hub    *hub.Hub
	boards store.BoardStore
}

func NewBoardContext(h *hub.Hub, boards store.BoardStore) *BoardContext {
	return &BoardContext{hub: h, boards: boards}
}

func (c *BoardContext) Subscribe(boardID string) *hub.Subscription {
	return c.hub.Subscribe(boardID)
}

func (c *BoardContext) Unsubscribe(sub *hub.Subscription) {
	c.hub.Unsubscribe(sub)
}

func (c *BoardContext) Emit(ctx context.Context, boardID, eventType, body string) {
	if _, err := c.boards.GetByID(ctx, boardID); err != nil {
		log.Printf("[BoardContext] Skipping %s for missing board %s: %v", eventType, boardID, err)
		return
	}
	c.hub.Publish(boardID, hub.Event{Type: eventType, Body: body})
}

// ===== Client =====

// ClientContext 유저 ID로 키잉된 클라이언트 이벤트 스트림.
// Emit은 클라이언트 레코드 존재를 재검증한다.
type ClientContext struct {
	hub     *hub.Hub
	clients store.ClientStore
}

func NewClientContext(h *hub.Hub, clients store.ClientStore) *ClientContext {
	return &ClientContext{hub: h, clients: clients}
}

func (c *ClientContext) Subscribe(userID string) *hub.Subscription {
	return c.hub.Subscribe(userID)
}

func (c *ClientContext) Unsubscribe(sub *hub.Subscription) {
	c.hub.Unsubscribe(sub)
}

func (c *ClientContext) Emit(ctx context.Context, userID, eventType, body string) {
	if _, err := c.clients.GetByUserID(ctx, userID); err != nil {
		log.Printf("[ClientContext] Skipping %s for user %s without client: %v", eventType, userID, err)
		return
	}
	c.hub.Publish(userID, hub.Event{Type: eventType, Body: body})
}

// EmitRemoved client_removed를 존재 검증 없이 발행한다. 삭제가 끝난
// 뒤에 부르는 경로라 레코드 재검증은 통과할 수 없다.
func (c *ClientContext) EmitRemoved(userID string) {
	c.hub.Publish(userID, hub.Event{Type: ClientRemoved, Body: userID})
}

// ===== ActiveMember =====

// ActiveMemberContext 보드 ID로 키잉된 커서 프레즌스 이벤트 스트림
type ActiveMemberContext struct {
	hub *hub.Hub
}

func NewActiveMemberContext(h *hub.Hub) *ActiveMemberContext {
	return &ActiveMemberContext{hub: h}
}

func (c *ActiveMemberContext) Subscribe(boardID string) *hub.Subscription {
	return c.hub.Subscribe(boardID)
}

func (c *ActiveMemberContext) Unsubscribe(sub *hub.Subscription) {
	c.hub.Unsubscribe(sub)
}

func (c *ActiveMemberContext) Emit(boardID, eventType, body string) {
	c.hub.Publish(boardID, hub.Event{Type: eventType, Body: body})
}

// Contexts 전체 브로드캐스트 컨텍스트 묶음
type Contexts struct {
	Board        *BoardContext
	Element      *ElementContext
	Client       *ClientContext
	ActiveMember *ActiveMemberContext
}

// NewContexts builds one hub per entity category.
func NewContexts(st *store.Store) *Contexts {
	return NewContextsWithBuffer(st, hub.DefaultBufferSize)
}

// NewContextsWithBuffer 구독자 채널 버퍼 크기를 지정해서 생성
func NewContextsWithBuffer(st *store.Store, bufferSize int) *Contexts {
	return &Contexts{
		Board:        NewBoardContext(hub.NewHubWithBuffer(bufferSize), st.Boards),
		Element:      NewElementContext(hub.NewHubWithBuffer(bufferSize)),
		Client:       NewClientContext(hub.NewHubWithBuffer(bufferSize), st.Clients),
		ActiveMember: NewActiveMemberContext(hub.NewHubWithBuffer(bufferSize)),
	}
}
