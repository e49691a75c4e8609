package handler

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofiber/contrib/websocket"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/hub"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/session"
	"whiteboard-backend/internal/store"
)

// CollabWSHandler 협업 스트림 WebSocket 핸들러.
// 첫 프레임은 init이어야 하고, 이후 세션은 구독 이벤트 푸시와
// 요청/응답 처리를 같은 연결에서 수행한다.
type CollabWSHandler struct {
	store        *store.Store
	contexts     *event.Contexts
	dispatcher   *protocol.Handler
	tracker      *presence.Tracker // nil이면 커서 미러 비활성
	writeTimeout time.Duration
}

// NewCollabWSHandler CollabWSHandler 생성
func NewCollabWSHandler(st *store.Store, contexts *event.Contexts, dispatcher *protocol.Handler, tracker *presence.Tracker, writeTimeout time.Duration) *CollabWSHandler {
	return &CollabWSHandler{
		store:        st,
		contexts:     contexts,
		dispatcher:   dispatcher,
		tracker:      tracker,
		writeTimeout: writeTimeout,
	}
}

// positionMirror activemember_updateposition 요청에서 Redis 미러로
// 넘길 최소 필드
type positionMirror struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// HandleWebSocket WebSocket 연결 처리
func (h *CollabWSHandler) HandleWebSocket(c *websocket.Conn) {
	// 패닉 복구 - 서버 크래시 방지
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CollabWS] Recovered from panic: %v", r)
		}
	}()
	defer c.Close()

	ctx := context.Background()
	sess := session.New()
	defer sess.Close()

	// ===== Init 핸드셰이크 =====
	_, raw, err := c.ReadMessage()
	if err != nil {
		log.Printf("[CollabWS] Session %s closed before init: %v", sess.ID, err)
		return
	}

	var init protocol.InitMessage
	if err := json.Unmarshal(raw, &init); err != nil {
		log.Printf("[CollabWS] Session %s init frame is not valid JSON: %v", sess.ID, err)
		return
	}

	category, subjectID, err := session.ResolveSubject(ctx, h.store, init)
	if err != nil {
		log.Printf("[CollabWS] Session %s init rejected: %v", sess.ID, err)
		return
	}

	sub, unsubscribe := h.subscribe(category, subjectID)
	defer unsubscribe()

	if err := sess.Start(category, subjectID); err != nil {
		log.Printf("[CollabWS] Session %s could not start: %v", sess.ID, err)
		return
	}

	// 푸시 고루틴과 읽기 루프가 같은 송신 측을 공유한다
	var writeMu sync.Mutex
	writeFrame := func(msg protocol.ServerMessage) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if h.writeTimeout > 0 {
			if err := c.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
				return err
			}
		}
		return c.WriteMessage(websocket.TextMessage, data)
	}

	if err := writeFrame(protocol.InitAck()); err != nil {
		log.Printf("[CollabWS] Session %s failed to ack init: %v", sess.ID, err)
		return
	}

	log.Printf("[CollabWS] Session %s subscribed: category=%s subject=%s", sess.ID, category, subjectID)

	// ===== 이벤트 푸시 루프 =====
	go func() {
		for ev := range sub.C {
			if err := writeFrame(protocol.Event(ev.Type, ev.Body)); err != nil {
				log.Printf("[CollabWS] Session %s push write failed: %v", sess.ID, err)
				return
			}
		}
	}()

	// ===== 요청/응답 읽기 루프 =====
	// 디코딩 불가능한 프레임은 프로토콜 위반으로 보고 스트림을 끝낸다.
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			log.Printf("[CollabWS] Session %s read ended: %v", sess.ID, err)
			break
		}

		if !utf8.Valid(raw) {
			log.Printf("[CollabWS] Session %s sent a non UTF-8 frame, terminating", sess.ID)
			break
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[CollabWS] Session %s sent undecodable JSON, terminating: %v", sess.ID, err)
			break
		}

		resp := h.dispatcher.Dispatch(ctx, msg)

		if resp.Status == protocol.StatusOK {
			h.mirrorPosition(ctx, msg)
		}

		if err := writeFrame(resp); err != nil {
			log.Printf("[CollabWS] Session %s response write failed: %v", sess.ID, err)
			break
		}
	}

	log.Printf("[CollabWS] Session %s closed after %s", sess.ID, sess.Duration())
}

// subscribe 카테고리에 맞는 허브를 구독하고 해제 함수를 돌려준다.
// 해제는 멱등이라 defer로 여러 경로에서 불려도 안전하다.
func (h *CollabWSHandler) subscribe(category session.Category, subjectID string) (*hub.Subscription, func()) {
	switch category {
	case session.CategoryBoard:
		sub := h.contexts.Board.Subscribe(subjectID)
		return sub, func() { h.contexts.Board.Unsubscribe(sub) }
	case session.CategoryClient:
		sub := h.contexts.Client.Subscribe(subjectID)
		return sub, func() { h.contexts.Client.Unsubscribe(sub) }
	case session.CategoryActiveMember:
		sub := h.contexts.ActiveMember.Subscribe(subjectID)
		return sub, func() { h.contexts.ActiveMember.Unsubscribe(sub) }
	default:
		sub := h.contexts.Element.Subscribe(subjectID)
		return sub, func() { h.contexts.Element.Unsubscribe(sub) }
	}
}

// mirrorPosition 커서 이동 성공 시 Redis 프레즌스 미러를 갱신한다.
// 미러 실패는 로그만 남긴다.
func (h *CollabWSHandler) mirrorPosition(ctx context.Context, msg protocol.ClientMessage) {
	if h.tracker == nil || msg.MessageType != "activemember_updateposition" {
		return
	}

	var body positionMirror
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return
	}

	member, err := h.store.ActiveMembers.GetByUserID(ctx, body.UserID)
	if err != nil {
		return
	}

	if err := h.tracker.UpdateCursor(ctx, member.BoardID, body.UserID, body.X, body.Y); err != nil {
		log.Printf("[CollabWS] Cursor mirror failed for user %s: %v", body.UserID, err)
	}
}
