package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/store"
)

// State 스트림 세션 상태
type State int

const (
	StateAwaitingInit State = iota // init 프레임 수신 대기
	StateRunning                   // 구독 활성, 메시지 처리 중
	StateClosed                    // 연결 종료
)

// String 상태를 문자열로 반환
func (s State) String() string {
	switch s {
	case StateAwaitingInit:
		return "awaiting_init"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Category 세션이 구독하는 이벤트 종류
type Category int

const (
	CategoryBoard Category = iota
	CategoryClient
	CategoryActiveMember
	CategoryElement
)

func (c Category) String() string {
	switch c {
	case CategoryBoard:
		return "board"
	case CategoryClient:
		return "client"
	case CategoryActiveMember:
		return "active_member"
	case CategoryElement:
		return "element"
	default:
		return "unknown"
	}
}

// ParseCategory maps the init frame's eventCategory string.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "board":
		return CategoryBoard, nil
	case "client":
		return CategoryClient, nil
	case "active_member":
		return CategoryActiveMember, nil
	case "element":
		return CategoryElement, nil
	default:
		return 0, errors.New("Invalid event category")
	}
}

// ResolveSubject validates an init frame and resolves the hub key the
// session will subscribe to. Board-scoped categories require an existing
// board, the client category uses the context id verbatim.
func ResolveSubject(ctx context.Context, st *store.Store, init protocol.InitMessage) (Category, string, error) {
	if init.MessageType != "init" {
		return 0, "", errors.New("Init Message: `messageType` != 'init'")
	}
	category, err := ParseCategory(init.EventCategory)
	if err != nil {
		return 0, "", err
	}
	if category == CategoryClient {
		return category, init.ContextID, nil
	}
	board, err := st.Boards.GetByID(ctx, init.ContextID)
	if err != nil {
		return 0, "", fmt.Errorf("No Board found with the Board Id: %s", init.ContextID)
	}
	return category, board.ID, nil
}

// Session 단일 스트림 연결 (Thread-Safe)
type Session struct {
	ID          string
	ConnectedAt time.Time

	// 동시성 제어
	mu sync.RWMutex

	state     State
	category  Category
	subjectID string
}

// New 새 세션 생성
func New() *Session {
	return &Session{
		ID:          uuid.New().String(),
		ConnectedAt: time.Now(),
		state:       StateAwaitingInit,
	}
}

// Start transitions the session into the running state after a completed
// init handshake.
func (s *Session) Start(category Category, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingInit {
		return fmt.Errorf("session %s cannot start from state %s", s.ID, s.state)
	}
	s.category = category
	s.subjectID = subjectID
	s.state = StateRunning
	return nil
}

// Category 구독 카테고리 조회
func (s *Session) Category() Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.category
}

// SubjectID 구독 키 조회
func (s *Session) SubjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.subjectID
}

// GetState 현재 상태 조회
func (s *Session) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Duration 연결 유지 시간
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}

// Close 세션 종료 표시. 멱등하다.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateClosed
}

// IsClosed 세션 종료 여부 확인
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state == StateClosed
}
