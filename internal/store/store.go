package store

import (
	"context"
	"errors"

	"whiteboard-backend/internal/model"
)

// ErrNotFound 조회 대상 레코드 없음
var ErrNotFound = errors.New("record not found")

// ElementUpdate 요소 부분 수정. nil 필드는 건드리지 않는다.
// ClearLock이 true면 LockedBy 값과 무관하게 락을 해제한다.
type ElementUpdate struct {
	X           *float64
	Y           *float64
	Rotation    *float64
	ScaleX      *float64
	ScaleY      *float64
	ZIndex      *int
	Text        *string
	Color       *string
	ElementType *string
	Selected    *bool
	LockedBy    *string
	ClearLock   bool
}

// UserStore 사용자 저장소
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByName(ctx context.Context, name string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// BoardStore 보드 저장소
type BoardStore interface {
	Create(ctx context.Context, board *model.Board) error
	GetByID(ctx context.Context, id string) (*model.Board, error)
	ListByMember(ctx context.Context, userID string) ([]model.Board, error)
	UpdateMembers(ctx context.Context, id string, members []string) error
	Delete(ctx context.Context, id string) error
}

// ElementStore 요소 저장소
type ElementStore interface {
	Create(ctx context.Context, element *model.Element) error
	GetByID(ctx context.Context, id string) (*model.Element, error)
	ListByBoard(ctx context.Context, boardID string) ([]model.Element, error)
	Update(ctx context.Context, id string, update ElementUpdate) (*model.Element, error)
	Delete(ctx context.Context, id string) error
	// ReleaseAllLocks drops every lock the user holds on the board and
	// returns the ids of the elements that were released.
	ReleaseAllLocks(ctx context.Context, userID, boardID string) ([]string, error)
}

// ActiveMemberStore 활성 멤버 (커서) 저장소
type ActiveMemberStore interface {
	Create(ctx context.Context, member *model.ActiveMember) error
	GetByID(ctx context.Context, id string) (*model.ActiveMember, error)
	GetByUserID(ctx context.Context, userID string) (*model.ActiveMember, error)
	ListByBoard(ctx context.Context, boardID string) ([]model.ActiveMember, error)
	Update(ctx context.Context, member *model.ActiveMember) error
	Delete(ctx context.Context, id string) error
}

// ClientStore 로그인 디바이스 저장소
type ClientStore interface {
	// ReplaceForUser removes any existing client row for the user before
	// inserting the new one. At most one client per user.
	ReplaceForUser(ctx context.Context, client *model.Client) error
	GetByUserID(ctx context.Context, userID string) (*model.Client, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

// ElementTypeStore 팔레트 요소 타입 저장소
type ElementTypeStore interface {
	Create(ctx context.Context, t *model.ElementType) error
	List(ctx context.Context) ([]model.ElementType, error)
	GetByID(ctx context.Context, id string) (*model.ElementType, error)
	GetByName(ctx context.Context, name string) (*model.ElementType, error)
}

// Store 엔티티별 저장소 묶음
type Store struct {
	Users         UserStore
	Boards        BoardStore
	Elements      ElementStore
	ActiveMembers ActiveMemberStore
	Clients       ClientStore
	ElementTypes  ElementTypeStore
}
