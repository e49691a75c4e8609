package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 사용자
type User struct {
	ID           string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password     string  `gorm:"type:varchar(255);not null" json:"-"`
	ActiveClient *string `gorm:"type:varchar(100)" json:"activeClient,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Board 공유 캔버스. Host는 항상 AllowedMembers에 포함된다.
type Board struct {
	ID             string   `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name           string   `gorm:"type:varchar(200);not null" json:"name"`
	Host           string   `gorm:"type:varchar(36);not null;index" json:"host"`
	AllowedMembers []string `gorm:"serializer:json;type:jsonb;not null" json:"allowedMembers"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Board) TableName() string {
	return "boards"
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// HasMember reports whether the user is in the board's allowed member set.
func (b *Board) HasMember(userID string) bool {
	for _, member := range b.AllowedMembers {
		if member == userID {
			return true
		}
	}
	return false
}

// Element 보드 위의 객체. 기하/내용 필드는 현재 락 소유자만 변경할 수 있다.
type Element struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	BoardID     string    `gorm:"type:varchar(36);not null;index" json:"boardId"`
	Selected    bool      `gorm:"default:false" json:"selected"`
	LockedBy    *string   `gorm:"type:varchar(36);index" json:"lockedBy,omitempty"`
	X           float64   `gorm:"not null" json:"x"`
	Y           float64   `gorm:"not null" json:"y"`
	Rotation    float64   `gorm:"not null" json:"rotation"`
	ScaleX      float64   `gorm:"not null" json:"scaleX"`
	ScaleY      float64   `gorm:"not null" json:"scaleY"`
	ZIndex      int       `gorm:"not null" json:"zIndex"`
	Text        string    `gorm:"type:text" json:"text"`
	ElementType string    `gorm:"type:varchar(100);not null" json:"elementType"`
	Color       string    `gorm:"type:varchar(20)" json:"color"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Element) TableName() string {
	return "elements"
}

func (e *Element) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// LockedByOther reports whether the element is locked by someone other than userID.
func (e *Element) LockedByOther(userID string) bool {
	return e.LockedBy != nil && *e.LockedBy != userID
}

// ElementType 팔레트에 노출되는 요소 종류 (이름 + 에셋 경로)
type ElementType struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Path string `gorm:"type:varchar(255);not null" json:"path"`
}

func (ElementType) TableName() string {
	return "element_types"
}

func (t *ElementType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// ActiveMember 보드 위의 실시간 커서 존재. 유저당 최대 한 개.
type ActiveMember struct {
	ID      string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID  string  `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	BoardID string  `gorm:"type:varchar(36);not null;index" json:"boardId"`
	X       float64 `gorm:"not null" json:"x"`
	Y       float64 `gorm:"not null" json:"y"`
}

func (ActiveMember) TableName() string {
	return "active_members"
}

func (m *ActiveMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Client 현재 로그인된 디바이스. 유저당 최대 한 개 (로그인 시 교체).
type Client struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ClientID   string     `gorm:"type:varchar(100);not null" json:"clientId"`
	UserID     string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	DeviceType DeviceType `gorm:"type:varchar(20);not null" json:"deviceType"`
}

func (Client) TableName() string {
	return "clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
