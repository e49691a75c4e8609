package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CursorData Redis에 저장될 커서 위치 데이터
type CursorData struct {
	UserID   string  `json:"user_id"`
	BoardID  string  `json:"board_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	LastSeen int64   `json:"last_seen"`
}

// Tracker 보드별 커서 프레즌스 추적기.
// DB의 ActiveMember 레코드가 진실이고, Redis 미러는 TTL로 스스로 만료되는
// 베스트 에포트 캐시다. 미러 실패가 화이트보드 동작을 막아서는 안 된다.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTracker 생성자
func NewTracker(addr string, password string, db int, ttl time.Duration) *Tracker {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Tracker{
		client: rdb,
		ttl:    ttl,
	}
}

// NewTrackerWithClient 테스트용 생성자 (miniredis 주입)
func NewTrackerWithClient(client *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{
		client: client,
		ttl:    ttl,
	}
}

// Key 생성 유틸
func (t *Tracker) getCursorKey(boardID, userID string) string {
	return fmt.Sprintf("presence:board:%s:user:%s", boardID, userID)
}

func (t *Tracker) getBoardPattern(boardID string) string {
	return fmt.Sprintf("presence:board:%s:user:*", boardID)
}

// UpdateCursor 커서 위치 갱신 (TTL 재설정)
func (t *Tracker) UpdateCursor(ctx context.Context, boardID, userID string, x, y float64) error {
	data := CursorData{
		UserID:   userID,
		BoardID:  boardID,
		X:        x,
		Y:        y,
		LastSeen: time.Now().Unix(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return t.client.Set(ctx, t.getCursorKey(boardID, userID), jsonData, t.ttl).Err()
}

// Touch 생존 신고 (위치 변경 없이 TTL만 연장)
func (t *Tracker) Touch(ctx context.Context, boardID, userID string) error {
	result, err := t.client.Expire(ctx, t.getCursorKey(boardID, userID), t.ttl).Result()
	if err != nil {
		return err
	}
	if !result {
		return fmt.Errorf("no cursor entry for user %s on board %s", userID, boardID)
	}
	return nil
}

// RemoveCursor 커서 삭제 (퇴장, 보드 이동)
func (t *Tracker) RemoveCursor(ctx context.Context, boardID, userID string) error {
	return t.client.Del(ctx, t.getCursorKey(boardID, userID)).Err()
}

// GetCursor 단일 커서 조회. 엔트리가 없으면 (nil, nil).
func (t *Tracker) GetCursor(ctx context.Context, boardID, userID string) (*CursorData, error) {
	val, err := t.client.Get(ctx, t.getCursorKey(boardID, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data CursorData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListBoardCursors 보드 전체 커서 조회
func (t *Tracker) ListBoardCursors(ctx context.Context, boardID string) ([]CursorData, error) {
	var keys []string
	iter := t.client.Scan(ctx, 0, t.getBoardPattern(boardID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []CursorData{}, nil
	}

	// MGET으로 한 번에 조회
	results, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	cursors := make([]CursorData, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue // SCAN과 MGET 사이에 만료된 키
		}

		strVal, ok := result.(string)
		if !ok {
			continue
		}

		var data CursorData
		if err := json.Unmarshal([]byte(strVal), &data); err == nil {
			cursors = append(cursors, data)
		}
	}

	return cursors, nil
}

// PingRedis 연결 확인 (헬스체크용)
func (t *Tracker) PingRedis(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close 클라이언트 종료
func (t *Tracker) Close() error {
	return t.client.Close()
}
