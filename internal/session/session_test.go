package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/store"
)

func TestSessionLifecycle(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateAwaitingInit, s.GetState())

	require.NoError(t, s.Start(CategoryElement, "board-1"))
	assert.Equal(t, StateRunning, s.GetState())
	assert.Equal(t, CategoryElement, s.Category())
	assert.Equal(t, "board-1", s.SubjectID())

	// 이미 실행 중인 세션은 다시 시작할 수 없다
	assert.Error(t, s.Start(CategoryBoard, "board-2"))

	s.Close()
	assert.True(t, s.IsClosed())
	s.Close() // 멱등
	assert.True(t, s.IsClosed())
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"board", CategoryBoard, false},
		{"client", CategoryClient, false},
		{"active_member", CategoryActiveMember, false},
		{"element", CategoryElement, false},
		{"elements", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSubject(t *testing.T) {
	st := store.NewMemoryStore()
	board := &model.Board{Name: "planning", Host: "u1", AllowedMembers: []string{"u1"}}
	require.NoError(t, st.Boards.Create(context.Background(), board))

	t.Run("board category resolves existing board", func(t *testing.T) {
		category, subject, err := ResolveSubject(context.Background(), st, protocol.InitMessage{
			MessageType: "init", EventCategory: "board", ContextID: board.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, CategoryBoard, category)
		assert.Equal(t, board.ID, subject)
	})

	t.Run("element category requires existing board", func(t *testing.T) {
		_, _, err := ResolveSubject(context.Background(), st, protocol.InitMessage{
			MessageType: "init", EventCategory: "element", ContextID: "missing",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No Board found with the Board Id: missing")
	})

	t.Run("client category uses context id verbatim", func(t *testing.T) {
		category, subject, err := ResolveSubject(context.Background(), st, protocol.InitMessage{
			MessageType: "init", EventCategory: "client", ContextID: "user-77",
		})
		require.NoError(t, err)
		assert.Equal(t, CategoryClient, category)
		assert.Equal(t, "user-77", subject)
	})

	t.Run("wrong message type rejected", func(t *testing.T) {
		_, _, err := ResolveSubject(context.Background(), st, protocol.InitMessage{
			MessageType: "hello", EventCategory: "board", ContextID: board.ID,
		})
		assert.Error(t, err)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, _, err := ResolveSubject(context.Background(), st, protocol.InitMessage{
			MessageType: "init", EventCategory: "cursor", ContextID: board.ID,
		})
		assert.Error(t, err)
	})
}
