package protocol

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, *store.Store, *event.Contexts) {
	t.Helper()
	st := store.NewMemoryStore()
	contexts := event.NewContexts(st)
	return NewHandler(st, contexts), st, contexts
}

func dispatch(t *testing.T, h *Handler, messageType string, body interface{}) ServerMessage {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return h.Dispatch(context.Background(), ClientMessage{MessageType: messageType, Body: raw})
}

func TestDispatchRejectsTypeWithoutUnderscore(t *testing.T) {
	h, _, _ := newTestHandler(t)

	resp := h.Dispatch(context.Background(), ClientMessage{MessageType: "lockelement"})

	assert.Equal(t, "response_messagetypeparsing", resp.MessageType)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "No actual message type provided", resp.Body)
}

func TestDispatchRejectsUnknownCategory(t *testing.T) {
	h, _, _ := newTestHandler(t)

	resp := h.Dispatch(context.Background(), ClientMessage{MessageType: "canvas_draw"})

	assert.Equal(t, "response_messagecategory", resp.MessageType)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "Message Main Category unknown", resp.Body)
}

func TestDispatchRejectsUnknownSubcategories(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		messageType string
		wantType    string
		wantBody    string
	}{
		{"element_teleport", "response_unknownelementcategory", "Element has no such subcategory"},
		{"board_rename", "response_unknownboardcategory", "Board has no such subcategory"},
		{"activemember_wave", "response_unknownactivemembercategory", "Active Member has no such subcategory"},
	}
	for _, tt := range tests {
		t.Run(tt.messageType, func(t *testing.T) {
			resp := h.Dispatch(context.Background(), ClientMessage{MessageType: tt.messageType})
			assert.Equal(t, tt.wantType, resp.MessageType)
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.wantBody, resp.Body)
		})
	}
}

func TestDispatchSplitsOnFirstUnderscoreOnly(t *testing.T) {
	h, _, _ := newTestHandler(t)

	// 첫 언더스코어 이후 전부가 서브카테고리다
	resp := h.Dispatch(context.Background(), ClientMessage{MessageType: "element_lock_element"})

	assert.Equal(t, "response_unknownelementcategory", resp.MessageType)
}

func seedBoard(t *testing.T, st *store.Store, host string, members ...string) *model.Board {
	t.Helper()
	board := &model.Board{
		Name:           "test board",
		Host:           host,
		AllowedMembers: append([]string{host}, members...),
	}
	require.NoError(t, st.Boards.Create(context.Background(), board))
	return board
}

func seedElement(t *testing.T, st *store.Store, boardID, lockedBy string) *model.Element {
	t.Helper()
	element := &model.Element{BoardID: boardID, ElementType: "rectangle", ZIndex: 1}
	if lockedBy != "" {
		element.LockedBy = &lockedBy
	}
	require.NoError(t, st.Elements.Create(context.Background(), element))
	return element
}
