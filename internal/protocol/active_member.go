package protocol

import (
	"context"
	"encoding/json"
	"errors"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

func (h *Handler) handleActiveMember(ctx context.Context, subcategory string, body json.RawMessage) ServerMessage {
	switch subcategory {
	case "createactivemember":
		return h.handleCreateActiveMember(ctx, body)
	case "removeactivemember":
		return h.handleRemoveActiveMember(ctx, body)
	case "changeactiveboard":
		return h.handleChangeActiveBoard(ctx, body)
	case "updateposition":
		return h.handleUpdatePosition(ctx, body)
	default:
		return ErrorResponse("unknownactivemembercategory", "Active Member has no such subcategory")
	}
}

// ===== createactivemember =====

type createActiveMemberMessage struct {
	UserID  string `json:"userId"`
	BoardID string `json:"boardId"`
}

type createdActiveMemberPayload struct {
	ID      string `json:"_id"`
	UserID  string `json:"userId"`
	BoardID string `json:"boardId"`
}

func (h *Handler) handleCreateActiveMember(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body createActiveMemberMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("createactivemember", "Create Active Member Message is invalid")
	}

	member := model.ActiveMember{UserID: body.UserID, BoardID: body.BoardID, X: 0, Y: 0}
	if err := h.store.ActiveMembers.Create(ctx, &member); err != nil {
		return ErrorResponse("createactivemember", "Error during creating active member")
	}

	payload := mustJSON(createdActiveMemberPayload{
		ID:      member.ID,
		UserID:  body.UserID,
		BoardID: body.BoardID,
	})
	h.contexts.ActiveMember.Emit(body.BoardID, event.ActiveMemberCreated, payload)
	return OkResponse("createactivemember", payload)
}

// ===== removeactivemember =====

type removeActiveMemberMessage struct {
	UserID  string `json:"userId"`
	BoardID string `json:"boardId"`
}

type removedActiveMemberPayload struct {
	UserID string `json:"userId"`
}

func (h *Handler) handleRemoveActiveMember(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body removeActiveMemberMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("removeactivemember", "Remove Active Member Message is invalid")
	}

	member, err := h.store.ActiveMembers.GetByUserID(ctx, body.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResponse("removeactivemember", "No Active Member found to delete")
		}
		return ErrorResponse("removeactivemember", "Error during removing of active member")
	}
	if err := h.store.ActiveMembers.Delete(ctx, member.ID); err != nil {
		return ErrorResponse("removeactivemember", "Error during removing of active member")
	}

	h.contexts.ActiveMember.Emit(body.BoardID, event.ActiveMemberRemoved,
		mustJSON(removedActiveMemberPayload{UserID: body.UserID}))
	return OkResponse("removeactivemember", "1")
}

// ===== changeactiveboard =====

type changeActiveBoardMessage struct {
	UserID     string `json:"userId"`
	NewBoardID string `json:"newBoardId"`
}

func (h *Handler) handleChangeActiveBoard(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body changeActiveBoardMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("changeactiveboard", "Change Active Board Message is invalid")
	}

	member, err := h.store.ActiveMembers.GetByUserID(ctx, body.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResponse("changeactiveboard", "No active member found to update")
		}
		return ErrorResponse("changeactiveboard", "Error during fetching of active member")
	}
	oldBoardID := member.BoardID

	member.BoardID = body.NewBoardID
	member.X = 0
	member.Y = 0
	if err := h.store.ActiveMembers.Update(ctx, member); err != nil {
		return ErrorResponse("changeactiveboard", "Error during change of board of active member")
	}

	// 이전 보드에는 퇴장, 새 보드에는 입장 이벤트
	h.contexts.ActiveMember.Emit(oldBoardID, event.ActiveMemberRemoved,
		mustJSON(removedActiveMemberPayload{UserID: body.UserID}))
	h.contexts.ActiveMember.Emit(body.NewBoardID, event.ActiveMemberCreated,
		mustJSON(createdActiveMemberPayload{
			ID:      member.ID,
			UserID:  body.UserID,
			BoardID: body.NewBoardID,
		}))
	return OkResponse("changeactiveboard", mustJSON(body))
}

// ===== updateposition =====

type updatePositionMessage struct {
	UserID  string  `json:"userId"`
	BoardID string  `json:"boardId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type updatedPositionPayload struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (h *Handler) handleUpdatePosition(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body updatePositionMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("updateposition", "Update Position Message is invalid")
	}

	member, err := h.store.ActiveMembers.GetByUserID(ctx, body.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrorResponse("updateposition", "No active member found to update")
		}
		return ErrorResponse("updateposition", "Error during updating of position of active member")
	}

	member.X = body.X
	member.Y = body.Y
	if err := h.store.ActiveMembers.Update(ctx, member); err != nil {
		return ErrorResponse("updateposition", "Error during updating of position of active member")
	}

	payload := mustJSON(updatedPositionPayload{UserID: body.UserID, X: body.X, Y: body.Y})
	h.contexts.ActiveMember.Emit(body.BoardID, event.ActiveMemberPositionUpdated, payload)
	return OkResponse("updateposition", payload)
}
