package protocol

import (
	"context"
	"encoding/json"

	"whiteboard-backend/internal/event"
)

type memberAddMessage struct {
	UserID  string `json:"userId"`
	BoardID string `json:"boardId"`
}

type memberRemoveMessage struct {
	UserID  string `json:"userId"`
	BoardID string `json:"boardId"`
}

type memberEventPayload struct {
	UserID string `json:"userId"`
}

func (h *Handler) handleBoard(ctx context.Context, subcategory string, body json.RawMessage) ServerMessage {
	switch subcategory {
	case "memberadd":
		return h.handleMemberAdd(ctx, body)
	case "memberremove":
		return h.handleMemberRemove(ctx, body)
	default:
		return ErrorResponse("unknownboardcategory", "Board has no such subcategory")
	}
}

func (h *Handler) handleMemberAdd(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body memberAddMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("memberadd", "Member Add Message is invalid")
	}

	board, err := h.store.Boards.GetByID(ctx, body.BoardID)
	if err != nil {
		return ErrorResponseWithBody("memberadd", "Board not found", body.UserID)
	}
	if board.HasMember(body.UserID) {
		return ErrorResponseWithBody("memberadd", "Member already part of this board", body.UserID)
	}

	members := append(append([]string(nil), board.AllowedMembers...), body.UserID)
	if err := h.store.Boards.UpdateMembers(ctx, body.BoardID, members); err != nil {
		return ErrorResponseWithBody("memberadd", "Member could not be added", body.UserID)
	}

	h.contexts.Board.Emit(ctx, body.BoardID, event.BoardMemberAdded,
		mustJSON(memberEventPayload{UserID: body.UserID}))
	return OkResponse("memberadd", mustJSON(memberEventPayload{UserID: body.UserID}))
}

func (h *Handler) handleMemberRemove(ctx context.Context, raw json.RawMessage) ServerMessage {
	var body memberRemoveMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ErrorResponse("memberremove", "Member Remove Message is invalid")
	}

	board, err := h.store.Boards.GetByID(ctx, body.BoardID)
	if err != nil {
		return ErrorResponseWithBody("memberremove", "Board not found", body.UserID)
	}
	if !board.HasMember(body.UserID) {
		return ErrorResponseWithBody("memberremove", "Member not part of this board", body.UserID)
	}
	// 호스트는 항상 멤버로 남는다
	if board.Host == body.UserID {
		return ErrorResponseWithBody("memberremove", "Host cannot be removed from the board", body.UserID)
	}

	members := make([]string, 0, len(board.AllowedMembers))
	for _, member := range board.AllowedMembers {
		if member != body.UserID {
			members = append(members, member)
		}
	}
	if err := h.store.Boards.UpdateMembers(ctx, body.BoardID, members); err != nil {
		return ErrorResponseWithBody("memberremove", "Member could not be removed", body.UserID)
	}

	h.contexts.Board.Emit(ctx, body.BoardID, event.BoardMemberRemoved,
		mustJSON(memberEventPayload{UserID: body.UserID}))
	return OkResponse("memberremove", mustJSON(memberEventPayload{UserID: body.UserID}))
}
