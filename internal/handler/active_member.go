package handler

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/store"
)

// ActiveMemberHandler 커서 프레즌스 핸들러. 변이는 스트림 디스패처로
// 위임하고, Redis 미러는 베스트 에포트로 따라간다.
type ActiveMemberHandler struct {
	store      *store.Store
	dispatcher *protocol.Handler
	tracker    *presence.Tracker // nil이면 미러 비활성
}

// NewActiveMemberHandler ActiveMemberHandler 생성
func NewActiveMemberHandler(st *store.Store, dispatcher *protocol.Handler, tracker *presence.Tracker) *ActiveMemberHandler {
	return &ActiveMemberHandler{store: st, dispatcher: dispatcher, tracker: tracker}
}

// CreateActiveMember 보드 입장
func (h *ActiveMemberHandler) CreateActiveMember(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "activemember_createactivemember")
}

// GetActiveMember 유저의 현재 활성 보드 조회
func (h *ActiveMemberHandler) GetActiveMember(c *fiber.Ctx) error {
	member, err := h.store.ActiveMembers.GetByUserID(c.Context(), c.Params("userId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "active member not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get active member",
		})
	}
	return c.JSON(member)
}

// BoardMemberResponse 보드 프레즌스 응답. live는 Redis 미러에서 최신
// 커서를 읽었는지 여부다.
type BoardMemberResponse struct {
	model.ActiveMember
	Live bool `json:"live"`
}

// GetBoardActiveMembers 보드의 전체 활성 멤버 조회.
// DB 레코드가 진실이고, Redis에 최신 커서가 있으면 그 좌표로 덮는다.
func (h *ActiveMemberHandler) GetBoardActiveMembers(c *fiber.Ctx) error {
	boardID := c.Params("boardId")

	members, err := h.store.ActiveMembers.ListByBoard(c.Context(), boardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list active members",
		})
	}

	live := map[string]presence.CursorData{}
	if h.tracker != nil {
		cursors, err := h.tracker.ListBoardCursors(c.Context(), boardID)
		if err != nil {
			log.Printf("[ActiveMember] Cursor mirror read failed for board %s: %v", boardID, err)
		}
		for _, cur := range cursors {
			live[cur.UserID] = cur
		}
	}

	responses := make([]BoardMemberResponse, len(members))
	for i, m := range members {
		resp := BoardMemberResponse{ActiveMember: m}
		if cur, ok := live[m.UserID]; ok {
			resp.X = cur.X
			resp.Y = cur.Y
			resp.Live = true
		}
		responses[i] = resp
	}

	return c.JSON(fiber.Map{
		"members": responses,
		"total":   len(responses),
	})
}

type changeBoardRequest struct {
	UserID string `json:"userId"`
}

// ChangeBoard 활성 보드 이동. 이전 보드의 커서 미러는 지운다.
func (h *ActiveMemberHandler) ChangeBoard(c *fiber.Ctx) error {
	var req changeBoardRequest
	prevBoard := ""
	if err := json.Unmarshal(c.Body(), &req); err == nil && req.UserID != "" {
		if member, err := h.store.ActiveMembers.GetByUserID(c.Context(), req.UserID); err == nil {
			prevBoard = member.BoardID
		}
	}

	resp := h.dispatcher.Dispatch(c.Context(), protocol.ClientMessage{
		MessageType: "activemember_changeactiveboard",
		Body:        c.Body(),
	})

	if resp.Status == protocol.StatusOK && h.tracker != nil && prevBoard != "" {
		if err := h.tracker.RemoveCursor(c.Context(), prevBoard, req.UserID); err != nil {
			log.Printf("[ActiveMember] Cursor mirror cleanup failed for user %s: %v", req.UserID, err)
		}
	}

	return protocolResponse(c, resp)
}

type positionRequest struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// UpdatePosition 커서 위치 갱신 + Redis 미러
func (h *ActiveMemberHandler) UpdatePosition(c *fiber.Ctx) error {
	resp := h.dispatcher.Dispatch(c.Context(), protocol.ClientMessage{
		MessageType: "activemember_updateposition",
		Body:        c.Body(),
	})

	if resp.Status == protocol.StatusOK && h.tracker != nil {
		var req positionRequest
		if err := json.Unmarshal(c.Body(), &req); err == nil {
			if member, err := h.store.ActiveMembers.GetByUserID(c.Context(), req.UserID); err == nil {
				if err := h.tracker.UpdateCursor(c.Context(), member.BoardID, req.UserID, req.X, req.Y); err != nil {
					log.Printf("[ActiveMember] Cursor mirror failed for user %s: %v", req.UserID, err)
				}
			}
		}
	}

	return protocolResponse(c, resp)
}

// DeleteActiveMember 보드 퇴장
func (h *ActiveMemberHandler) DeleteActiveMember(c *fiber.Ctx) error {
	userID := c.Params("userId")
	boardID := c.Params("boardId")

	body, err := jsonBody(map[string]string{
		"userId":  userID,
		"boardId": boardID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to build request",
		})
	}

	resp := h.dispatcher.Dispatch(c.Context(), protocol.ClientMessage{
		MessageType: "activemember_removeactivemember",
		Body:        body,
	})

	if resp.Status == protocol.StatusOK && h.tracker != nil {
		if err := h.tracker.RemoveCursor(c.Context(), boardID, userID); err != nil {
			log.Printf("[ActiveMember] Cursor mirror cleanup failed for user %s: %v", userID, err)
		}
	}

	return protocolResponse(c, resp)
}
