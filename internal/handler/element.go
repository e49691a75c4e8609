package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/store"
)

// ElementHandler 화이트보드 요소 핸들러. 락에 민감한 모든 변이는
// 스트림 디스패처로 위임해서 두 표면의 규칙이 갈라지지 않게 한다.
type ElementHandler struct {
	store      *store.Store
	contexts   *event.Contexts
	dispatcher *protocol.Handler
}

// NewElementHandler ElementHandler 생성
func NewElementHandler(st *store.Store, contexts *event.Contexts, dispatcher *protocol.Handler) *ElementHandler {
	return &ElementHandler{store: st, contexts: contexts, dispatcher: dispatcher}
}

// CreateElement 요소 생성
func (h *ElementHandler) CreateElement(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "element_createelement")
}

// GetElement 요소 단건 조회
func (h *ElementHandler) GetElement(c *fiber.Ctx) error {
	element, err := h.store.Elements.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "element not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get element",
		})
	}
	return c.JSON(element)
}

// UpdateElement 락 보유자만 통과하는 요소 수정
func (h *ElementHandler) UpdateElement(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "element_updateelement")
}

// DeleteElement 요소 삭제
func (h *ElementHandler) DeleteElement(c *fiber.Ctx) error {
	body, err := jsonBody(map[string]string{
		"_id":     c.Params("elementId"),
		"boardId": c.Params("boardId"),
		"userId":  c.Params("userId"),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to build request",
		})
	}

	resp := h.dispatcher.Dispatch(c.Context(), protocol.ClientMessage{
		MessageType: "element_removeelement",
		Body:        body,
	})
	return protocolResponse(c, resp)
}

// LockElement 단일 요소 락 획득
func (h *ElementHandler) LockElement(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "element_lockelement")
}

// UnlockElement 단일 요소 락 해제
func (h *ElementHandler) UnlockElement(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "element_unlockelement")
}

// LockElements 일괄 락 획득 (전부 아니면 전무)
func (h *ElementHandler) LockElements(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "element_lockelements")
}

// UnlockElements 일괄 락 해제
func (h *ElementHandler) UnlockElements(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "element_unlockelements")
}

// MoveElements 일괄 이동 (암묵적 락 획득)
func (h *ElementHandler) MoveElements(c *fiber.Ctx) error {
	return dispatchBody(c, h.dispatcher, "element_moveelements")
}

type unlockedElementPayload struct {
	ID string `json:"_id"`
}

// UnlockAll 유저가 보드에서 쥔 모든 락을 해제한다. 락이 없어도 성공이다.
func (h *ElementHandler) UnlockAll(c *fiber.Ctx) error {
	userID := c.Query("userId")
	boardID := c.Query("boardId")
	if userID == "" || boardID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId and boardId are required",
		})
	}

	released, err := h.store.Elements.ReleaseAllLocks(c.Context(), userID, boardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to release locks",
		})
	}

	for _, id := range released {
		payload, err := json.Marshal(unlockedElementPayload{ID: id})
		if err != nil {
			continue
		}
		h.contexts.Element.Emit(boardID, event.ElementUnlocked, string(payload))
	}

	return c.JSON(fiber.Map{
		"released": released,
		"total":    len(released),
	})
}
