package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/protocol"
	"whiteboard-backend/internal/store"
)

// BoardHandler 보드 핸들러
type BoardHandler struct {
	store      *store.Store
	dispatcher *protocol.Handler
}

// NewBoardHandler BoardHandler 생성
func NewBoardHandler(st *store.Store, dispatcher *protocol.Handler) *BoardHandler {
	return &BoardHandler{store: st, dispatcher: dispatcher}
}

// CreateBoardRequest 보드 생성 요청
type CreateBoardRequest struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

// CreateBoard 보드 생성. 생성자는 호스트이자 첫 멤버가 된다.
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	var req CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Name == "" || req.Host == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and host are required",
		})
	}

	board := &model.Board{
		Name:           req.Name,
		Host:           req.Host,
		AllowedMembers: []string{req.Host},
	}
	if err := h.store.Boards.Create(c.Context(), board); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create board",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(board)
}

// GetBoard 보드 단건 조회
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	board, err := h.store.Boards.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "board not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get board",
		})
	}
	return c.JSON(board)
}

// GetBoardsByUser 유저가 멤버로 포함된 보드 목록 조회
func (h *BoardHandler) GetBoardsByUser(c *fiber.Ctx) error {
	boards, err := h.store.Boards.ListByMember(c.Context(), c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list boards",
		})
	}

	return c.JSON(fiber.Map{
		"boards": boards,
		"total":  len(boards),
	})
}

// GetBoardElements 보드의 전체 요소 조회
func (h *BoardHandler) GetBoardElements(c *fiber.Ctx) error {
	boardID := c.Params("id")
	if _, err := h.store.Boards.GetByID(c.Context(), boardID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "board not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get board",
		})
	}

	elements, err := h.store.Elements.ListByBoard(c.Context(), boardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list elements",
		})
	}

	return c.JSON(fiber.Map{
		"elements": elements,
		"total":    len(elements),
	})
}

// AddAllowedMember 멤버 추가. 스트림의 board_memberadd와 같은 경로를 탄다.
func (h *BoardHandler) AddAllowedMember(c *fiber.Ctx) error {
	resp := h.dispatcher.Dispatch(c.Context(), memberMutation(c))
	return protocolResponse(c, resp)
}

// RemoveAllowedMember 멤버 제거 (호스트 제거는 거부된다)
func (h *BoardHandler) RemoveAllowedMember(c *fiber.Ctx) error {
	msg := memberMutation(c)
	msg.MessageType = "board_memberremove"
	resp := h.dispatcher.Dispatch(c.Context(), msg)
	return protocolResponse(c, resp)
}

// DeleteBoard 보드 삭제
func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	if err := h.store.Boards.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "board not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete board",
		})
	}
	return c.JSON(fiber.Map{"deleted": 1})
}

// memberMutation URL 파라미터를 board_memberadd 형태의 봉투로 만든다
func memberMutation(c *fiber.Ctx) protocol.ClientMessage {
	body, _ := jsonBody(map[string]string{
		"boardId": c.Params("boardId"),
		"userId":  c.Params("userId"),
	})
	return protocol.ClientMessage{MessageType: "board_memberadd", Body: body}
}
