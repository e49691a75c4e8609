package handler

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

// ClientHandler 디바이스 클라이언트 핸들러. 유저당 클라이언트는 하나다.
type ClientHandler struct {
	store    *store.Store
	contexts *event.Contexts
}

// NewClientHandler ClientHandler 생성
func NewClientHandler(st *store.Store, contexts *event.Contexts) *ClientHandler {
	return &ClientHandler{store: st, contexts: contexts}
}

// ClientRequest 클라이언트 등록/교체 요청
type ClientRequest struct {
	UserID     string `json:"userId"`
	ClientID   string `json:"clientId"`
	DeviceType string `json:"deviceType"`
}

// ClientResponse 클라이언트 응답
type ClientResponse struct {
	UserID     string `json:"userId"`
	ClientID   string `json:"clientId"`
	DeviceType string `json:"deviceType"`
}

// CreateOrReplaceClient 클라이언트 등록. 같은 clientId로 다시 오면
// 204, 바뀌었으면 교체 후 client_changed를 발행한다.
func (h *ClientHandler) CreateOrReplaceClient(c *fiber.Ctx) error {
	var req ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.UserID == "" || req.ClientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId and clientId are required",
		})
	}

	existing, err := h.store.Clients.GetByUserID(c.Context(), req.UserID)
	if err == nil && existing.ClientID == req.ClientID {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get client",
		})
	}

	client := &model.Client{
		ClientID:   req.ClientID,
		UserID:     req.UserID,
		DeviceType: model.ParseDeviceType(req.DeviceType),
	}
	if err := h.store.Clients.ReplaceForUser(c.Context(), client); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save client",
		})
	}

	if existing != nil {
		log.Printf("[Client] Updated Client with User ID: %s", req.UserID)
		payload, err := json.Marshal(clientChangedPayload{
			UserID:     req.UserID,
			DeviceType: req.DeviceType,
			ClientID:   req.ClientID,
		})
		if err == nil {
			h.contexts.Client.Emit(c.Context(), req.UserID, event.ClientChanged, string(payload))
		}
	} else {
		log.Printf("[Client] Created new Client with ID: %s", client.ID)
	}

	return c.JSON(ClientResponse{
		UserID:     req.UserID,
		ClientID:   req.ClientID,
		DeviceType: req.DeviceType,
	})
}

// GetClient 유저의 현재 클라이언트 조회
func (h *ClientHandler) GetClient(c *fiber.Ctx) error {
	client, err := h.store.Clients.GetByUserID(c.Context(), c.Params("userId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User is not logged in currently",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error during client fetching",
		})
	}

	return c.JSON(ClientResponse{
		UserID:     client.UserID,
		ClientID:   client.ClientID,
		DeviceType: client.DeviceType.String(),
	})
}

// DeleteClient 클라이언트 삭제 후 client_removed를 발행한다.
// 이벤트 본문은 유저 ID 그대로다.
func (h *ClientHandler) DeleteClient(c *fiber.Ctx) error {
	userID := c.Params("userId")

	if err := h.store.Clients.DeleteByUserID(c.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No Client found with this User ID: " + userID,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete client",
		})
	}

	// 레코드가 이미 지워졌으므로 재검증하는 Emit 대신 직접 발행한다
	h.contexts.Client.EmitRemoved(userID)

	return c.JSON("Deleted Client")
}
