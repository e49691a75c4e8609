package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

// ElementTypeHandler 요소 팔레트 핸들러
type ElementTypeHandler struct {
	store *store.Store
}

// NewElementTypeHandler ElementTypeHandler 생성
func NewElementTypeHandler(st *store.Store) *ElementTypeHandler {
	return &ElementTypeHandler{store: st}
}

// CreateElementTypeRequest 요소 타입 생성 요청
type CreateElementTypeRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// CreateElementType 요소 타입 생성
func (h *ElementTypeHandler) CreateElementType(c *fiber.Ctx) error {
	var req CreateElementTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	t := &model.ElementType{Name: req.Name, Path: req.Path}
	if err := h.store.ElementTypes.Create(c.Context(), t); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create element type",
		})
	}

	log.Printf("[ElementType] Created Element Type with ID: %s", t.ID)
	return c.JSON(t.ID)
}

// GetElementType 요소 타입 단건 조회
func (h *ElementTypeHandler) GetElementType(c *fiber.Ctx) error {
	t, err := h.store.ElementTypes.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Element Type not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get element type",
		})
	}
	return c.JSON(t)
}

// ListElementTypes 전체 요소 타입 조회
func (h *ElementTypeHandler) ListElementTypes(c *fiber.Ctx) error {
	types, err := h.store.ElementTypes.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Found Element Types could not be retrieved",
		})
	}

	if len(types) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No Element Types found",
		})
	}
	return c.JSON(types)
}
