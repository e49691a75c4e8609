package handler

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/event"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/store"
)

// UserHandler 유저 핸들러
type UserHandler struct {
	store    *store.Store
	contexts *event.Contexts
}

// NewUserHandler UserHandler 생성
func NewUserHandler(st *store.Store, contexts *event.Contexts) *UserHandler {
	return &UserHandler{store: st, contexts: contexts}
}

// RegisterRequest 회원가입 요청
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse 유저 응답 (비밀번호 제외)
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register 회원가입
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name must be set"})
	}
	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "E-Mail must be set"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "E-Mail is invalid"})
	}
	if req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Password must be set"})
	}
	if strings.Contains(req.Name, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username cannot contain '@'"})
	}

	if _, err := h.store.Users.GetByEmail(c.Context(), req.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User already exists"})
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := h.store.Users.Create(c.Context(), user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create user",
		})
	}

	log.Printf("[User] Created user with ID: %s", user.ID)
	return c.JSON(UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

// GetUser 유저 단건 조회
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.store.Users.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get user",
		})
	}
	return c.JSON(user)
}

// FindUser 이름 또는 이메일로 유저 조회. name이 우선이다.
func (h *UserHandler) FindUser(c *fiber.Ctx) error {
	name := c.Query("name")
	email := c.Query("email")

	if name == "" && email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": `Query param "email" needed at least`,
		})
	}

	if name != "" {
		user, err := h.store.Users.GetByName(c.Context(), name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "No user found with that name",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to find user",
			})
		}
		return c.JSON(user)
	}

	user, err := h.store.Users.GetByEmail(c.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No User found with that email",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to find user",
		})
	}
	return c.JSON(user)
}

// LoginRequest 로그인 요청. name 또는 email 중 하나는 필수다.
type LoginRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceType string `json:"deviceType"`
	ClientID   string `json:"clientId"`
}

// LoginResponse 로그인 응답
type LoginResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// clientChangedPayload client_changed 이벤트 본문
type clientChangedPayload struct {
	UserID     string `json:"userId"`
	DeviceType string `json:"deviceType"`
	ClientID   string `json:"clientId"`
}

// Login 로그인. 유저의 클라이언트 레코드를 교체하고 client_changed를
// 발행한다.
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Name == "" && req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email or Name needs to be provided to login",
		})
	}

	var user *model.User
	var err error
	if req.Name != "" {
		user, err = h.store.Users.GetByName(c.Context(), req.Name)
	} else {
		user, err = h.store.Users.GetByEmail(c.Context(), req.Email)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get user",
		})
	}

	if user.Password != req.Password {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User password combination does not match",
		})
	}

	client := &model.Client{
		ClientID:   req.ClientID,
		UserID:     user.ID,
		DeviceType: model.ParseDeviceType(req.DeviceType),
	}
	if err := h.store.Clients.ReplaceForUser(c.Context(), client); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update client",
		})
	}

	log.Printf("[User] Updated Client with User ID: %s", user.ID)

	payload, err := json.Marshal(clientChangedPayload{
		UserID:     user.ID,
		DeviceType: req.DeviceType,
		ClientID:   req.ClientID,
	})
	if err == nil {
		h.contexts.Client.Emit(c.Context(), user.ID, event.ClientChanged, string(payload))
	}

	return c.JSON(LoginResponse{UserID: user.ID, Name: user.Name, Email: user.Email})
}

// Logout 로그아웃. 클라이언트 레코드를 지운다.
func (h *UserHandler) Logout(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := h.store.Clients.DeleteByUserID(c.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "User not logged in",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to logout",
		})
	}
	return c.JSON(userID)
}
