package middleware

import (
	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/service"
)

// BoardMiddleware 보드 멤버십 미들웨어
type BoardMiddleware struct {
	membership *service.MembershipService
}

// NewBoardMiddleware BoardMiddleware 생성
func NewBoardMiddleware(membership *service.MembershipService) *BoardMiddleware {
	return &BoardMiddleware{membership: membership}
}

// getBoardIDFromContext URL에서 보드 ID 추출
func getBoardIDFromContext(c *fiber.Ctx) (string, error) {
	// 우선순위: :boardId > :id
	id := c.Params("boardId")
	if id == "" {
		id = c.Params("id")
	}
	if id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "board ID is required")
	}
	return id, nil
}

// RequireMembership 보드 멤버 필수. 호출자는 userId 쿼리 파라미터로
// 자신을 밝힌다.
func (m *BoardMiddleware) RequireMembership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Query("userId")
		if userID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "userId query parameter is required",
			})
		}

		boardID, err := getBoardIDFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid board ID",
			})
		}

		if !m.membership.IsBoardMember(c.Context(), boardID, userID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "not a board member",
			})
		}

		// 보드 ID를 컨텍스트에 저장
		c.Locals("boardID", boardID)
		return c.Next()
	}
}

// RequireHost 보드 호스트 필수
func (m *BoardMiddleware) RequireHost() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Query("userId")
		if userID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "userId query parameter is required",
			})
		}

		boardID, err := getBoardIDFromContext(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid board ID",
			})
		}

		if !m.membership.IsBoardHost(c.Context(), boardID, userID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "host permission required",
			})
		}

		c.Locals("boardID", boardID)
		return c.Next()
	}
}
