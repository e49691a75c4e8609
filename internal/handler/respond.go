package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/protocol"
)

// protocolResponse 디스패처 응답을 HTTP로 변환한다. 스트림과 같은
// 봉투를 그대로 돌려줘서 두 표면의 응답 형식이 일치한다.
func protocolResponse(c *fiber.Ctx, resp protocol.ServerMessage) error {
	if resp.Status == protocol.StatusOK {
		return c.JSON(resp)
	}
	return c.Status(fiber.StatusBadRequest).JSON(resp)
}

// dispatchBody HTTP 요청 본문을 스트림 프로토콜 디스패처로 넘긴다
func dispatchBody(c *fiber.Ctx, h *protocol.Handler, messageType string) error {
	resp := h.Dispatch(c.Context(), protocol.ClientMessage{
		MessageType: messageType,
		Body:        c.Body(),
	})
	return protocolResponse(c, resp)
}

func jsonBody(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	return data, err
}
