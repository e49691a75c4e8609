// Package protocol implements the stream wire protocol: the message
// envelope, the dispatch by message type, and the per-category handlers.
package protocol

import (
	"encoding/json"
)

// Status values carried by server frames.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// ClientMessage 클라이언트 → 서버 봉투. body는 핸들러가 다시 파싱한다.
type ClientMessage struct {
	MessageType string          `json:"messageType"`
	Body        json.RawMessage `json:"body"`
}

// ServerMessage 서버 → 클라이언트 봉투
type ServerMessage struct {
	MessageType string `json:"messageType"`
	Status      string `json:"status"`
	Body        string `json:"body"`
}

// ErrorResponseBody ERROR 응답의 body 페이로드
type ErrorResponseBody struct {
	Message string `json:"message"`
	Body    string `json:"body"`
}

// InitMessage 스트림 첫 프레임. 구독 대상을 지정한다.
type InitMessage struct {
	MessageType   string `json:"messageType"`
	EventCategory string `json:"eventCategory"`
	ContextID     string `json:"contextId"`
}

// Event wraps a broadcast payload in a server frame. Events always carry
// status OK.
func Event(messageType, body string) ServerMessage {
	return ServerMessage{MessageType: messageType, Status: StatusOK, Body: body}
}

// OkResponse builds the success response for a request message type.
func OkResponse(messageType, body string) ServerMessage {
	return ServerMessage{
		MessageType: "response_" + messageType,
		Status:      StatusOK,
		Body:        body,
	}
}

// ErrorResponse builds the failure response for a request message type.
func ErrorResponse(messageType, body string) ServerMessage {
	return ServerMessage{
		MessageType: "response_" + messageType,
		Status:      StatusError,
		Body:        body,
	}
}

// ErrorResponseWithBody wraps message and the echoed request body into an
// ErrorResponseBody. body is the raw id string or a pre-serialized id list.
func ErrorResponseWithBody(messageType, message, body string) ServerMessage {
	payload, err := json.Marshal(ErrorResponseBody{Message: message, Body: body})
	if err != nil {
		return ErrorResponse(messageType, message)
	}
	return ErrorResponse(messageType, string(payload))
}

// InitAck is the frame confirming a completed init handshake.
func InitAck() ServerMessage {
	return ServerMessage{MessageType: "success", Status: StatusOK, Body: "initialized"}
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
