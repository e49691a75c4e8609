package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{
			name: "lock request",
			msg: ClientMessage{
				MessageType: "element_lockelement",
				Body:        json.RawMessage(`{"_id":"el-1","userId":"u1","boardId":"b1"}`),
			},
		},
		{
			name: "nested body",
			msg: ClientMessage{
				MessageType: "element_moveelements",
				Body:        json.RawMessage(`{"elements":[{"_id":"el-1","x":1.5,"y":-2}],"userId":"u1"}`),
			},
		},
		{
			name: "init frame",
			msg: ClientMessage{
				MessageType: "init",
				Body:        json.RawMessage(`null`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			require.NoError(t, err)

			var got ClientMessage
			require.NoError(t, json.Unmarshal(data, &got))

			assert.Equal(t, tt.msg.MessageType, got.MessageType)
			assert.JSONEq(t, string(tt.msg.Body), string(got.Body))
		})
	}
}

func TestServerMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  ServerMessage
	}{
		{name: "init ack", msg: InitAck()},
		{name: "event frame", msg: Event("element_created", `{"_id":"el-1"}`)},
		{name: "ok response", msg: OkResponse("lockelement", "el-1")},
		{
			name: "error with echoed body",
			msg:  ErrorResponseWithBody("unlockelement", "Element is locked by someone else", "el-1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			require.NoError(t, err)

			var got ServerMessage
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.msg, got)
		})
	}
}
