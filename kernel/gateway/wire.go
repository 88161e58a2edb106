package gateway

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/nbforge/kernelbridge/kernel"
)

// protocolVersion is the kernel messaging protocol version spoken on the
// channel.
const protocolVersion = "5.3"

// Message types handled by the gateway session.
const (
	msgTypeCompleteRequest = "complete_request"
	msgTypeCompleteReply   = "complete_reply"
	msgTypeStatus          = "status"
)

// header identifies a kernel protocol message.
type header struct {
	MsgID    string `json:"msg_id"`
	MsgType  string `json:"msg_type"`
	Session  string `json:"session"`
	Username string `json:"username"`
	Version  string `json:"version"`
	Date     string `json:"date"`
}

// envelope is an outgoing kernel protocol message.
type envelope struct {
	Header       header         `json:"header"`
	ParentHeader map[string]any `json:"parent_header"`
	Metadata     map[string]any `json:"metadata"`
	Content      any            `json:"content"`
	Channel      string         `json:"channel"`
	Buffers      []any          `json:"buffers"`
}

// completeRequestContent is the content body of a complete_request.
type completeRequestContent struct {
	Code      string `json:"code"`
	CursorPos int    `json:"cursor_pos"`
}

// newCompleteRequest builds a complete_request envelope and returns it with
// its message ID for reply correlation.
func newCompleteRequest(sessionID, code string, cursorPos int) (envelope, string) {
	msgID := uuid.NewString()
	return envelope{
		Header: header{
			MsgID:   msgID,
			MsgType: msgTypeCompleteRequest,
			Session: sessionID,
			Version: protocolVersion,
			Date:    time.Now().UTC().Format(time.RFC3339),
		},
		ParentHeader: map[string]any{},
		Metadata:     map[string]any{},
		Content: completeRequestContent{
			Code:      code,
			CursorPos: cursorPos,
		},
		Channel: "shell",
		Buffers: []any{},
	}, msgID
}

// parseCompleteReply normalizes a complete_reply content body. Any shape
// mismatch yields the empty reply; missing protocol fields mean "nothing
// available", not failure.
func parseCompleteReply(content []byte) *kernel.CompleteReply {
	matchesField := gjson.GetBytes(content, "matches")
	if !matchesField.IsArray() {
		return kernel.EmptyCompleteReply()
	}

	matches := []string{}
	for _, m := range matchesField.Array() {
		if m.Type != gjson.String {
			return kernel.EmptyCompleteReply()
		}
		matches = append(matches, m.String())
	}

	reply := &kernel.CompleteReply{
		Status:      gjson.GetBytes(content, "status").String(),
		Matches:     matches,
		CursorStart: int(gjson.GetBytes(content, "cursor_start").Int()),
		CursorEnd:   int(gjson.GetBytes(content, "cursor_end").Int()),
	}
	if meta := gjson.GetBytes(content, "metadata"); meta.Exists() {
		reply.Metadata = []byte(meta.Raw)
	}
	return reply
}

// statusFromExecutionState maps the kernel's execution_state field onto a
// session status.
func statusFromExecutionState(state string) kernel.SessionStatus {
	switch state {
	case "busy":
		return kernel.StatusBusy
	case "idle":
		return kernel.StatusIdle
	case "starting":
		return kernel.StatusStarting
	case "dead":
		return kernel.StatusDead
	default:
		return kernel.StatusUnknown
	}
}
