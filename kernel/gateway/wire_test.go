package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbforge/kernelbridge/kernel"
)

func TestNewCompleteRequest(t *testing.T) {
	env, msgID := newCompleteRequest("sess-1", "import os; os.pa", 16)

	assert.NotEmpty(t, msgID)
	assert.Equal(t, msgID, env.Header.MsgID)
	assert.Equal(t, msgTypeCompleteRequest, env.Header.MsgType)
	assert.Equal(t, "sess-1", env.Header.Session)
	assert.Equal(t, protocolVersion, env.Header.Version)
	assert.Equal(t, "shell", env.Channel)

	content, ok := env.Content.(completeRequestContent)
	require.True(t, ok)
	assert.Equal(t, "import os; os.pa", content.Code)
	assert.Equal(t, 16, content.CursorPos)
}

func TestNewCompleteRequest_UniqueMessageIDs(t *testing.T) {
	_, first := newCompleteRequest("sess-1", "x", 1)
	_, second := newCompleteRequest("sess-1", "x", 1)
	assert.NotEqual(t, first, second)
}

func TestNewCompleteRequest_WireShape(t *testing.T) {
	env, _ := newCompleteRequest("sess-1", "os.", 3)

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, field := range []string{"header", "parent_header", "metadata", "content", "channel", "buffers"} {
		assert.Contains(t, decoded, field)
	}
}

func TestParseCompleteReply(t *testing.T) {
	content := []byte(`{
		"status": "ok",
		"matches": ["os.environ", "os.environb"],
		"cursor_start": 3,
		"cursor_end": 7,
		"metadata": {"_jupyter_types_experimental": []}
	}`)

	reply := parseCompleteReply(content)
	require.NotNil(t, reply)
	assert.Equal(t, "ok", reply.Status)
	assert.Equal(t, []string{"os.environ", "os.environb"}, reply.Matches)
	assert.Equal(t, 3, reply.CursorStart)
	assert.Equal(t, 7, reply.CursorEnd)
	assert.JSONEq(t, `{"_jupyter_types_experimental": []}`, string(reply.Metadata))
}

func TestParseCompleteReply_Degraded(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing matches", `{"status": "ok"}`},
		{"matches not an array", `{"status": "ok", "matches": "os.environ"}`},
		{"non-string match", `{"status": "ok", "matches": ["os.environ", 7]}`},
		{"malformed json", `{"status":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := parseCompleteReply([]byte(tt.content))
			require.NotNil(t, reply)
			assert.Empty(t, reply.Matches)
			assert.Zero(t, reply.CursorStart)
			assert.Zero(t, reply.CursorEnd)
		})
	}
}

func TestParseCompleteReply_EmptyMatches(t *testing.T) {
	reply := parseCompleteReply([]byte(`{"status": "ok", "matches": [], "cursor_start": 5, "cursor_end": 5}`))
	require.NotNil(t, reply)
	assert.Empty(t, reply.Matches)
	assert.Equal(t, 5, reply.CursorStart)
	assert.Equal(t, 5, reply.CursorEnd)
	assert.Nil(t, reply.Metadata)
}

func TestStatusFromExecutionState(t *testing.T) {
	tests := []struct {
		state    string
		expected kernel.SessionStatus
	}{
		{"busy", kernel.StatusBusy},
		{"idle", kernel.StatusIdle},
		{"starting", kernel.StatusStarting},
		{"dead", kernel.StatusDead},
		{"", kernel.StatusUnknown},
		{"restarting", kernel.StatusUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusFromExecutionState(tt.state), "state %q", tt.state)
	}
}
