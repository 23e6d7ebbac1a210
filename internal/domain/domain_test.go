package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  SessionKey
		want string
	}{
		{
			name: "with sender",
			key:  SessionKey{Source: "cli", ChatID: "chat-1", SenderID: "alice"},
			want: "cli:chat-1:alice",
		},
		{
			name: "without sender",
			key:  SessionKey{Source: "mcp", ChatID: "chat-1"},
			want: "mcp:chat-1",
		},
		{
			name: "empty fields",
			key:  SessionKey{},
			want: ":",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.String())
		})
	}
}

func TestSessionKeyEquality(t *testing.T) {
	k1 := SessionKey{Source: "cli", ChatID: "c", SenderID: "alice"}
	k2 := SessionKey{Source: "cli", ChatID: "c", SenderID: "alice"}
	k3 := SessionKey{Source: "cli", ChatID: "c", SenderID: "bob"}

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1.String(), k3.String())
}

func TestInboundMessageKey(t *testing.T) {
	msg := InboundMessage{Source: "cli", ChatID: "local", From: "user", Body: "What is the CAS of aspirin?"}
	assert.Equal(t, SessionKey{Source: "cli", ChatID: "local", SenderID: "user"}, msg.Key())
}

func TestInboundMessageJSON_OmitsEmpty(t *testing.T) {
	data, err := json.Marshal(InboundMessage{ID: "m1", Source: "cli", From: "u", ChatID: "c", Body: "hi"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "fromName")
}

func TestSessionJSON(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	session := Session{
		ID:        "sess-1",
		Key:       SessionKey{Source: "cli", ChatID: "local", SenderID: "alice"},
		AgentID:   "simple/chemcrow",
		CreatedAt: now,
		UpdatedAt: now,
		Messages: []Message{
			{Role: "user", Content: "hello", Timestamp: now},
			{Role: "assistant", Content: "hi there", Timestamp: now},
		},
	}

	data, err := json.Marshal(session)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, session.ID, decoded.ID)
	assert.Equal(t, session.Key, decoded.Key)
	assert.Equal(t, session.AgentID, decoded.AgentID)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, "assistant", decoded.Messages[1].Role)
}

func TestSessionJSON_OmitsEmptyMessages(t *testing.T) {
	data, err := json.Marshal(Session{ID: "sess-1", AgentID: "a"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "messages")
}

func TestMessageJSON_WithToolCalls(t *testing.T) {
	msg := Message{
		Role:    "assistant",
		Content: "calling tool",
		ToolCalls: []ToolCall{{
			ID:       "tc-1",
			Name:     "Query2CAS",
			Input:    `{"input":"aspirin"}`,
			Output:   "50-78-2",
			Duration: 3 * time.Millisecond,
		}},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.ToolCalls, 1)
	assert.Equal(t, msg.ToolCalls[0], decoded.ToolCalls[0])
}

func TestMessageJSON_OmitsEmptyToolCalls(t *testing.T) {
	data, err := json.Marshal(Message{Role: "user", Content: "hello"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "toolCalls")
}
