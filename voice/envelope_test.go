package voice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, raw string) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	return body
}

func TestNormalize_ToolCallsDialect(t *testing.T) {
	body := decodeBody(t, `{
		"message": {
			"type": "tool-calls",
			"toolCalls": [
				{
					"id": "abc123",
					"function": {
						"name": "get_calendar_events",
						"arguments": {"start_date": "today"}
					}
				}
			]
		}
	}`)

	call, ok := Normalize(body)
	require.True(t, ok)
	assert.Equal(t, DialectToolCalls, call.Dialect)
	assert.Equal(t, "abc123", call.ToolCallID)
	assert.Equal(t, "get_calendar_events", call.Name)
	assert.Equal(t, "today", call.Parameters["start_date"])
}

func TestNormalize_LegacyDialect(t *testing.T) {
	body := decodeBody(t, `{
		"type": "function-call",
		"functionCall": {
			"name": "create_calendar_event",
			"parameters": {"title": "Dentist", "start_time": "tomorrow at 4pm"}
		}
	}`)

	call, ok := Normalize(body)
	require.True(t, ok)
	assert.Equal(t, DialectLegacy, call.Dialect)
	assert.Empty(t, call.ToolCallID)
	assert.Equal(t, "create_calendar_event", call.Name)
	assert.Equal(t, "Dentist", call.Parameters["title"])
}

func TestNormalize_NonFunctionEvent(t *testing.T) {
	tests := []string{
		`{"type": "transcript", "transcript": "hello"}`,
		`{"message": {"type": "status-update"}}`,
		`{}`,
	}

	for _, raw := range tests {
		call, ok := Normalize(decodeBody(t, raw))
		assert.False(t, ok)
		assert.Nil(t, call)
	}
}

func TestNormalize_EmptyToolCalls(t *testing.T) {
	body := decodeBody(t, `{"message": {"type": "tool-calls", "toolCalls": []}}`)

	call, ok := Normalize(body)
	require.True(t, ok)
	assert.Equal(t, DialectToolCalls, call.Dialect)
	assert.Empty(t, call.Name)
}

func TestNormalize_MissingFunctionName(t *testing.T) {
	body := decodeBody(t, `{"type": "function-call", "functionCall": {"parameters": {}}}`)

	call, ok := Normalize(body)
	require.True(t, ok)
	assert.Empty(t, call.Name)
	assert.NotNil(t, call.Parameters)
}
