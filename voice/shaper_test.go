package voice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeReply_ToolCallsEchoesID(t *testing.T) {
	call := &FunctionCall{Dialect: DialectToolCalls, ToolCallID: "abc123"}
	result := Result{Success: true, Message: "You have no events scheduled for 2025-07-03"}

	reply := ShapeReply(call, result)

	shaped, ok := reply.(ToolCallsReply)
	require.True(t, ok)
	require.Len(t, shaped.Results, 1)
	assert.Equal(t, "abc123", shaped.Results[0].ToolCallID)
	assert.Equal(t, result.Message, shaped.Results[0].Result)
}

func TestShapeReply_ToolCallsWithoutMessage(t *testing.T) {
	call := &FunctionCall{Dialect: DialectToolCalls, ToolCallID: "abc123"}
	result := Result{Success: false, Error: "Unknown function: order_pizza"}

	reply := ShapeReply(call, result)

	shaped, ok := reply.(ToolCallsReply)
	require.True(t, ok)

	// Without a spoken message the whole result is rendered as JSON.
	var decoded Result
	require.NoError(t, json.Unmarshal([]byte(shaped.Results[0].Result), &decoded))
	assert.Equal(t, result.Error, decoded.Error)
}

func TestShapeReply_LegacyWrapsStructuredResult(t *testing.T) {
	call := &FunctionCall{Dialect: DialectLegacy}
	result := Result{Success: false, Error: "event_id is required"}

	reply := ShapeReply(call, result)

	shaped, ok := reply.(LegacyReply)
	require.True(t, ok)
	assert.Equal(t, result, shaped.Result)
}

func TestShapeReply_ToolCallsWithoutIDFallsBackToLegacy(t *testing.T) {
	call := &FunctionCall{Dialect: DialectToolCalls}
	result := Result{Success: true, Message: "done"}

	reply := ShapeReply(call, result)

	_, ok := reply.(LegacyReply)
	assert.True(t, ok)
}
