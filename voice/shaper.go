package voice

import "encoding/json"

// ToolCallResult pairs a reply with the tool call that requested it.
type ToolCallResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

// ToolCallsReply is the reply envelope for the tool-calls dialect.
type ToolCallsReply struct {
	Results []ToolCallResult `json:"results"`
}

// LegacyReply is the reply envelope for the legacy dialect.
type LegacyReply struct {
	Result Result `json:"result"`
}

// ShapeReply wraps an executor result in the envelope matching the dialect
// the call arrived in. The tool-calls dialect speaks a plain string, so the
// result message is used verbatim; a result without a message is rendered
// as its JSON form.
func ShapeReply(call *FunctionCall, result Result) any {
	if call.Dialect == DialectToolCalls && call.ToolCallID != "" {
		return ToolCallsReply{
			Results: []ToolCallResult{
				{ToolCallID: call.ToolCallID, Result: voiceText(result)},
			},
		}
	}
	return LegacyReply{Result: result}
}

func voiceText(result Result) string {
	if result.Message != "" {
		return result.Message
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return result.Error
	}
	return string(encoded)
}
