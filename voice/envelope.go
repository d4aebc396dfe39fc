package voice

// Dialect identifies which wire shape the voice platform used for a
// function-call webhook. Replies must be shaped for the same dialect.
type Dialect string

const (
	// DialectLegacy carries the call flat at functionCall.name/.parameters.
	DialectLegacy Dialect = "legacy"
	// DialectToolCalls nests the call at message.toolCalls[0] and expects
	// the reply paired by toolCallId.
	DialectToolCalls Dialect = "tool-calls"
)

// FunctionCall is a normalized function-call request extracted from a
// webhook body, independent of the dialect it arrived in.
type FunctionCall struct {
	Dialect    Dialect
	ToolCallID string
	Name       string
	Parameters map[string]any
}

// Normalize detects the dialect of a decoded webhook body and extracts the
// function call. It returns ok=false for non-function events, which only get
// a generic acknowledgment. A detected function call with an empty Name must
// be rejected before dispatch.
func Normalize(body map[string]any) (*FunctionCall, bool) {
	message := mapValue(body, "message")
	if stringValue(message, "type") == string(DialectToolCalls) {
		call := &FunctionCall{Dialect: DialectToolCalls, Parameters: map[string]any{}}
		if toolCalls, ok := message["toolCalls"].([]any); ok && len(toolCalls) > 0 {
			if first, ok := toolCalls[0].(map[string]any); ok {
				call.ToolCallID = stringValue(first, "id")
				function := mapValue(first, "function")
				call.Name = stringValue(function, "name")
				if args, ok := function["arguments"].(map[string]any); ok {
					call.Parameters = args
				}
			}
		}
		return call, true
	}

	if stringValue(body, "type") == "function-call" {
		functionCall := mapValue(body, "functionCall")
		call := &FunctionCall{
			Dialect:    DialectLegacy,
			Name:       stringValue(functionCall, "name"),
			Parameters: map[string]any{},
		}
		if params, ok := functionCall["parameters"].(map[string]any); ok {
			call.Parameters = params
		}
		return call, true
	}

	return nil, false
}

func mapValue(m map[string]any, key string) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func stringValue(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
