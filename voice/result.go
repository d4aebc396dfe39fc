package voice

import "voicecal-cloud/gcal"

// Result is the outcome of one executed calendar function. Message is spoken
// verbatim by the voice platform, so every success must carry one.
type Result struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message,omitempty"`
	Error        string       `json:"error,omitempty"`
	AuthRequired bool         `json:"auth_required,omitempty"`
	Events       []gcal.Event `json:"events,omitempty"`
	Event        *gcal.Event  `json:"event,omitempty"`
}

func errorResult(message string) Result {
	return Result{Success: false, Error: message}
}

func authRequiredResult() Result {
	return Result{
		Success:      false,
		Error:        "Please authorize Google Calendar access first",
		AuthRequired: true,
	}
}
