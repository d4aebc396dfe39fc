package gcal

// Event is the normalized calendar event record echoed back to callers.
// IDs are always assigned by the backend, never locally.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	HTMLLink    string `json:"html_link,omitempty"`
}
