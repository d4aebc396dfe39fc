package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"voicecal-cloud/transcript"
	"voicecal-cloud/voice"
)

// VoiceWebhookHandler receives function-call events from the voice platform
// and replies in whatever dialect the event arrived in. The route always
// answers 200 so the platform speaks errors instead of surfacing transport
// faults to the caller.
type VoiceWebhookHandler struct {
	dispatcher *voice.Dispatcher
	bus        *transcript.Bus
	userID     string
}

// NewVoiceWebhookHandler creates a new voice webhook handler.
func NewVoiceWebhookHandler(dispatcher *voice.Dispatcher, bus *transcript.Bus, userID string) *VoiceWebhookHandler {
	return &VoiceWebhookHandler{
		dispatcher: dispatcher,
		bus:        bus,
		userID:     userID,
	}
}

// RegisterRoutes registers the voice platform endpoints.
func (h *VoiceWebhookHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/vapi/webhook", h.handleWebhook).Methods("POST")
	r.HandleFunc("/vapi/test", h.handleTest).Methods("GET")
	r.HandleFunc("/vapi/session/create", h.handleCreateSession).Methods("POST")
}

func (h *VoiceWebhookHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	defer r.Body.Close()

	correlationID := uuid.New().String()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("[vapi:%s] Failed to read webhook body: %v", correlationID, err)
		writeJSON(w, map[string]string{"status": "error", "message": "Invalid JSON"})
		return
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		log.Printf("[vapi:%s] Failed to parse webhook body: %v", correlationID, err)
		writeJSON(w, map[string]string{"status": "error", "message": "Invalid JSON"})
		return
	}

	call, ok := voice.Normalize(body)
	if !ok {
		// Transcripts, call lifecycle events and the like only need an ack.
		writeJSON(w, map[string]string{"status": "ok"})
		return
	}

	if call.Name == "" {
		log.Printf("[vapi:%s] Function call with empty name in %s dialect", correlationID, call.Dialect)
		writeJSON(w, map[string]any{"result": map[string]string{"error": "No function name provided"}})
		return
	}

	log.Printf("[vapi:%s] Dispatching %s (dialect=%s)", correlationID, call.Name, call.Dialect)

	result := h.dispatcher.Dispatch(ctx, call.Name, call.Parameters)

	if h.bus != nil {
		spoken := result.Message
		if spoken == "" {
			spoken = result.Error
		}
		if _, err := h.bus.RecordFunctionCall(ctx, h.userID, correlationID, call.Name, result.Success, spoken); err != nil {
			log.Printf("[vapi:%s] Warning: failed to record function call: %v", correlationID, err)
		}
	}

	log.Printf("[vapi:%s] %s finished success=%t", correlationID, call.Name, result.Success)

	writeJSON(w, voice.ShapeReply(call, result))
}

func (h *VoiceWebhookHandler) handleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":    "ok",
		"message":   "Voice webhook is reachable",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCreateSession mints a session id and echoes the configured voice
// assistant profile so the frontend can start a call.
func (h *VoiceWebhookHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"session_id":   uuid.New().String(),
		"assistant_id": os.Getenv("VAPI_ASSISTANT_ID"),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
