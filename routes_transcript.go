package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"voicecal-cloud/transcript"
)

// transcriptHandler streams per-user voice activity to dashboard clients
// over SSE or WebSocket.
type transcriptHandler struct {
	bus           *transcript.Bus
	defaultUserID string
}

func registerTranscriptRoutes(r *mux.Router, bus *transcript.Bus, defaultUserID string) {
	h := &transcriptHandler{bus: bus, defaultUserID: defaultUserID}
	r.HandleFunc("/voice/stream", h.handleSSE).Methods("GET")
	r.HandleFunc("/voice/ws", h.handleWebSocket).Methods("GET")
}

func (h *transcriptHandler) handleSSE(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		http.Error(w, "transcript bus unavailable", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	userID := h.userID(r)
	lastID := strings.TrimSpace(r.URL.Query().Get("after"))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
			continue
		default:
		}

		entries, nextID, err := h.bus.Tail(ctx, userID, lastID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("transcript tail error for %s: %v", userID, err)
			time.Sleep(300 * time.Millisecond)
			continue
		}

		if len(entries) == 0 {
			continue
		}

		lastID = nextID
		for _, entry := range entries {
			payload, err := json.Marshal(entry)
			if err != nil {
				log.Printf("transcript encode error: %v", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\n", entry.ID)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

var transcriptUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Output-only surface for trusted dashboard clients.
		return true
	},
}

func (h *transcriptHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		http.Error(w, "transcript bus unavailable", http.StatusServiceUnavailable)
		return
	}

	userID := h.userID(r)
	lastID := strings.TrimSpace(r.URL.Query().Get("after"))

	conn, err := transcriptUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()

	for {
		entries, nextID, err := h.bus.Tail(ctx, userID, lastID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			time.Sleep(300 * time.Millisecond)
			continue
		}
		if len(entries) == 0 {
			continue
		}

		lastID = nextID
		for _, entry := range entries {
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		}
	}
}

func (h *transcriptHandler) userID(r *http.Request) string {
	if userID := strings.TrimSpace(r.URL.Query().Get("user_id")); userID != "" {
		return userID
	}
	return h.defaultUserID
}
