package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"voicecal-cloud/gcal"
	"voicecal-cloud/timeparse"
)

// CalendarHandler exposes plain REST CRUD over the user's calendar, next to
// the voice webhook surface.
type CalendarHandler struct {
	calendar      *gcal.Client
	resolver      *timeparse.Resolver
	defaultUserID string
}

// NewCalendarHandler creates a new calendar REST handler.
func NewCalendarHandler(calendar *gcal.Client, resolver *timeparse.Resolver, defaultUserID string) *CalendarHandler {
	return &CalendarHandler{
		calendar:      calendar,
		resolver:      resolver,
		defaultUserID: defaultUserID,
	}
}

// RegisterRoutes registers calendar CRUD routes.
func (h *CalendarHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/calendar/events", h.handleListEvents).Methods("GET")
	r.HandleFunc("/calendar/events", h.handleCreateEvent).Methods("POST")
	r.HandleFunc("/calendar/events/{id}", h.handleUpdateEvent).Methods("PUT")
	r.HandleFunc("/calendar/events/{id}", h.handleDeleteEvent).Methods("DELETE")
}

type createEventRequest struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description,omitempty"`
}

type updateEventRequest struct {
	Title     string `json:"title,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

func (h *CalendarHandler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)

	startDate := h.resolver.ResolveDate(queryOrDefault(r, "start_date", "today"))
	endDate := startDate
	if end := r.URL.Query().Get("end_date"); end != "" {
		endDate = h.resolver.ResolveDate(end)
	}

	events, err := h.calendar.ListEvents(r.Context(), userID, startDate, endDate)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list events: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"events":     events,
		"start_date": startDate,
		"end_date":   endDate,
	})
}

func (h *CalendarHandler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.StartTime == "" || req.EndTime == "" {
		http.Error(w, "title, start_time and end_time are required", http.StatusBadRequest)
		return
	}

	event, err := h.calendar.CreateEvent(r.Context(), h.userID(r), req.Title, req.StartTime, req.EndTime, req.Description)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create event: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

func (h *CalendarHandler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	eventID := mux.Vars(r)["id"]

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.calendar.UpdateEvent(r.Context(), h.userID(r), eventID, req.Title, req.StartTime, req.EndTime)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to update event: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

func (h *CalendarHandler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["id"]

	if err := h.calendar.DeleteEvent(r.Context(), h.userID(r), eventID); err != nil {
		http.Error(w, fmt.Sprintf("Failed to delete event: %v", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("Event %s deleted successfully", eventID),
	})
}

func (h *CalendarHandler) userID(r *http.Request) string {
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		return userID
	}
	return h.defaultUserID
}

func queryOrDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}
