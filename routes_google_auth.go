package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"voicecal-cloud/security"

	"github.com/gorilla/mux"
)

// GoogleAuthHandler handles the Google Calendar OAuth flow.
type GoogleAuthHandler struct {
	googleClient  *security.GoogleServiceClient
	defaultUserID string
}

// NewGoogleAuthHandler creates a new Google auth handler.
func NewGoogleAuthHandler(googleClient *security.GoogleServiceClient, defaultUserID string) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		googleClient:  googleClient,
		defaultUserID: defaultUserID,
	}
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// CallbackResponse represents OAuth callback response
type CallbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// RegisterRoutes registers Google authentication routes.
func (h *GoogleAuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/google/login", h.StartAuth).Methods("GET")
	router.HandleFunc("/auth/google/callback", h.HandleCallback).Methods("GET")
	router.HandleFunc("/auth/status", h.GetStatus).Methods("GET")
	router.HandleFunc("/auth/revoke", h.RevokeAccess).Methods("DELETE")
}

// StartAuth initiates the OAuth consent flow for a user.
func (h *GoogleAuthHandler) StartAuth(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)

	authURL, state, err := h.googleClient.GetAuthURL(r.Context(), userID)
	if err != nil {
		log.Printf("Failed to generate auth URL: %v", err)
		http.Error(w, "Failed to generate authentication URL", http.StatusInternalServerError)
		return
	}

	response := AuthResponse{
		AuthURL: authURL,
		State:   state,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleCallback handles the OAuth callback from Google.
func (h *GoogleAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")

	if errorParam != "" {
		log.Printf("OAuth error: %s", errorParam)
		http.Error(w, fmt.Sprintf("OAuth failed: %s", errorParam), http.StatusBadRequest)
		return
	}

	if code == "" {
		http.Error(w, "Authorization code is required", http.StatusBadRequest)
		return
	}

	if state == "" {
		http.Error(w, "State parameter is required", http.StatusBadRequest)
		return
	}

	userID, _, err := h.googleClient.ExchangeCodeForToken(ctx, code, state)
	if err != nil {
		log.Printf("Failed to exchange code for token: %v", err)
		http.Error(w, "Failed to exchange authorization code for token", http.StatusInternalServerError)
		return
	}

	log.Printf("Successfully authenticated user %s for calendar access", userID)

	if err := h.googleClient.ValidateCalendarAccess(ctx, userID); err != nil {
		log.Printf("Calendar access validation failed: %v", err)
	}

	response := CallbackResponse{
		Success: true,
		Message: "Successfully authenticated for Google Calendar",
		UserID:  userID,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetStatus returns the calendar credential status for a user.
func (h *GoogleAuthHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)

	response := map[string]any{
		"user_id":  userID,
		"calendar": h.googleClient.CredentialStatus(r.Context(), userID),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RevokeAccess drops the stored calendar credential for a user.
func (h *GoogleAuthHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)

	err := h.googleClient.RevokeAccess(r.Context(), userID)

	response := map[string]any{
		"success": err == nil,
		"user_id": userID,
	}
	if err != nil {
		response["error"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *GoogleAuthHandler) userID(r *http.Request) string {
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		return userID
	}
	return h.defaultUserID
}
