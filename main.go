package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"voicecal-cloud/gcal"
	"voicecal-cloud/security"
	"voicecal-cloud/timeparse"
	"voicecal-cloud/transcript"
	"voicecal-cloud/voice"
)

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
	Service string `json:"service"`
}

const VERSION = "0.1.0"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	log.Println("Starting Voice Calendar Cloud Server...")

	// Initialize Redis
	redisURL := getEnv("REDIS_URL", "localhost:6379")
	if strings.HasPrefix(redisURL, "redis://") {
		redisURL = strings.TrimPrefix(redisURL, "redis://")
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	defaultUserID := getEnv("DEFAULT_USER_ID", "demo-user")

	// Initialize OAuth token store and Google client
	tokenStore := security.NewTokenStore(redisClient)
	googleClient := security.NewGoogleServiceClient(tokenStore)

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := getEnv("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/google/callback")
	if clientID == "" || clientSecret == "" {
		log.Fatal("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables are required")
	}
	googleClient.Initialize(clientID, clientSecret, redirectURL)

	// Calendar backend client
	calendarClient := gcal.NewClient(googleClient)

	// Natural-language resolver; strict mode makes unparseable phrases fail
	// instead of defaulting to today at noon.
	resolver := &timeparse.Resolver{
		Strict: strings.EqualFold(os.Getenv("STRICT_TIME_PARSING"), "true"),
	}

	// Voice function dispatch pipeline
	executor := &voice.Executor{
		Calendar:             calendarClient,
		Auth:                 googleClient,
		Resolver:             resolver,
		UserID:               defaultUserID,
		DefaultDurationHours: 1,
	}
	dispatcher := &voice.Dispatcher{Exec: executor}

	// Per-user voice activity stream
	bus := transcript.NewBus(redisClient)

	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/healthz", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	// OAuth endpoints
	authHandler := NewGoogleAuthHandler(googleClient, defaultUserID)
	authHandler.RegisterRoutes(r)

	// Voice webhook endpoints
	webhookHandler := NewVoiceWebhookHandler(dispatcher, bus, defaultUserID)
	webhookHandler.RegisterRoutes(r)

	// Calendar REST endpoints
	calendarHandler := NewCalendarHandler(calendarClient, resolver, defaultUserID)
	calendarHandler.RegisterRoutes(r)

	// Live activity feed
	registerTranscriptRoutes(r, bus, defaultUserID)

	// Configure server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Handler:      r,
		Addr:         "0.0.0.0:" + port,
		WriteTimeout: 180 * time.Second,
		ReadTimeout:  180 * time.Second,
	}

	log.Printf("Voice Calendar Cloud Server v%s starting on %s", VERSION, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := HealthResponse{
		OK:      true,
		Version: VERSION,
		Service: "voicecal-cloud",
	}

	json.NewEncoder(w).Encode(response)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{
		"message": "Voice Calendar Cloud API Server",
		"version": VERSION,
	}

	json.NewEncoder(w).Encode(response)
}

// Helper function to get environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
