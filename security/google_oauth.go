package security

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleServiceClient provides authenticated access to Google Calendar on
// behalf of a user.
type GoogleServiceClient struct {
	tokenStore *TokenStore
}

// NewGoogleServiceClient creates a new Google service client.
func NewGoogleServiceClient(tokenStore *TokenStore) *GoogleServiceClient {
	return &GoogleServiceClient{tokenStore: tokenStore}
}

// Initialize configures the calendar OAuth client.
func (g *GoogleServiceClient) Initialize(clientID, clientSecret, redirectURL string) {
	if clientID == "" || clientSecret == "" {
		log.Printf("Calendar OAuth credentials missing; skipping initialization")
		return
	}
	g.tokenStore.Configure(clientID, clientSecret, redirectURL)
}

// GetCalendarService returns an authenticated Calendar service for a user.
func (g *GoogleServiceClient) GetCalendarService(ctx context.Context, userID string) (*calendar.Service, error) {
	token, err := g.tokenStore.GetValidToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get valid Calendar token for user %s: %w", userID, err)
	}

	if g.tokenStore.oauthConfig == nil {
		return nil, fmt.Errorf("calendar OAuth not configured")
	}

	client := g.tokenStore.oauthConfig.Client(ctx, token)

	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return service, nil
}

// HasCredential reports whether a calendar credential is stored for the user.
func (g *GoogleServiceClient) HasCredential(ctx context.Context, userID string) bool {
	return g.tokenStore.HasToken(ctx, userID)
}

// ValidateCalendarAccess checks if Calendar access is working for a user.
func (g *GoogleServiceClient) ValidateCalendarAccess(ctx context.Context, userID string) error {
	service, err := g.GetCalendarService(ctx, userID)
	if err != nil {
		return err
	}

	_, err = service.CalendarList.List().MaxResults(1).Do()
	if err != nil {
		return fmt.Errorf("Calendar access validation failed: %w", err)
	}

	log.Printf("Calendar access validated for user %s", userID)
	return nil
}

// RevokeAccess drops the stored credential for the user.
func (g *GoogleServiceClient) RevokeAccess(ctx context.Context, userID string) error {
	if err := g.tokenStore.DeleteToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	log.Printf("Revoked calendar access for user %s", userID)
	return nil
}

// Helper function to allow time mocking in tests
var Now = time.Now

// GetAuthURL provides access to the token store's GetAuthURL method.
func (g *GoogleServiceClient) GetAuthURL(ctx context.Context, userID string) (string, string, error) {
	return g.tokenStore.GetAuthURL(ctx, userID)
}

// ExchangeCodeForToken provides access to the token store's code exchange.
func (g *GoogleServiceClient) ExchangeCodeForToken(ctx context.Context, code, state string) (string, *oauth2.Token, error) {
	return g.tokenStore.ExchangeCodeForToken(ctx, code, state)
}

// CredentialStatus describes the stored credential for a user.
func (g *GoogleServiceClient) CredentialStatus(ctx context.Context, userID string) string {
	token, err := g.tokenStore.GetToken(ctx, userID)
	if err != nil {
		return "missing"
	}
	if token.Expiry.Before(Now().Add(5 * time.Minute)) {
		return "expired"
	}
	return "valid"
}
