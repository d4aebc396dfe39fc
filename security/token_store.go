package security

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// CalendarScopes are requested during the OAuth consent flow.
var CalendarScopes = []string{
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsScope,
}

// TokenInfo is the stored form of a user's OAuth credential.
type TokenInfo struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenStore keeps per-user calendar OAuth tokens in Redis. Tokens are
// written whole on every store, so concurrent readers never observe a
// partially updated credential.
type TokenStore struct {
	redisClient *redis.Client
	oauthConfig *oauth2.Config
}

// NewTokenStore creates a token store backed by the given Redis client.
func NewTokenStore(redisClient *redis.Client) *TokenStore {
	return &TokenStore{redisClient: redisClient}
}

// Configure sets the OAuth client used for auth URLs, code exchange and
// token refresh.
func (ts *TokenStore) Configure(clientID, clientSecret, redirectURL string) {
	ts.oauthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       CalendarScopes,
		Endpoint:     google.Endpoint,
	}
	log.Printf("Configured calendar OAuth with client ID %s", clientID)
}

// GetAuthURL generates the OAuth consent URL together with a CSRF state
// parameter that is held in Redis for ten minutes.
func (ts *TokenStore) GetAuthURL(ctx context.Context, userID string) (string, string, error) {
	if ts.oauthConfig == nil {
		return "", "", fmt.Errorf("calendar OAuth not configured")
	}

	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(stateBytes)

	stateKey := fmt.Sprintf("oauth_state:%s", state)
	if err := ts.redisClient.Set(ctx, stateKey, userID, 10*time.Minute).Err(); err != nil {
		return "", "", fmt.Errorf("failed to store OAuth state: %w", err)
	}

	authURL := ts.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	return authURL, state, nil
}

// ExchangeCodeForToken verifies the state parameter, exchanges the
// authorization code and stores the resulting token for the user the state
// was minted for. The resolved user id is returned.
func (ts *TokenStore) ExchangeCodeForToken(ctx context.Context, code, state string) (string, *oauth2.Token, error) {
	if ts.oauthConfig == nil {
		return "", nil, fmt.Errorf("calendar OAuth not configured")
	}

	stateKey := fmt.Sprintf("oauth_state:%s", state)
	defer ts.redisClient.Del(ctx, stateKey)

	userID, err := ts.redisClient.Get(ctx, stateKey).Result()
	if err == redis.Nil {
		return "", nil, fmt.Errorf("invalid or expired state parameter")
	} else if err != nil {
		return "", nil, fmt.Errorf("failed to verify state: %w", err)
	}

	token, err := ts.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := ts.StoreToken(ctx, userID, token); err != nil {
		return "", nil, fmt.Errorf("failed to store token: %w", err)
	}

	return userID, token, nil
}

// StoreToken writes the user's credential. A plain SET replaces the whole
// value atomically.
func (ts *TokenStore) StoreToken(ctx context.Context, userID string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}

	tokenInfo := &TokenInfo{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		UserID:       userID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	tokenData, err := json.Marshal(tokenInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal token info: %w", err)
	}

	// 30 day expiry, refreshed on access.
	if err := ts.redisClient.Set(ctx, tokenKey(userID), tokenData, 30*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}

	log.Printf("Stored calendar OAuth token for user %s", userID)
	return nil
}

// GetToken retrieves the stored credential for a user.
func (ts *TokenStore) GetToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	tokenData, err := ts.redisClient.Get(ctx, tokenKey(userID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("no calendar token found for user %s", userID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}

	var tokenInfo TokenInfo
	if err := json.Unmarshal([]byte(tokenData), &tokenInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token info: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  tokenInfo.AccessToken,
		RefreshToken: tokenInfo.RefreshToken,
		TokenType:    tokenInfo.TokenType,
		Expiry:       tokenInfo.Expiry,
	}, nil
}

// HasToken reports whether a credential is stored for the user.
func (ts *TokenStore) HasToken(ctx context.Context, userID string) bool {
	exists, err := ts.redisClient.Exists(ctx, tokenKey(userID)).Result()
	if err != nil {
		log.Printf("Failed to check token existence for user %s: %v", userID, err)
		return false
	}
	return exists > 0
}

// RefreshToken forces a refresh of the user's token and stores the result.
func (ts *TokenStore) RefreshToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	if ts.oauthConfig == nil {
		return nil, fmt.Errorf("calendar OAuth not configured")
	}

	currentToken, err := ts.GetToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current token: %w", err)
	}

	if currentToken.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available for user %s", userID)
	}

	// Force the cached token to be considered expired so the TokenSource actually refreshes.
	if currentToken.Expiry.After(time.Now()) {
		currentToken.Expiry = time.Now().Add(-1 * time.Minute)
	}

	newToken, err := ts.oauthConfig.TokenSource(ctx, currentToken).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := ts.StoreToken(ctx, userID, newToken); err != nil {
		return nil, fmt.Errorf("failed to store refreshed token: %w", err)
	}

	log.Printf("Refreshed calendar OAuth token for user %s", userID)
	return newToken, nil
}

// GetValidToken returns a usable token, refreshing first when it expires
// within five minutes.
func (ts *TokenStore) GetValidToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	token, err := ts.GetToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	if token.Expiry.Before(time.Now().Add(5 * time.Minute)) {
		log.Printf("Calendar token expired for user %s, refreshing...", userID)
		return ts.RefreshToken(ctx, userID)
	}

	return token, nil
}

// DeleteToken removes the stored credential for a user.
func (ts *TokenStore) DeleteToken(ctx context.Context, userID string) error {
	if err := ts.redisClient.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	log.Printf("Deleted calendar OAuth token for user %s", userID)
	return nil
}

func tokenKey(userID string) string {
	return fmt.Sprintf("oauth_token:%s:calendar", userID)
}
