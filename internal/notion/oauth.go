package notion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// AuthURL is the Notion OAuth authorization endpoint
	AuthURL = "https://api.notion.com/v1/oauth/authorize"
	// TokenURL is the Notion OAuth token endpoint
	TokenURL = "https://api.notion.com/v1/oauth/token"
)

// OAuthConfig holds OAuth configuration
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// TokenURL overrides the token endpoint
	TokenURL string
}

// OAuthToken represents the OAuth token response.
// DuplicatedTemplateID is set when the integration was installed from a
// template; it is the page that holds the kit databases.
type OAuthToken struct {
	AccessToken          string `json:"access_token"`
	TokenType            string `json:"token_type"`
	BotID                string `json:"bot_id"`
	WorkspaceID          string `json:"workspace_id"`
	WorkspaceName        string `json:"workspace_name"`
	DuplicatedTemplateID string `json:"duplicated_template_id,omitempty"`
}

// OAuthClient handles OAuth operations
type OAuthClient struct {
	config     *OAuthConfig
	httpClient *http.Client
}

// NewOAuthClient creates a new OAuth client
func NewOAuthClient(config *OAuthConfig) *OAuthClient {
	return &OAuthClient{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetAuthURL returns the authorization URL
func (c *OAuthClient) GetAuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.config.ClientID)
	params.Set("redirect_uri", c.config.RedirectURI)
	params.Set("response_type", "code")
	params.Set("owner", "user")
	if state != "" {
		params.Set("state", state)
	}

	return AuthURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for an access token
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (*OAuthToken, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": c.config.RedirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	tokenURL := c.config.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Basic authentication with client_id:client_secret
	auth := base64.StdEncoding.EncodeToString([]byte(c.config.ClientID + ":" + c.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
			return nil, fmt.Errorf("OAuth error (status %d): %s", resp.StatusCode, string(body))
		}
		apiErr.Status = resp.StatusCode
		return nil, &apiErr
	}

	var token OAuthToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &token, nil
}
