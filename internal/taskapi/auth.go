package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// LoginResponse is returned by POST /login and POST /refresh
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *model.User `json:"user,omitempty"`
	ExpiresIn    int         `json:"expires_in,omitempty"`
}

// MeResponse is returned by GET /me
type MeResponse struct {
	User  model.User  `json:"user"`
	Stats model.Stats `json:"stats"`
}

// Login exchanges credentials for tokens and stores them
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	var resp LoginResponse
	body := map[string]string{"username": username, "password": password}
	if _, err := c.Do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login: no access token in response")
	}

	if c.tokens != nil {
		if err := c.tokens.SetTokens(resp.AccessToken, resp.RefreshToken); err != nil {
			return nil, fmt.Errorf("store tokens: %w", err)
		}
		if err := c.tokens.SetUser(resp.User); err != nil {
			return nil, fmt.Errorf("store user: %w", err)
		}
	}
	return resp.User, nil
}

// Logout tells the server and forgets local credentials even if the call fails
func (c *Client) Logout(ctx context.Context) error {
	_, callErr := c.Do(ctx, http.MethodPost, "/logout", nil, nil)
	if c.tokens != nil {
		if err := c.tokens.Clear(); err != nil {
			return fmt.Errorf("clear tokens: %w", err)
		}
	}
	if callErr != nil {
		return fmt.Errorf("logout: %w", callErr)
	}
	return nil
}

// Me returns the authenticated user and their stats
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var resp MeResponse
	if _, err := c.Do(ctx, http.MethodGet, "/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &resp, nil
}

// refresh trades the refresh token for a new access token. It bypasses Do so
// a 401 here never recurses.
func (c *Client) refresh(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{"refresh_token": c.tokens.RefreshToken()})
	if err != nil {
		return fmt.Errorf("marshal refresh: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("/refresh"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp.StatusCode, body)
	}

	var parsed LoginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("unmarshal refresh response: %w", err)
	}
	if parsed.AccessToken == "" {
		return fmt.Errorf("refresh token: no access token in response")
	}

	if err := c.tokens.SetTokens(parsed.AccessToken, parsed.RefreshToken); err != nil {
		return fmt.Errorf("store refreshed tokens: %w", err)
	}
	if parsed.User != nil {
		_ = c.tokens.SetUser(parsed.User)
	}
	return nil
}
