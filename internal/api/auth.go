package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// TokenPair is the body of a successful refresh exchange.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthURL asks the API for the OAuth redirect URL that starts the login
// flow.
func (c *Client) AuthURL(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/login", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	authURL := gjson.GetBytes(body, "authUrl")
	if !authURL.Exists() || authURL.String() == "" {
		return "", fmt.Errorf("login response carries no authUrl")
	}

	return authURL.String(), nil
}

// ValidateToken confirms a bearer token with the remote API. Any 2xx
// response means valid. Implements the session bootstrap validator.
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	payload := map[string]string{"token": token}

	return c.postJSON(ctx, "/token/validate", payload, nil)
}

// ExchangeRefreshToken trades a refresh token for a fresh pair at the
// token-refresh endpoint. A non-2xx response or network fault returns an
// error with no side effects.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	payload := map[string]string{"refreshToken": refreshToken}

	var pair TokenPair
	if err := c.postJSON(ctx, "/api/token/refresh", payload, &pair); err != nil {
		return "", "", err
	}

	if pair.AccessToken == "" {
		return "", "", fmt.Errorf("refresh response carries no access token")
	}

	return pair.AccessToken, pair.RefreshToken, nil
}
