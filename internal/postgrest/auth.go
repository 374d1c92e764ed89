package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/andrejsm/readsync/internal/common"
)

// TokenResponse is the shape returned by both token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID string `json:"id"`
	} `json:"user"`
}

type passwordGrantBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshGrantBody struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordGrant exchanges email/password for a token pair. A 4xx response
// means the credentials were rejected (common.ErrInvalidCredentials);
// transport failures surface as common.ErrUnavailable.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.tokenRequest(ctx, "password",
		passwordGrantBody{Email: email, Password: password}, common.ErrInvalidCredentials)
}

// RefreshGrant exchanges a refresh token for a fresh pair. A 4xx response
// means the refresh token was rejected (common.ErrUnauthorized), which is
// distinct from a transient network failure; callers must not fall through
// to a password login on the latter.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.tokenRequest(ctx, "refresh_token",
		refreshGrantBody{RefreshToken: refreshToken}, common.ErrUnauthorized)
}

func (c *Client) tokenRequest(ctx context.Context, grant string, body any, rejectErr error) (*TokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, c.authURL("/token?grant_type="+grant), "", body)
	if err != nil {
		return nil, err
	}

	status, data, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("token request (%s): %w", grant, err)
	}

	switch {
	case status >= 200 && status < 300:
		// fallthrough to decode
	case status >= 400 && status < 500:
		c.log.Warn(ctx, "token grant rejected", "grant", grant, "status", status)
		return nil, rejectErr
	default:
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, &StatusError{Code: status, Body: string(data)})
	}

	var tr TokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", common.ErrInvalidToken)
	}
	return &tr, nil
}
