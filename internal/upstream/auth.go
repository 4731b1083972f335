package upstream

import (
	"context"
	"net/http"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
)

// Credentials is the payload for Login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the payload for Register.
type Registration struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// TokenPair is the access/refresh token pair issued by the platform.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult bundles the authenticated user with their tokens.
type LoginResult struct {
	User   *models.AuthUser `json:"user"`
	Tokens TokenPair        `json:"tokens"`
}

// Login exchanges credentials for a token pair and the user profile.
// All user endpoints speak the status envelope.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/users/login", "", creds)
	if err != nil {
		return nil, err
	}
	var result LoginResult
	if err := decodeStatus(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new platform account. The platform issues a
// token pair alongside the profile, same shape as Login.
func (c *Client) Register(ctx context.Context, reg Registration) (*LoginResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/users/register", "", reg)
	if err != nil {
		return nil, err
	}
	var result LoginResult
	if err := decodeStatus(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*models.AuthUser, error) {
	var user models.AuthUser
	err := c.get(ctx, "/users/me", token, func(raw []byte) error {
		return decodeStatus(raw, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the token server-side. Callers treat a failure
// here as advisory; local session state is always cleared regardless.
func (c *Client) Logout(ctx context.Context, token string) error {
	raw, err := c.do(ctx, http.MethodPost, "/users/logout", token, nil)
	if err != nil {
		return err
	}
	return decodeStatus(raw, nil)
}

// Refresh exchanges a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}
	raw, err := c.do(ctx, http.MethodPost, "/users/refresh", "", body)
	if err != nil {
		return nil, err
	}
	var tokens TokenPair
	if err := decodeStatus(raw, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}
