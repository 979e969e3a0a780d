package authhttp

import (
	"context"
	"net/http"

	"giga-banana-web/pkg/authstate"
)

type authResponse struct {
	Message     string         `json:"message"`
	User        authstate.User `json:"user"`
	AccessToken string         `json:"accessToken"`
}

// Login authenticates against the local API and stores the identity and
// access token; the refresh cookie lands in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) (*authstate.User, error) {
	var res authResponse
	err := c.PostJSON(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res, SkipAuth())
	if err != nil {
		return nil, err
	}
	if err := c.store.SetAuth(res.User, res.AccessToken); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *Client) Signup(ctx context.Context, email, name, password string) (*authstate.User, error) {
	var res authResponse
	err := c.PostJSON(ctx, "/api/auth/signup", map[string]string{
		"email":    email,
		"name":     name,
		"password": password,
	}, &res, SkipAuth())
	if err != nil {
		return nil, err
	}
	if err := c.store.SetAuth(res.User, res.AccessToken); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Logout revokes the refresh token server-side and always clears local
// state, even when the revocation call fails.
func (c *Client) Logout(ctx context.Context) error {
	_ = c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, SkipAuth())
	return c.store.Logout()
}
