// Package authhttp wraps HTTP calls to the local API with bearer-token
// attachment and a transparent single refresh-and-retry on 401.
package authhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"giga-banana-web/pkg/authstate"
)

const msgRequestFailed = "요청에 실패했습니다."

// Client carries the refreshToken cookie in its jar so the refresh
// endpoint works without explicit credential plumbing.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	store *authstate.Store
}

func New(baseURL string, store *authstate.Store) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		store: store,
	}, nil
}

type requestOptions struct {
	skipAuth bool
}

type RequestOption func(*requestOptions)

// SkipAuth leaves the Authorization header off entirely and disables the
// refresh-and-retry path for this request.
func SkipAuth() RequestOption {
	return func(o *requestOptions) { o.skipAuth = true }
}

// do performs one request, refreshing the access token and retrying exactly
// once on 401. An unrecoverable refresh forces a client-side logout.
func (c *Client) do(ctx context.Context, method, path string, body []byte, skipAuth bool) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, body, skipAuth)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !skipAuth {
		resp.Body.Close()
		if !c.refresh(ctx) {
			c.store.Logout()
			return nil, errors.New(msgRequestFailed)
		}
		return c.send(ctx, method, path, body, skipAuth)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, skipAuth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if !skipAuth {
		if token := c.store.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return c.HTTP.Do(req)
}

// refresh trades the httpOnly cookie for a new access token. Returns false
// when the session cannot be recovered.
func (c *Client) refresh(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/auth/refresh", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || data.AccessToken == "" {
		return false
	}
	return c.store.SetAccessToken(data.AccessToken) == nil
}

// doJSON runs the request and decodes the response into out, normalizing
// error bodies into a single presentable string.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}, opts ...RequestOption) error {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	resp, err := c.do(ctx, method, path, body, options.skipAuth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &eb); err == nil {
			if eb.Error != "" {
				return errors.New(eb.Error)
			}
			if eb.Message != "" {
				return errors.New(eb.Message)
			}
		}
		return errors.New(msgRequestFailed)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) GetJSON(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) PostJSON(ctx context.Context, path string, payload, out interface{}, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, payload, out, opts...)
}

func (c *Client) DeleteJSON(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out, opts...)
}
