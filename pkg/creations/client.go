// Package creations is the client for the gallery routes of the local API.
package creations

import (
	"context"
	"net/url"
	"time"

	"giga-banana-web/pkg/authhttp"
)

// Creation is one gallery item as served by the local API.
type Creation struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Workflow  string                 `json:"workflow,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ImageURL  string                 `json:"image_url"`
	CreatedAt time.Time              `json:"createdAt"`
	Status    string                 `json:"status"`
}

type Client struct {
	api *authhttp.Client
}

func NewClient(api *authhttp.Client) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context) ([]Creation, error) {
	var res struct {
		Creations []Creation `json:"creations"`
	}
	if err := c.api.GetJSON(ctx, "/api/creations", &res); err != nil {
		return nil, err
	}
	return res.Creations, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Creation, error) {
	var res struct {
		Creation Creation `json:"creation"`
	}
	if err := c.api.GetJSON(ctx, "/api/creations/"+url.PathEscape(id), &res); err != nil {
		return nil, err
	}
	return &res.Creation, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.api.DeleteJSON(ctx, "/api/creations/"+url.PathEscape(id), nil)
}
