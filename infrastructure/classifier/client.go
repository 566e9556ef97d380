// Package classifier talks to the remote classification service.
package classifier

import (
	"context"

	"taxonomy/application/ports"
	"taxonomy/infrastructure/remote"
)

// Client implements ports.ClassifierClient over HTTP
type Client struct {
	transport *remote.JSONClient
}

// NewClient creates a classifier client over the given transport
func NewClient(transport *remote.JSONClient) *Client {
	return &Client{transport: transport}
}

// GenerateClasses asks for child categories of a category
func (c *Client) GenerateClasses(ctx context.Context, req ports.GenerateClassesRequest) (*ports.GenerateClassesResponse, error) {
	var resp ports.GenerateClassesResponse
	if err := c.transport.Post(ctx, "generate_classes", "/generate_classes", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClassifyItems asks the service to assign items to categories
func (c *Client) ClassifyItems(ctx context.Context, req ports.ClassifyItemsRequest) (*ports.ClassifyItemsResponse, error) {
	var resp ports.ClassifyItemsResponse
	if err := c.transport.Post(ctx, "classify_items", "/classify_items", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

var _ ports.ClassifierClient = (*Client)(nil)
