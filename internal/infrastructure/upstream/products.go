package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ListParams selects a page of upstream products.
type ListParams struct {
	Page    int
	PerPage int
	// ModifiedAfter limits results to products changed since the given
	// time, for incremental re-syncs.
	ModifiedAfter time.Time
}

// ListProducts fetches one page of product snapshots.
func (c *Client) ListProducts(ctx context.Context, params ListParams) ([]catalog.ItemSnapshot, error) {
	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(params.PerPage))
	}
	if !params.ModifiedAfter.IsZero() {
		query.Set("modified_after", params.ModifiedAfter.UTC().Format("2006-01-02T15:04:05"))
	}

	var snapshots []catalog.ItemSnapshot
	if err := c.getJSON(ctx, "/products", query, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// GetProduct fetches a single product snapshot by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*catalog.ItemSnapshot, error) {
	var snapshot catalog.ItemSnapshot
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// CreateProduct creates a product upstream and returns the resulting
// snapshot, which carries the upstream-assigned id.
func (c *Client) CreateProduct(ctx context.Context, payload map[string]any) (*catalog.ItemSnapshot, error) {
	var snapshot catalog.ItemSnapshot
	if err := c.sendJSON(ctx, http.MethodPost, "/products", nil, payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// UpdateProduct applies a partial update upstream and returns the
// updated snapshot.
func (c *Client) UpdateProduct(ctx context.Context, id int64, payload map[string]any) (*catalog.ItemSnapshot, error) {
	var snapshot catalog.ItemSnapshot
	if err := c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), nil, payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// DeleteProduct deletes a product upstream. force skips the upstream
// trash and removes the product permanently.
func (c *Client) DeleteProduct(ctx context.Context, id int64, force bool) error {
	query := url.Values{}
	if force {
		query.Set("force", "true")
	}
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), query, nil, nil)
}
