package catalog

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// ListFilter describes the predicates of a product list query. Filters
// are AND-combined; multiple values within one filter are OR-combined
// (IN). Zero values mean "not filtered".
type ListFilter struct {
	// Search matches title and description, case-insensitively.
	Search string `json:"search,omitempty"`
	// Status restricts the item lifecycle status; empty means publish.
	Status ItemStatus `json:"status,omitempty"`

	CategorySlugs []string `json:"category_slugs,omitempty"`
	CategoryIDs   []int64  `json:"category_ids,omitempty"`
	TagSlugs      []string `json:"tag_slugs,omitempty"`
	BrandSlugs    []string `json:"brand_slugs,omitempty"`
	LocationSlugs []string `json:"location_slugs,omitempty"`

	// Attributes maps an attribute slug (e.g. "color") to term slugs.
	// Each entry contributes an independent taxonomy join.
	Attributes map[string][]string `json:"attributes,omitempty"`

	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
	OnSale      *bool            `json:"on_sale,omitempty"`
	StockStatus string           `json:"stock_status,omitempty"`

	// VendorID filters by the owning vendor via the vendor meta key.
	VendorID int64 `json:"vendor_id,omitempty"`
}

// EffectiveStatus returns the status the query should filter on.
func (f ListFilter) EffectiveStatus() ItemStatus {
	if f.Status == "" {
		return ItemStatusPublish
	}
	return f.Status
}

// PageRequest selects one of two pagination modes: offset (Page/PerPage)
// or keyset (After, an opaque cursor; PerPage still bounds the page).
type PageRequest struct {
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"per_page,omitempty"`
	After   string `json:"after,omitempty"`
}

// DefaultPerPage bounds pages when the caller does not specify a size.
const DefaultPerPage = 20

// MaxPerPage is the hard page size ceiling.
const MaxPerPage = 100

// Normalize clamps the request into valid bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// Offset returns the zero-based offset for offset pagination.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ListEdge is one result row of a list query: the item id plus the
// creation timestamp the keyset cursor is built from.
type ListEdge struct {
	ID        int64
	CreatedAt time.Time
}

// PageResult is a page of item ids with pagination metadata.
type PageResult struct {
	IDs             []int64 `json:"ids"`
	TotalCount      int64   `json:"total_count"`
	HasNextPage     bool    `json:"has_next_page"`
	HasPreviousPage bool    `json:"has_previous_page"`
	EndCursor       string  `json:"end_cursor,omitempty"`
}

// Cursor is a keyset pagination position: the (created_at, id) pair of
// the last item already served. Unlike an offset cursor it stays stable
// under concurrent inserts.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

const cursorPrefix = "v1"

// Encode serializes the cursor into an opaque token.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%s:%d:%d", cursorPrefix, c.CreatedAt.UTC().UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor token.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, shared.ErrInvalidCursor
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 || parts[0] != cursorPrefix {
		return Cursor{}, shared.ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Cursor{}, shared.ErrInvalidCursor
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Cursor{}, shared.ErrInvalidCursor
	}
	return Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}
