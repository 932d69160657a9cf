package catalog

import "time"

// ItemStatus is the lifecycle status of a catalog item, mirroring the
// status vocabulary of the upstream platform.
type ItemStatus string

const (
	ItemStatusDraft   ItemStatus = "draft"
	ItemStatusPending ItemStatus = "pending"
	ItemStatusPublish ItemStatus = "publish"
	ItemStatusPrivate ItemStatus = "private"
	ItemStatusTrash   ItemStatus = "trash"
	ItemStatusInherit ItemStatus = "inherit"
)

// IsValid reports whether s is a known item status
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusDraft, ItemStatusPending, ItemStatusPublish,
		ItemStatusPrivate, ItemStatusTrash, ItemStatusInherit:
		return true
	}
	return false
}

// Item is a product or product variation replicated from the upstream
// catalog. The ID is assigned upstream and is never generated locally;
// re-syncing the same ID overwrites the row in place.
type Item struct {
	ID               int64
	Title            string
	Slug             string
	Description      string
	ShortDescription string
	Status           ItemStatus
	ParentID         int64 // 0 for top-level products, set for variations
	VendorID         int64 // 0 when the item has no vendor owner
	CreatedAt        time.Time
	// ModifiedAt carries the upstream modification timestamp and is the
	// basis for the stale-snapshot guard during sync.
	ModifiedAt time.Time
}

// Meta key names for scalar item attributes. The replica stores every
// value as a string; numeric fields default to "0" and text fields to ""
// so the serving layer never deals with NULLs.
const (
	MetaKeySKU          = "_sku"
	MetaKeyRegularPrice = "_regular_price"
	MetaKeySalePrice    = "_sale_price"
	MetaKeyPrice        = "_price"
	MetaKeyStock        = "_stock"
	MetaKeyStockStatus  = "_stock_status"
	MetaKeyManageStock  = "_manage_stock"
	MetaKeyWeight       = "_weight"
	MetaKeyLength       = "_length"
	MetaKeyWidth        = "_width"
	MetaKeyHeight       = "_height"
	MetaKeyVirtual      = "_virtual"
	MetaKeyDownloadable = "_downloadable"
	MetaKeyRating       = "_wc_average_rating"
	MetaKeyTotalSales   = "total_sales"
	MetaKeyThumbnailID  = "_thumbnail_id"
	MetaKeyGalleryIDs   = "_product_image_gallery"
	MetaKeyVendorID     = "_vendor_id"
)

// ItemMeta is one scalar attribute row keyed by (item id, key).
// At most one live row exists per key.
type ItemMeta struct {
	ID     int64
	ItemID int64
	Key    string
	Value  string
}

// Attachment is an image/media row replicated from the upstream catalog,
// parented to the item it illustrates. An attachment with an empty URL
// must never be written; the sync layer skips such images.
type Attachment struct {
	ID       int64
	ItemID   int64
	URL      string
	Alt      string
	Position int
}
