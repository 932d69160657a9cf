package catalog

import (
	"strconv"
	"strings"
	"time"
)

// upstreamTimeLayouts lists the timestamp formats the upstream API emits.
// The GMT variants carry no offset.
var upstreamTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UpstreamTime wraps time.Time with JSON parsing tolerant of the
// upstream platform's timestamp formats. An empty or null value decodes
// to the zero time.
type UpstreamTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (t *UpstreamTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range upstreamTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON implements json.Marshaler
func (t UpstreamTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.UTC().Format("2006-01-02T15:04:05") + `"`), nil
}

// SnapshotDimensions holds the physical dimensions of an item as
// reported upstream (strings, possibly empty).
type SnapshotDimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// SnapshotAttribute is one attribute facet of an item: the attribute
// slug (e.g. "color") and its selected terms.
type SnapshotAttribute struct {
	Slug    string    `json:"slug"`
	Name    string    `json:"name"`
	Options []TermRef `json:"options"`
}

// SnapshotImage is one image entry of an item. Src may be empty when the
// upstream media row is broken; such entries are skipped during sync.
type SnapshotImage struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

// ItemSnapshot is the canonical representation of a product or variation
// as returned by the upstream catalog API. It is the sole input of the
// replicator: webhook payloads and post-write fetches both decode into
// this shape.
type ItemSnapshot struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	Slug             string              `json:"slug"`
	Description      string              `json:"description"`
	ShortDescription string              `json:"short_description"`
	Status           string              `json:"status"`
	ParentID         int64               `json:"parent_id"`
	DateCreated      UpstreamTime        `json:"date_created_gmt"`
	DateModified     UpstreamTime        `json:"date_modified_gmt"`
	SKU              string              `json:"sku"`
	Price            string              `json:"price"`
	RegularPrice     string              `json:"regular_price"`
	SalePrice        string              `json:"sale_price"`
	ManageStock      bool                `json:"manage_stock"`
	StockQuantity    *int64              `json:"stock_quantity"`
	StockStatus      string              `json:"stock_status"`
	Weight           string              `json:"weight"`
	Dimensions       SnapshotDimensions  `json:"dimensions"`
	Virtual          bool                `json:"virtual"`
	Downloadable     bool                `json:"downloadable"`
	AverageRating    string              `json:"average_rating"`
	TotalSales       int64               `json:"total_sales"`
	VendorID         int64               `json:"vendor_id"`
	Categories       []TermRef           `json:"categories"`
	Tags             []TermRef           `json:"tags"`
	Brands           []TermRef           `json:"brands"`
	Locations        []TermRef           `json:"locations"`
	Attributes       []SnapshotAttribute `json:"attributes"`
	Images           []SnapshotImage     `json:"images"`
}

// Item builds the replica item row for this snapshot. Unknown statuses
// fall back to draft rather than failing the sync.
func (s *ItemSnapshot) Item() *Item {
	status := ItemStatus(s.Status)
	if !status.IsValid() {
		status = ItemStatusDraft
	}
	return &Item{
		ID:               s.ID,
		Title:            s.Name,
		Slug:             s.Slug,
		Description:      s.Description,
		ShortDescription: s.ShortDescription,
		Status:           status,
		ParentID:         s.ParentID,
		VendorID:         s.VendorID,
		CreatedAt:        s.DateCreated.Time,
		ModifiedAt:       s.DateModified.Time,
	}
}

// MetaMap derives the full scalar attribute set for this snapshot.
// Every known key is present: absent numeric fields become "0" and
// absent text fields become "", which keeps the serving layer free of
// NULL handling.
func (s *ItemSnapshot) MetaMap() map[string]string {
	meta := map[string]string{
		MetaKeySKU:          s.SKU,
		MetaKeyPrice:        zeroIfEmpty(s.Price),
		MetaKeyRegularPrice: zeroIfEmpty(s.RegularPrice),
		MetaKeySalePrice:    zeroIfEmpty(s.SalePrice),
		MetaKeyStockStatus:  s.StockStatus,
		MetaKeyManageStock:  boolMeta(s.ManageStock),
		MetaKeyWeight:       zeroIfEmpty(s.Weight),
		MetaKeyLength:       zeroIfEmpty(s.Dimensions.Length),
		MetaKeyWidth:        zeroIfEmpty(s.Dimensions.Width),
		MetaKeyHeight:       zeroIfEmpty(s.Dimensions.Height),
		MetaKeyVirtual:      boolMeta(s.Virtual),
		MetaKeyDownloadable: boolMeta(s.Downloadable),
		MetaKeyRating:       zeroIfEmpty(s.AverageRating),
		MetaKeyTotalSales:   strconv.FormatInt(s.TotalSales, 10),
		MetaKeyVendorID:     strconv.FormatInt(s.VendorID, 10),
	}

	stock := int64(0)
	if s.StockQuantity != nil {
		stock = *s.StockQuantity
	}
	meta[MetaKeyStock] = strconv.FormatInt(stock, 10)

	meta[MetaKeyThumbnailID] = ""
	meta[MetaKeyGalleryIDs] = ""
	if len(s.Images) > 0 {
		meta[MetaKeyThumbnailID] = strconv.FormatInt(s.Images[0].ID, 10)
		if len(s.Images) > 1 {
			gallery := make([]string, 0, len(s.Images)-1)
			for _, img := range s.Images[1:] {
				gallery = append(gallery, strconv.FormatInt(img.ID, 10))
			}
			meta[MetaKeyGalleryIDs] = strings.Join(gallery, ",")
		}
	}

	return meta
}

// TermsByTaxonomy groups the snapshot's terms under their taxonomy name,
// including one dynamic attribute taxonomy per attribute facet. Every
// taxonomy the replicator manages appears in the result; an empty slice
// means the item carries no terms in that taxonomy and existing links
// must be removed.
func (s *ItemSnapshot) TermsByTaxonomy() map[string][]TermRef {
	terms := map[string][]TermRef{
		TaxonomyCategory: s.Categories,
		TaxonomyTag:      s.Tags,
		TaxonomyBrand:    s.Brands,
		TaxonomyLocation: s.Locations,
	}
	for _, attr := range s.Attributes {
		if attr.Slug == "" {
			continue
		}
		terms[AttributeTaxonomy(attr.Slug)] = attr.Options
	}
	return terms
}

func zeroIfEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return "0"
	}
	return v
}

func boolMeta(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
