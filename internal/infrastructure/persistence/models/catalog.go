// Package models contains the GORM persistence models of the catalog
// replica. Models are kept separate from domain entities; each model
// converts with ToDomain/FromDomain.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ItemModel is the persistence model for the replicated catalog item.
// The primary key is the upstream id; it is never generated locally.
type ItemModel struct {
	ID               int64              `gorm:"primaryKey;autoIncrement:false"`
	Title            string             `gorm:"type:varchar(200);not null"`
	Slug             string             `gorm:"type:varchar(200);not null;index"`
	Description      string             `gorm:"type:text;not null"`
	ShortDescription string             `gorm:"type:text;not null"`
	Status           catalog.ItemStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	ParentID         int64              `gorm:"not null;default:0;index"`
	VendorID         int64              `gorm:"not null;default:0;index"`
	CreatedAt        time.Time          `gorm:"not null;index:idx_items_created_id,priority:1"`
	ModifiedAt       time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "catalog_items"
}

// ToDomain converts the persistence model to a domain Item
func (m *ItemModel) ToDomain() *catalog.Item {
	return &catalog.Item{
		ID:               m.ID,
		Title:            m.Title,
		Slug:             m.Slug,
		Description:      m.Description,
		ShortDescription: m.ShortDescription,
		Status:           m.Status,
		ParentID:         m.ParentID,
		VendorID:         m.VendorID,
		CreatedAt:        m.CreatedAt,
		ModifiedAt:       m.ModifiedAt,
	}
}

// FromDomain populates the persistence model from a domain Item
func (m *ItemModel) FromDomain(item *catalog.Item) {
	m.ID = item.ID
	m.Title = item.Title
	m.Slug = item.Slug
	m.Description = item.Description
	m.ShortDescription = item.ShortDescription
	m.Status = item.Status
	m.ParentID = item.ParentID
	m.VendorID = item.VendorID
	m.CreatedAt = item.CreatedAt
	m.ModifiedAt = item.ModifiedAt
}

// ItemMetaModel is one scalar attribute row. The composite unique index
// guarantees at most one live value per (item, key).
type ItemMetaModel struct {
	ID     int64  `gorm:"primaryKey"`
	ItemID int64  `gorm:"not null;uniqueIndex:idx_meta_item_key,priority:1"`
	Key    string `gorm:"column:meta_key;type:varchar(191);not null;uniqueIndex:idx_meta_item_key,priority:2"`
	Value  string `gorm:"column:meta_value;type:text;not null"`
}

// TableName returns the table name for GORM
func (ItemMetaModel) TableName() string {
	return "item_meta"
}

// TermModel is a taxonomy term. The id comes from the upstream source.
type TermModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Name string `gorm:"type:varchar(200);not null"`
	Slug string `gorm:"type:varchar(200);not null;index"`
}

// TableName returns the table name for GORM
func (TermModel) TableName() string {
	return "terms"
}

// ToDomain converts the persistence model to a domain Term
func (m *TermModel) ToDomain() catalog.Term {
	return catalog.Term{ID: m.ID, Name: m.Name, Slug: m.Slug}
}

// TermTaxonomyModel binds a term to a taxonomy. Its id is the replica's
// own surrogate key, resolved by (term_id, taxonomy) lookup.
type TermTaxonomyModel struct {
	ID       int64  `gorm:"primaryKey"`
	TermID   int64  `gorm:"not null;uniqueIndex:idx_tt_term_taxonomy,priority:1"`
	Taxonomy string `gorm:"type:varchar(64);not null;uniqueIndex:idx_tt_term_taxonomy,priority:2;index"`
	ParentID int64  `gorm:"not null;default:0"`
	Count    int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TermTaxonomyModel) TableName() string {
	return "term_taxonomies"
}

// TermRelationshipModel links an item to a term-taxonomy row
type TermRelationshipModel struct {
	ItemID         int64 `gorm:"primaryKey;autoIncrement:false"`
	TermTaxonomyID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName returns the table name for GORM
func (TermRelationshipModel) TableName() string {
	return "term_relationships"
}

// AttachmentModel is a replicated media row. URL is never empty: the
// sync layer refuses to write attachments without a resolvable URL.
type AttachmentModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false"`
	ItemID   int64  `gorm:"not null;index"`
	URL      string `gorm:"type:text;not null"`
	Alt      string `gorm:"type:varchar(500);not null"`
	Position int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "attachments"
}

// ToDomain converts the persistence model to a domain Attachment
func (m *AttachmentModel) ToDomain() catalog.Attachment {
	return catalog.Attachment{
		ID:       m.ID,
		ItemID:   m.ItemID,
		URL:      m.URL,
		Alt:      m.Alt,
		Position: m.Position,
	}
}

// FromDomain populates the persistence model from a domain Attachment
func (m *AttachmentModel) FromDomain(a *catalog.Attachment) {
	m.ID = a.ID
	m.ItemID = a.ItemID
	m.URL = a.URL
	m.Alt = a.Alt
	m.Position = a.Position
}

// ProductLookupModel is the pre-aggregated filter row, one per item.
type ProductLookupModel struct {
	ItemID        int64           `gorm:"primaryKey;autoIncrement:false"`
	SKU           string          `gorm:"type:varchar(100);not null;index"`
	MinPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;index"`
	MaxPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;index"`
	OnSale        bool            `gorm:"not null;default:false;index"`
	StockQuantity int64           `gorm:"not null;default:0"`
	StockStatus   string          `gorm:"type:varchar(20);not null;default:'instock';index"`
	Rating        decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TotalSales    int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductLookupModel) TableName() string {
	return "product_lookup"
}

// ToDomain converts the persistence model to a domain ProductLookup
func (m *ProductLookupModel) ToDomain() catalog.ProductLookup {
	return catalog.ProductLookup{
		ItemID:        m.ItemID,
		SKU:           m.SKU,
		MinPrice:      m.MinPrice,
		MaxPrice:      m.MaxPrice,
		OnSale:        m.OnSale,
		StockQuantity: m.StockQuantity,
		StockStatus:   m.StockStatus,
		Rating:        m.Rating,
		TotalSales:    m.TotalSales,
	}
}

// FromDomain populates the persistence model from a domain ProductLookup
func (m *ProductLookupModel) FromDomain(l *catalog.ProductLookup) {
	m.ItemID = l.ItemID
	m.SKU = l.SKU
	m.MinPrice = l.MinPrice
	m.MaxPrice = l.MaxPrice
	m.OnSale = l.OnSale
	m.StockQuantity = l.StockQuantity
	m.StockStatus = l.StockStatus
	m.Rating = l.Rating
	m.TotalSales = l.TotalSales
}

// All returns every replica model, in creation order, for migrations
// and test schema setup.
func All() []any {
	return []any{
		&ItemModel{},
		&ItemMetaModel{},
		&TermModel{},
		&TermTaxonomyModel{},
		&TermRelationshipModel{},
		&AttachmentModel{},
		&ProductLookupModel{},
	}
}
