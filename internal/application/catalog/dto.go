package catalog

import (
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductTerm is one taxonomy term in a product response.
type ProductTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductImage is one image in a product response.
type ProductImage struct {
	ID       int64  `json:"id"`
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

// ProductResponse is the assembled read model of one product, composed
// from the item row, its meta bag, taxonomy terms, attachments and the
// lookup row.
type ProductResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
	Status           string `json:"status"`
	ParentID         int64  `json:"parent_id,omitempty"`
	VendorID         int64  `json:"vendor_id,omitempty"`

	SKU          string `json:"sku"`
	Price        string `json:"price"`
	RegularPrice string `json:"regular_price"`
	SalePrice    string `json:"sale_price"`
	OnSale       bool   `json:"on_sale"`

	StockStatus   string `json:"stock_status"`
	StockQuantity int64  `json:"stock_quantity"`
	ManageStock   bool   `json:"manage_stock"`

	Weight     string            `json:"weight,omitempty"`
	Dimensions ProductDimensions `json:"dimensions"`

	AverageRating string `json:"average_rating"`
	TotalSales    int64  `json:"total_sales"`

	Categories []ProductTerm            `json:"categories"`
	Tags       []ProductTerm            `json:"tags"`
	Brands     []ProductTerm            `json:"brands"`
	Locations  []ProductTerm            `json:"locations"`
	Attributes map[string][]ProductTerm `json:"attributes,omitempty"`

	Images []ProductImage `json:"images"`

	DateCreated  time.Time `json:"date_created"`
	DateModified time.Time `json:"date_modified"`
}

// ProductDimensions mirrors the replicated dimension meta.
type ProductDimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// ProductListResponse is one page of assembled products with pagination
// metadata.
type ProductListResponse struct {
	Products        []ProductResponse `json:"products"`
	TotalCount      int64             `json:"total_count"`
	HasNextPage     bool              `json:"has_next_page"`
	HasPreviousPage bool              `json:"has_previous_page"`
	EndCursor       string            `json:"end_cursor,omitempty"`
}

// buildProductResponse assembles the read model from the per-dimension
// rows a loader bundle resolved.
func buildProductResponse(
	item *catalog.Item,
	meta map[string]string,
	terms map[string][]catalog.Term,
	attachments []catalog.Attachment,
	lookup catalog.ProductLookup,
) ProductResponse {
	resp := ProductResponse{
		ID:               item.ID,
		Name:             item.Title,
		Slug:             item.Slug,
		Description:      item.Description,
		ShortDescription: item.ShortDescription,
		Status:           string(item.Status),
		ParentID:         item.ParentID,
		VendorID:         item.VendorID,

		SKU:          meta[catalog.MetaKeySKU],
		Price:        meta[catalog.MetaKeyPrice],
		RegularPrice: meta[catalog.MetaKeyRegularPrice],
		SalePrice:    meta[catalog.MetaKeySalePrice],
		OnSale:       lookup.OnSale,

		StockStatus:   lookup.StockStatus,
		StockQuantity: lookup.StockQuantity,
		ManageStock:   meta[catalog.MetaKeyManageStock] == "yes",

		Weight: meta[catalog.MetaKeyWeight],
		Dimensions: ProductDimensions{
			Length: meta[catalog.MetaKeyLength],
			Width:  meta[catalog.MetaKeyWidth],
			Height: meta[catalog.MetaKeyHeight],
		},

		AverageRating: meta[catalog.MetaKeyRating],
		TotalSales:    lookup.TotalSales,

		Categories: mapTerms(terms[catalog.TaxonomyCategory]),
		Tags:       mapTerms(terms[catalog.TaxonomyTag]),
		Brands:     mapTerms(terms[catalog.TaxonomyBrand]),
		Locations:  mapTerms(terms[catalog.TaxonomyLocation]),

		DateCreated:  item.CreatedAt,
		DateModified: item.ModifiedAt,
	}

	for taxonomy, taxonomyTerms := range terms {
		attr, ok := catalog.AttributeSlug(taxonomy)
		if !ok {
			continue
		}
		if resp.Attributes == nil {
			resp.Attributes = make(map[string][]ProductTerm)
		}
		resp.Attributes[attr] = mapTerms(taxonomyTerms)
	}

	resp.Images = make([]ProductImage, 0, len(attachments))
	for _, a := range attachments {
		resp.Images = append(resp.Images, ProductImage{
			ID:       a.ID,
			Src:      a.URL,
			Alt:      a.Alt,
			Position: a.Position,
		})
	}

	return resp
}

func mapTerms(terms []catalog.Term) []ProductTerm {
	result := make([]ProductTerm, 0, len(terms))
	for _, t := range terms {
		result = append(result, ProductTerm{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return result
}
