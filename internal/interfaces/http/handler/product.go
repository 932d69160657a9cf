package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ProductHandler serves the product read and write endpoints.
type ProductHandler struct {
	BaseHandler
	reads  *appcatalog.ReadService
	lists  *appcatalog.ListService
	writes *appcatalog.WriteService
}

// NewProductHandler creates a ProductHandler.
func NewProductHandler(reads *appcatalog.ReadService, lists *appcatalog.ListService, writes *appcatalog.WriteService) *ProductHandler {
	return &ProductHandler{reads: reads, lists: lists, writes: writes}
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.reads.GetProduct(c.Request.Context(), id)
	if err != nil {
		if appcatalog.IsNotFound(err) {
			h.NotFound(c, "Product not found")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter, page, err := bindListQuery(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.lists.ListProducts(c.Request.Context(), filter, page)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Products, dto.Meta{
		Total:           result.TotalCount,
		HasNextPage:     result.HasNextPage,
		HasPreviousPage: result.HasPreviousPage,
		EndCursor:       result.EndCursor,
	})
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	snapshot, err := h.writes.CreateProduct(c.Request.Context(), payload)
	if err != nil && snapshot == nil {
		h.HandleError(c, err)
		return
	}
	// A snapshot with a replication error still means the upstream write
	// succeeded; the caller gets the created product.
	h.Created(c, snapshot)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	snapshot, err := h.writes.UpdateProduct(c.Request.Context(), id, payload)
	if err != nil && snapshot == nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	force := c.Query("force") == "true"
	if err := h.writes.DeleteProduct(c.Request.Context(), id, force); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// attrParamPrefix marks attribute filter query parameters, e.g.
// attr_color=red,blue.
const attrParamPrefix = "attr_"

// bindListQuery parses the list endpoint's query parameters. Multi-value
// filters accept comma-separated slugs; attribute filters use one
// attr_<slug> parameter per attribute.
func bindListQuery(c *gin.Context) (catalog.ListFilter, catalog.PageRequest, error) {
	filter := catalog.ListFilter{
		Search:        c.Query("search"),
		Status:        catalog.ItemStatus(c.Query("status")),
		CategorySlugs: splitCSV(c.Query("category")),
		TagSlugs:      splitCSV(c.Query("tag")),
		BrandSlugs:    splitCSV(c.Query("brand")),
		LocationSlugs: splitCSV(c.Query("location")),
		StockStatus:   c.Query("stock_status"),
	}

	for _, raw := range splitCSV(c.Query("category_id")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, catalog.PageRequest{}, errInvalidParam("category_id")
		}
		filter.CategoryIDs = append(filter.CategoryIDs, id)
	}

	for key, values := range c.Request.URL.Query() {
		if !strings.HasPrefix(key, attrParamPrefix) || len(values) == 0 {
			continue
		}
		slug := strings.TrimPrefix(key, attrParamPrefix)
		if slug == "" {
			continue
		}
		if filter.Attributes == nil {
			filter.Attributes = make(map[string][]string)
		}
		filter.Attributes[slug] = splitCSV(values[0])
	}

	if raw := c.Query("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, catalog.PageRequest{}, errInvalidParam("min_price")
		}
		filter.MinPrice = &price
	}
	if raw := c.Query("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, catalog.PageRequest{}, errInvalidParam("max_price")
		}
		filter.MaxPrice = &price
	}
	if raw := c.Query("on_sale"); raw != "" {
		onSale, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, catalog.PageRequest{}, errInvalidParam("on_sale")
		}
		filter.OnSale = &onSale
	}
	if raw := c.Query("vendor_id"); raw != "" {
		vendorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, catalog.PageRequest{}, errInvalidParam("vendor_id")
		}
		filter.VendorID = vendorID
	}

	page := catalog.PageRequest{After: c.Query("after")}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, page, errInvalidParam("page")
		}
		page.Page = n
	}
	if raw := c.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, page, errInvalidParam("per_page")
		}
		page.PerPage = n
	}

	return filter, page, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type paramError string

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }

func errInvalidParam(name string) error { return paramError(name) }
