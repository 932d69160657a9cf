package catalog

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Stock status values replicated from upstream
const (
	StockStatusInStock    = "instock"
	StockStatusOutOfStock = "outofstock"
	StockStatusBackorder  = "onbackorder"
)

// ProductLookup is the pre-aggregated per-item row that makes list
// filtering a single-table scan. It is recomputed on every sync from the
// meta written in the same call, never from a separate upstream field,
// so it can never diverge from the attributes it summarizes.
type ProductLookup struct {
	ItemID        int64
	SKU           string
	MinPrice      decimal.Decimal
	MaxPrice      decimal.Decimal
	OnSale        bool
	StockQuantity int64
	StockStatus   string
	Rating        decimal.Decimal
	TotalSales    int64
}

// BuildLookup derives the lookup row for an item from its scalar meta
// map. Unparseable or missing numeric values resolve to zero.
func BuildLookup(itemID int64, meta map[string]string) *ProductLookup {
	price := metaDecimal(meta, MetaKeyPrice)
	regular := metaDecimal(meta, MetaKeyRegularPrice)
	sale := metaDecimal(meta, MetaKeySalePrice)

	minPrice := price
	maxPrice := price
	if regular.GreaterThan(maxPrice) {
		maxPrice = regular
	}

	onSale := sale.IsPositive() && sale.LessThan(regular)

	stockStatus := meta[MetaKeyStockStatus]
	if stockStatus == "" {
		stockStatus = StockStatusInStock
	}

	return &ProductLookup{
		ItemID:        itemID,
		SKU:           meta[MetaKeySKU],
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		OnSale:        onSale,
		StockQuantity: metaInt(meta, MetaKeyStock),
		StockStatus:   stockStatus,
		Rating:        metaDecimal(meta, MetaKeyRating),
		TotalSales:    metaInt(meta, MetaKeyTotalSales),
	}
}

func metaDecimal(meta map[string]string, key string) decimal.Decimal {
	d, err := decimal.NewFromString(meta[key])
	if err != nil {
		return decimal.Zero
	}
	return d
}

func metaInt(meta map[string]string, key string) int64 {
	n, err := strconv.ParseInt(meta[key], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
