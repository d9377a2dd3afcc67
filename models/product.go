package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is one stocked item owned by a store. TotalLRD/TotalUSD are
// denormalized: always pieces * price at the moment of the last write,
// never recomputed on read.
type Product struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Store     string             `bson:"store" json:"store" binding:"required"`
	Item      string             `bson:"item" json:"item" binding:"required"`
	Pieces    int64              `bson:"pieces" json:"pieces"`
	PriceLRD  float64            `bson:"priceLRD,omitempty" json:"priceLRD,omitempty"`
	PriceUSD  float64            `bson:"priceUSD,omitempty" json:"priceUSD,omitempty"`
	TotalLRD  float64            `bson:"totalLRD,omitempty" json:"totalLRD,omitempty"`
	TotalUSD  float64            `bson:"totalUSD,omitempty" json:"totalUSD,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// RecomputeTotals refreshes the derived totals from the current
// pieces/price pairs.
func (p *Product) RecomputeTotals() {
	p.TotalLRD = float64(p.Pieces) * p.PriceLRD
	p.TotalUSD = float64(p.Pieces) * p.PriceUSD
}

// UpdateProduct enumerates the mutable fields of a product. Pointer fields
// distinguish "not sent" from zero; store is immutable and absent on purpose.
type UpdateProduct struct {
	Item     *string  `json:"item,omitempty"`
	Pieces   *int64   `json:"pieces,omitempty"`
	PriceLRD *float64 `json:"priceLRD,omitempty"`
	PriceUSD *float64 `json:"priceUSD,omitempty"`
	Image    *string  `json:"image,omitempty"`
}

// Empty reports whether the update carries no field at all.
func (u UpdateProduct) Empty() bool {
	return u.Item == nil && u.Pieces == nil && u.PriceLRD == nil && u.PriceUSD == nil && u.Image == nil
}

// ProductSales are the forward sales aggregates for one product.
type ProductSales struct {
	TotalSalesLRD     float64 `json:"totalSalesLRD"`
	TotalSalesUSD     float64 `json:"totalSalesUSD"`
	TotalQuantitySold int64   `json:"totalQuantitySold"`
}

// ProductWithSales is the list/detail row shape: the product plus its
// sales-to-date.
type ProductWithSales struct {
	Product
	ProductSales
}

// Pagination mirrors the list response envelope of the API.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	TotalItems  int64 `json:"totalItems"`
}

// ListProductsQuery carries the recognized listing parameters. LowStock
// filters to pieces <= LowStockThreshold and widens the page so every match
// is shown.
type ListProductsQuery struct {
	Store    string
	Page     int
	Limit    int
	LowStock bool
	ItemName string
}

// LowStockThreshold is the pieces count at or below which a product counts
// as low on stock.
const LowStockThreshold = 7
