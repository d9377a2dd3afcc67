package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TransactionSale     = "sale"
	TransactionPurchase = "purchase"

	CurrencyLRD = "LRD"
	CurrencyUSD = "USD"
)

// ProductSold is one line of a transaction. Price is the per-unit price at
// the time of the transaction and is never recomputed afterwards, so
// historical reports stay stable when product prices change. PriceAtSale
// keeps the product's price pair as a secondary snapshot for older records
// that were written without a line price.
type ProductSold struct {
	Product     primitive.ObjectID `bson:"product" json:"product"`
	Quantity    int64              `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price,omitempty" json:"price,omitempty"`
	PriceAtSale map[string]float64 `bson:"priceAtSale,omitempty" json:"priceAtSale,omitempty"`
}

// UnitPrice resolves the effective per-unit price in the given currency:
// explicit line price, else the priceAtSale snapshot, else zero.
func (ps ProductSold) UnitPrice(currency string) float64 {
	if ps.Price != 0 {
		return ps.Price
	}
	return ps.PriceAtSale[currency]
}

// Transaction records one sale or purchase against a store. A transaction
// contributes to exactly one currency bucket. Once Reversed it is terminal
// and excluded from every forward aggregation.
type Transaction struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Store        string             `bson:"store" json:"store"`
	Type         string             `bson:"type" json:"type"`
	Currency     string             `bson:"currency" json:"currency"`
	ProductsSold []ProductSold      `bson:"productsSold" json:"productsSold"`
	TotalLRD     float64            `bson:"totalLRD,omitempty" json:"totalLRD,omitempty"`
	TotalUSD     float64            `bson:"totalUSD,omitempty" json:"totalUSD,omitempty"`
	Reversed     bool               `bson:"reversed" json:"reversed"`
	ReversedAt   *time.Time         `bson:"reversedAt,omitempty" json:"reversedAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// LineTotal sums quantity * resolved price over all lines in the
// transaction's own currency.
func (t Transaction) LineTotal() float64 {
	var total float64
	for _, ps := range t.ProductsSold {
		total += float64(ps.Quantity) * ps.UnitPrice(t.Currency)
	}
	return total
}

// SaleLine is one requested line of a new transaction. Price is optional;
// when zero the product's current price in the transaction currency is
// snapshotted instead.
type SaleLine struct {
	Product  string  `json:"product" binding:"required"`
	Quantity int64   `json:"quantity" binding:"required"`
	Price    float64 `json:"price,omitempty"`
}

// CreateTransaction is the request shape for recording a sale or purchase.
type CreateTransaction struct {
	Store    string     `json:"store" binding:"required"`
	Type     string     `json:"type" binding:"required"`
	Currency string     `json:"currency" binding:"required"`
	Products []SaleLine `json:"productsSold" binding:"required"`
}

// TopProduct is one row of the top-selling ranking.
type TopProduct struct {
	ProductID    primitive.ObjectID `json:"product"`
	Item         string             `json:"item,omitempty"`
	QuantitySold int64              `json:"quantitySold"`
	RevenueLRD   float64            `json:"revenueLRD"`
	RevenueUSD   float64            `json:"revenueUSD"`
}

// ReportBucket is one calendar period of the sales report. Buckets with no
// transactions are still emitted with zero totals.
type ReportBucket struct {
	BucketStart      time.Time `json:"bucketStart"`
	TotalLRD         float64   `json:"totalLRD"`
	TotalUSD         float64   `json:"totalUSD"`
	TransactionCount int       `json:"transactionCount"`
}

// InventorySummary is the store-level rollup: inventory valuation, sales
// valuation and the count of distinct products.
type InventorySummary struct {
	TotalInventoryLRD float64 `json:"totalInventoryLRD"`
	TotalInventoryUSD float64 `json:"totalInventoryUSD"`
	TotalSalesLRD     float64 `json:"totalSalesLRD"`
	TotalSalesUSD     float64 `json:"totalSalesUSD"`
	TotalItems        int64   `json:"totalItems"`
}
