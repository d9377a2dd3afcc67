// Package inventory computes the derived sales and inventory aggregates:
// per-product sales-to-date, store-level valuation, top-product rankings and
// period-bucketed sales reports. It only ever reads the store; the ledger
// package is the sole writer of stock-affecting fields.
package inventory

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/errs"
	"backend/models"
)

// ProductSource reads products for aggregation.
type ProductSource interface {
	ByStore(ctx context.Context, store string) ([]models.Product, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

// TransactionSource reads non-reversed sale transactions. A zero from/to
// means the range is unbounded on that side.
type TransactionSource interface {
	SalesByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Transaction, error)
	SalesByStore(ctx context.Context, store string, from, to time.Time) ([]models.Transaction, error)
}

// Engine is the aggregation engine. Location is the store's reporting
// timezone; bucket boundaries are computed in it.
type Engine struct {
	products     ProductSource
	transactions TransactionSource
	location     *time.Location
}

func NewEngine(products ProductSource, transactions TransactionSource, location *time.Location) *Engine {
	if location == nil {
		location = time.UTC
	}
	return &Engine{products: products, transactions: transactions, location: location}
}

// ProductSalesTotals sums quantity * price over every non-reversed sale
// referencing the product, bucketed by the transaction's currency. An
// unknown product yields all-zero, not an error.
func (e *Engine) ProductSalesTotals(ctx context.Context, productID primitive.ObjectID) (models.ProductSales, error) {
	var totals models.ProductSales

	transactions, err := e.transactions.SalesByProduct(ctx, productID)
	if err != nil {
		return totals, err
	}

	for _, tx := range transactions {
		if tx.Reversed {
			continue
		}
		for _, line := range tx.ProductsSold {
			if line.Product != productID {
				continue
			}
			totals.TotalQuantitySold += line.Quantity
			amount := float64(line.Quantity) * line.UnitPrice(tx.Currency)
			if tx.Currency == models.CurrencyUSD {
				totals.TotalSalesUSD += amount
			} else {
				totals.TotalSalesLRD += amount
			}
		}
	}
	return totals, nil
}

// StoreInventorySummary rolls up a store: inventory valuation from the
// stored derived totals (recomputed from pieces * price when absent), sales
// valuation from all non-reversed sales, and the count of distinct products.
func (e *Engine) StoreInventorySummary(ctx context.Context, store string) (models.InventorySummary, error) {
	var summary models.InventorySummary
	if store == "" {
		return summary, errs.Validationf("store parameter is required")
	}

	products, err := e.products.ByStore(ctx, store)
	if err != nil {
		return summary, err
	}

	summary.TotalItems = int64(len(products))
	for _, p := range products {
		if p.TotalLRD != 0 {
			summary.TotalInventoryLRD += p.TotalLRD
		} else if p.Pieces != 0 && p.PriceLRD != 0 {
			summary.TotalInventoryLRD += float64(p.Pieces) * p.PriceLRD
		}
		if p.TotalUSD != 0 {
			summary.TotalInventoryUSD += p.TotalUSD
		} else if p.Pieces != 0 && p.PriceUSD != 0 {
			summary.TotalInventoryUSD += float64(p.Pieces) * p.PriceUSD
		}
	}

	transactions, err := e.transactions.SalesByStore(ctx, store, time.Time{}, time.Time{})
	if err != nil {
		return summary, err
	}

	for _, tx := range transactions {
		if tx.Reversed {
			continue
		}
		// Prefer the stored transaction total; derive from the lines
		// only when it is absent or zero.
		switch {
		case tx.Currency == models.CurrencyLRD && tx.TotalLRD != 0:
			summary.TotalSalesLRD += tx.TotalLRD
		case tx.Currency == models.CurrencyUSD && tx.TotalUSD != 0:
			summary.TotalSalesUSD += tx.TotalUSD
		case tx.Currency == models.CurrencyUSD:
			summary.TotalSalesUSD += tx.LineTotal()
		default:
			summary.TotalSalesLRD += tx.LineTotal()
		}
	}
	return summary, nil
}

// TopProducts ranks a store's products by quantity sold over the optional
// period, ties broken by revenue descending and then by product id so the
// order is deterministic.
func (e *Engine) TopProducts(ctx context.Context, store string, limit int, from, to time.Time) ([]models.TopProduct, error) {
	if store == "" {
		return nil, errs.Validationf("store parameter is required")
	}
	if limit <= 0 {
		limit = 10
	}

	transactions, err := e.transactions.SalesByStore(ctx, store, from, to)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[primitive.ObjectID]*models.TopProduct)
	for _, tx := range transactions {
		if tx.Reversed {
			continue
		}
		for _, line := range tx.ProductsSold {
			row, ok := byProduct[line.Product]
			if !ok {
				row = &models.TopProduct{ProductID: line.Product}
				byProduct[line.Product] = row
			}
			row.QuantitySold += line.Quantity
			amount := float64(line.Quantity) * line.UnitPrice(tx.Currency)
			if tx.Currency == models.CurrencyUSD {
				row.RevenueUSD += amount
			} else {
				row.RevenueLRD += amount
			}
		}
	}

	ranking := make([]models.TopProduct, 0, len(byProduct))
	for _, row := range byProduct {
		ranking = append(ranking, *row)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].QuantitySold != ranking[j].QuantitySold {
			return ranking[i].QuantitySold > ranking[j].QuantitySold
		}
		ri := ranking[i].RevenueLRD + ranking[i].RevenueUSD
		rj := ranking[j].RevenueLRD + ranking[j].RevenueUSD
		if ri != rj {
			return ri > rj
		}
		return ranking[i].ProductID.Hex() < ranking[j].ProductID.Hex()
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}

	ids := make([]primitive.ObjectID, 0, len(ranking))
	for _, row := range ranking {
		ids = append(ids, row.ProductID)
	}
	// A deleted product stays in the ranking without an item name.
	names, err := e.products.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range ranking {
		if p, ok := names[ranking[i].ProductID]; ok {
			ranking[i].Item = p.Item
		}
	}
	return ranking, nil
}
