// Package ledger owns the write side of the transaction ledger: recording
// sale/purchase transactions and reversing them. All stock mutations go
// through conditional updates so concurrent sales cannot overdraw a product.
package ledger

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/errs"
	"backend/models"
)

// ProductStore is the product access the lifecycle manager needs.
// ApplyStockDelta must be atomic at the storage layer: a negative delta is
// rejected with errs.ErrInsufficientStock instead of driving pieces below
// zero, and the derived totals are recomputed in the same write.
type ProductStore interface {
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ApplyStockDelta(ctx context.Context, id primitive.ObjectID, delta int64) (*models.Product, error)
}

// TransactionStore persists transactions. MarkReversed must be a
// conditional "set reversed if not already reversed" update so a transaction
// cannot be reversed twice even under concurrent requests.
type TransactionStore interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	MarkReversed(ctx context.Context, id primitive.ObjectID, at time.Time) error
	UnmarkReversed(ctx context.Context, id primitive.ObjectID) error
}

// Manager is the transaction lifecycle manager.
type Manager struct {
	products     ProductStore
	transactions TransactionStore
	now          func() time.Time
}

func NewManager(products ProductStore, transactions TransactionStore) *Manager {
	return &Manager{products: products, transactions: transactions, now: time.Now}
}

type stockDelta struct {
	product primitive.ObjectID
	delta   int64
}

// Create records a sale or purchase. Every line's product must belong to
// the request's store. Sales decrement stock and are rejected on
// insufficient stock (no backorders); purchases increment. The per-line
// price is snapshotted now and never recomputed. Line deltas are applied as
// a unit: on any failure the already applied deltas are compensated and the
// transaction is not persisted.
func (m *Manager) Create(ctx context.Context, req models.CreateTransaction) (*models.Transaction, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	lines := make([]models.ProductSold, 0, len(req.Products))
	deltas := make([]stockDelta, 0, len(req.Products))
	for _, line := range req.Products {
		id, err := primitive.ObjectIDFromHex(line.Product)
		if err != nil {
			return nil, errs.Validationf("invalid product id %q", line.Product)
		}
		product, err := m.products.ByID(ctx, id)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, errs.NotFoundf("product %s", line.Product)
			}
			return nil, err
		}
		if product.Store != req.Store {
			return nil, errs.Validationf("product %s does not belong to store %s", line.Product, req.Store)
		}

		price := line.Price
		if price == 0 {
			if req.Currency == models.CurrencyUSD {
				price = product.PriceUSD
			} else {
				price = product.PriceLRD
			}
		}
		lines = append(lines, models.ProductSold{
			Product:  id,
			Quantity: line.Quantity,
			Price:    price,
			PriceAtSale: map[string]float64{
				models.CurrencyLRD: product.PriceLRD,
				models.CurrencyUSD: product.PriceUSD,
			},
		})

		delta := line.Quantity
		if req.Type == models.TransactionSale {
			delta = -delta
		}
		deltas = append(deltas, stockDelta{product: id, delta: delta})
	}

	if err := m.applyDeltas(ctx, deltas); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		Store:        req.Store,
		Type:         req.Type,
		Currency:     req.Currency,
		ProductsSold: lines,
		CreatedAt:    m.now(),
	}
	if req.Currency == models.CurrencyUSD {
		tx.TotalUSD = tx.LineTotal()
	} else {
		tx.TotalLRD = tx.LineTotal()
	}

	if err := m.transactions.Insert(ctx, tx); err != nil {
		m.compensate(ctx, deltas, len(deltas))
		return nil, err
	}
	return tx, nil
}

// Reverse undoes a transaction's stock effects exactly once and flags it so
// aggregation excludes it. The reversed flag is claimed first through a
// conditional update, which is what makes concurrent double reversal
// impossible; on a failed inverse delta the claim is released again.
func (m *Manager) Reverse(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	reversedAt := m.now()
	if err := m.transactions.MarkReversed(ctx, id, reversedAt); err != nil {
		return nil, err
	}

	tx, err := m.transactions.ByID(ctx, id)
	if err != nil {
		// The claim is held but no deltas were applied yet; release it so
		// a retry can succeed.
		if unmarkErr := m.transactions.UnmarkReversed(ctx, id); unmarkErr != nil {
			log.Printf("ledger: failed to release reversal claim on %s: %v", id.Hex(), unmarkErr)
		}
		return nil, err
	}

	deltas := make([]stockDelta, 0, len(tx.ProductsSold))
	for _, line := range tx.ProductsSold {
		delta := line.Quantity
		if tx.Type == models.TransactionPurchase {
			delta = -delta
		}
		deltas = append(deltas, stockDelta{product: line.Product, delta: delta})
	}

	if err := m.applyReversalDeltas(ctx, deltas); err != nil {
		if unmarkErr := m.transactions.UnmarkReversed(ctx, id); unmarkErr != nil {
			log.Printf("ledger: failed to release reversal claim on %s: %v", id.Hex(), unmarkErr)
		}
		return nil, err
	}

	tx.Reversed = true
	tx.ReversedAt = &reversedAt
	return tx, nil
}

// applyDeltas applies stock deltas one conditional update at a time,
// compensating the applied prefix when one fails.
func (m *Manager) applyDeltas(ctx context.Context, deltas []stockDelta) error {
	for i, d := range deltas {
		if _, err := m.products.ApplyStockDelta(ctx, d.product, d.delta); err != nil {
			m.compensate(ctx, deltas, i)
			return err
		}
	}
	return nil
}

// applyReversalDeltas is applyDeltas for reversals: a line whose product has
// been deleted since the transaction contributes nothing instead of failing.
func (m *Manager) applyReversalDeltas(ctx context.Context, deltas []stockDelta) error {
	applied := make([]stockDelta, 0, len(deltas))
	for _, d := range deltas {
		_, err := m.products.ApplyStockDelta(ctx, d.product, d.delta)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			m.compensate(ctx, applied, len(applied))
			return err
		}
		applied = append(applied, d)
	}
	return nil
}

// compensate re-applies the first n deltas inverted. Compensation failures
// are logged, not returned: the caller is already unwinding an error.
func (m *Manager) compensate(ctx context.Context, deltas []stockDelta, n int) {
	for i := n - 1; i >= 0; i-- {
		if _, err := m.products.ApplyStockDelta(ctx, deltas[i].product, -deltas[i].delta); err != nil {
			log.Printf("ledger: failed to compensate stock delta on %s: %v", deltas[i].product.Hex(), err)
		}
	}
}

func validateCreate(req models.CreateTransaction) error {
	if req.Store == "" {
		return errs.Validationf("store is required")
	}
	if req.Type != models.TransactionSale && req.Type != models.TransactionPurchase {
		return errs.Validationf("type must be %q or %q", models.TransactionSale, models.TransactionPurchase)
	}
	if req.Currency != models.CurrencyLRD && req.Currency != models.CurrencyUSD {
		return errs.Validationf("currency must be %q or %q", models.CurrencyLRD, models.CurrencyUSD)
	}
	if len(req.Products) == 0 {
		return errs.Validationf("productsSold must not be empty")
	}
	for _, line := range req.Products {
		if line.Quantity <= 0 {
			return errs.Validationf("quantity must be positive")
		}
	}
	return nil
}
