package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/techthink/backoffice/internal/storage"
	"github.com/techthink/backoffice/pkg/types"
)

// Policy controls how stock adjustments behave at the edges.
type Policy struct {
	// AllowNegative permits stock to drop below zero, recording
	// oversells instead of rejecting them.
	AllowNegative bool
}

// DefaultPolicy matches historical behavior: oversells are recorded,
// not rejected.
var DefaultPolicy = Policy{AllowNegative: true}

// AddDelta is the stock adjustment for a line item being added to an
// order: the quantity leaves the shelf.
func AddDelta(quantity int) int {
	return -quantity
}

// ChangeDelta is the stock adjustment for a quantity change. Raising
// the quantity consumes stock, lowering it returns stock.
func ChangeDelta(oldQuantity, newQuantity int) int {
	return oldQuantity - newQuantity
}

// RemoveDelta is the stock adjustment for a line item being removed:
// the quantity goes back on the shelf.
func RemoveDelta(quantity int) int {
	return quantity
}

// Ledger applies stock deltas to products, respecting tracking flags
// and the negative-stock policy.
type Ledger struct {
	policy Policy
	logger *log.Logger
}

// New creates a ledger with the given policy. A nil logger falls back
// to the standard logger.
func New(policy Policy, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Default()
	}
	return &Ledger{policy: policy, logger: logger}
}

// Apply adjusts the product's stock by delta. The adjustment is skipped
// when the product no longer exists (logged, not an error) or when the
// product does not track stock. Callers pass the transaction they are
// working in so the adjustment commits or rolls back with the order.
func (l *Ledger) Apply(ctx context.Context, store storage.Storage, productID int64, delta int) error {
	if delta == 0 {
		return nil
	}

	product, err := store.GetProduct(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		// The product was deleted after the order referenced it.
		// The order keeps its snapshot; there is no stock to move.
		l.logger.Printf("WARN: stock adjustment skipped, product %d not found (delta %+d)", productID, delta)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	if !product.TrackStock {
		return nil
	}

	if !l.policy.AllowNegative && product.Stock+delta < 0 {
		return fmt.Errorf("product %s has %d in stock, need %d: %w",
			product.SKU, product.Stock, -delta, types.ErrInsufficientStock)
	}

	return store.ApplyStockDelta(ctx, productID, delta)
}

// IsLowStock reports whether the product is at or below its restock
// threshold. Products that don't track stock are never low.
func IsLowStock(p *storage.Product) bool {
	return p.TrackStock && p.Stock <= p.LowStockThreshold
}
