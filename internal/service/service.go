package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/techthink/backoffice/internal/ledger"
	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/internal/storage"
	"github.com/techthink/backoffice/pkg/types"
)

// numberAttempts bounds how often order creation retries after an
// order number collision before giving up.
const numberAttempts = 3

// defaultWorkers is the fallback pool size for bulk recomputes.
const defaultWorkers = 4

// OrderService orchestrates order mutations. Every mutation runs in a
// single transaction so the order, its items and the matching stock
// movements commit or roll back together.
type OrderService struct {
	store          storage.Storage
	ledger         *ledger.Ledger
	clock          order.Clock
	logger         *log.Logger
	defaultCountry string
}

// Option configures an OrderService.
type Option func(*OrderService)

// WithClock overrides the time source. Tests use this to pin
// timestamps.
func WithClock(clock order.Clock) Option {
	return func(s *OrderService) { s.clock = clock }
}

// WithLogger overrides the service logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *OrderService) { s.logger = logger }
}

// WithDefaultCountry sets the country used when a customer address has
// none.
func WithDefaultCountry(country string) Option {
	return func(s *OrderService) { s.defaultCountry = country }
}

// NewOrderService creates an order service over the given storage and
// stock ledger.
func NewOrderService(store storage.Storage, stockLedger *ledger.Ledger, opts ...Option) *OrderService {
	s := &OrderService{
		store:          store,
		ledger:         stockLedger,
		clock:          order.SystemClock{},
		logger:         log.Default(),
		defaultCountry: "Indonesia",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// inTx runs fn inside a transaction, committing on success and rolling
// back on error.
func (s *OrderService) inTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ItemInput is one requested line on a new order.
type ItemInput struct {
	ProductID int64
	Quantity  int
}

// CreateOrderInput carries everything needed to place an order.
type CreateOrderInput struct {
	CustomerID    int64
	Items         []ItemInput
	ShippingCost  decimal.Decimal
	Discount      decimal.Decimal
	PaymentMethod types.PaymentMethod
	Notes         string
	// Shipping overrides the customer's address when set.
	Shipping *types.Address
}

// CreateOrder places a new order. Product name, SKU and unit price are
// snapshotted onto the line items, stock is decremented per line, and
// totals are computed before the insert. A collision on the generated
// order number is retried with a fresh number.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*order.Order, error) {
	if len(input.Items) == 0 {
		return nil, types.ErrNoItems
	}

	var created *order.Order
	err := s.inTx(ctx, func(tx storage.Tx) error {
		customer, err := tx.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return fmt.Errorf("failed to load customer %d: %w", input.CustomerID, err)
		}

		shipping := customer.ShippingAddress(s.defaultCountry)
		if input.Shipping != nil {
			shipping = *input.Shipping
		}

		o := order.New(input.CustomerID, shipping, s.clock)
		o.PaymentMethod = input.PaymentMethod
		o.Notes = input.Notes
		o.SetShippingCost(input.ShippingCost)
		o.SetDiscount(input.Discount)

		for _, in := range input.Items {
			product, err := tx.GetProduct(ctx, in.ProductID)
			if err != nil {
				return fmt.Errorf("failed to load product %d: %w", in.ProductID, err)
			}
			if _, err := o.AddItem(product.ID, product.Name, product.SKU, product.Price, in.Quantity); err != nil {
				return err
			}
			if err := s.ledger.Apply(ctx, tx, product.ID, ledger.AddDelta(in.Quantity)); err != nil {
				return err
			}
		}
		o.RecomputeTotals()

		if err := s.createWithFreshNumber(ctx, tx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// createWithFreshNumber inserts the order, regenerating the order
// number on a unique-constraint collision. A failed INSERT doesn't
// abort a SQLite transaction, so retrying in place is safe.
func (s *OrderService) createWithFreshNumber(ctx context.Context, tx storage.Tx, o *order.Order) error {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		if attempt > 0 {
			o.Number = order.NewNumber()
		}
		err = tx.CreateOrder(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return err
		}
		s.logger.Printf("WARN: order number %s collided, retrying (%d/%d)", o.Number, attempt+1, numberAttempts)
	}
	return fmt.Errorf("%w after %d attempts", types.ErrDuplicateOrderNumber, numberAttempts)
}

// AddItem appends a line item to an existing order, snapshotting the
// product and adjusting stock. Totals are recomputed.
func (s *OrderService) AddItem(ctx context.Context, orderID, productID int64, quantity int) (*order.Order, error) {
	var result *order.Order
	err := s.inTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to load product %d: %w", productID, err)
		}

		item, err := o.AddItem(product.ID, product.Name, product.SKU, product.Price, quantity)
		if err != nil {
			return err
		}
		if err := s.ledger.Apply(ctx, tx, product.ID, ledger.AddDelta(quantity)); err != nil {
			return err
		}

		item.OrderID = o.ID
		if err := tx.CreateOrderItem(ctx, item); err != nil {
			return err
		}
		o.UpdatedAt = s.clock.Now()
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItemQuantity changes a line item's quantity. Stock moves by the
// difference: the old quantity comes back, the new one goes out.
func (s *OrderService) UpdateItemQuantity(ctx context.Context, orderID, itemID int64, quantity int) (*order.Order, error) {
	var result *order.Order
	err := s.inTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}

		oldQuantity, err := o.UpdateItemQuantity(itemID, quantity)
		if err != nil {
			return err
		}
		item := o.Item(itemID)

		if err := s.ledger.Apply(ctx, tx, item.ProductID, ledger.ChangeDelta(oldQuantity, quantity)); err != nil {
			return err
		}
		if err := tx.UpdateOrderItem(ctx, item); err != nil {
			return err
		}
		o.UpdatedAt = s.clock.Now()
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem deletes a line item and returns its quantity to stock.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID int64) (*order.Order, error) {
	var result *order.Order
	err := s.inTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}

		removed, err := o.RemoveItem(itemID)
		if err != nil {
			return err
		}
		if err := s.ledger.Apply(ctx, tx, removed.ProductID, ledger.RemoveDelta(removed.Quantity)); err != nil {
			return err
		}
		if err := tx.DeleteOrderItem(ctx, removed.ID); err != nil {
			return err
		}
		o.UpdatedAt = s.clock.Now()
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionStatus moves the order to the next fulfillment status,
// stamping shipped/delivered timestamps on first entry.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID int64, next types.Status) (*order.Order, error) {
	var result *order.Order
	err := s.inTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		if err := o.TransitionStatus(next, s.clock); err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionPaymentStatus moves the order's payment state, stamping
// paidAt on the first transition to paid.
func (s *OrderService) TransitionPaymentStatus(ctx context.Context, orderID int64, next types.PaymentStatus) (*order.Order, error) {
	var result *order.Order
	err := s.inTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		if err := o.TransitionPaymentStatus(next, s.clock); err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecomputeTotals reprices one order from its line items and persists
// the result.
func (s *OrderService) RecomputeTotals(ctx context.Context, orderID int64) (*order.Order, error) {
	var result *order.Order
	err := s.inTx(ctx, func(tx storage.Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		o.RecomputeTotals()
		o.UpdatedAt = s.clock.Now()
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecomputeAllTotals reprices every live order, one transaction per
// order, with a bounded worker pool. It returns the number of orders
// recomputed.
func (s *OrderService) RecomputeAllTotals(ctx context.Context, workers int) (int, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	ids, err := s.store.ListOrderIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list orders: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := s.RecomputeTotals(ctx, id); err != nil {
				return fmt.Errorf("order %d: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// SoftDeleteOrder flags the order as deleted. Stock is deliberately
// not restored; a deleted order still represents goods that left the
// shelf.
func (s *OrderService) SoftDeleteOrder(ctx context.Context, orderID int64) error {
	if err := s.store.SoftDeleteOrder(ctx, orderID, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", orderID, err)
	}
	return nil
}

// RestoreOrder clears the deletion flag.
func (s *OrderService) RestoreOrder(ctx context.Context, orderID int64) error {
	if err := s.store.RestoreOrder(ctx, orderID); err != nil {
		return fmt.Errorf("failed to restore order %d: %w", orderID, err)
	}
	return nil
}

// GetOrder loads one order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// GetOrderByNumber loads one order by its public order number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*order.Order, error) {
	if !order.ValidNumber(number) {
		return nil, fmt.Errorf("malformed order number %q: %w", number, storage.ErrNotFound)
	}
	return s.store.GetOrderByNumber(ctx, number)
}

// ListOrders returns orders matching the filter.
func (s *OrderService) ListOrders(ctx context.Context, filter storage.OrderFilter) ([]*order.Order, error) {
	return s.store.ListOrders(ctx, filter)
}

// LowStockProducts returns tracked products at or below their restock
// threshold, lowest stock first.
func (s *OrderService) LowStockProducts(ctx context.Context) ([]*storage.Product, error) {
	return s.store.ListLowStockProducts(ctx)
}
