package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/pkg/types"
)

// Storage defines the repository boundary for the order core: orders
// with their nested items, the product catalog rows the inventory
// ledger mutates, and read-only customer lookups for address snapshots.
type Storage interface {
	// Customer operations (read-mostly: the core only snapshots addresses)
	CreateCustomer(ctx context.Context, customer *Customer) error
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	// Product operations
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, productID int64) (*Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	// ApplyStockDelta adds a signed quantity to a product's stock counter
	// as a single relative UPDATE, so concurrent deltas to the same
	// product serialize at the row instead of losing updates.
	ApplyStockDelta(ctx context.Context, productID int64, delta int) error
	ListLowStockProducts(ctx context.Context) ([]*Product, error)

	// Order operations. CreateOrder persists the header and all nested
	// items; GetOrder loads the full aggregate. Soft-deleted orders are
	// invisible to Get/List unless the filter asks for them.
	CreateOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, orderID int64) (*order.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*order.Order, error)
	UpdateOrder(ctx context.Context, o *order.Order) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]*order.Order, error)
	ListOrderIDs(ctx context.Context) ([]int64, error)
	SoftDeleteOrder(ctx context.Context, orderID int64, at time.Time) error
	RestoreOrder(ctx context.Context, orderID int64) error

	// Order item operations
	CreateOrderItem(ctx context.Context, item *order.Item) error
	UpdateOrderItem(ctx context.Context, item *order.Item) error
	DeleteOrderItem(ctx context.Context, itemID int64) error

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Customer is the customer record consumed read-only by the order core.
type Customer struct {
	ID         int64
	Name       string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ShippingAddress builds the order's address snapshot from the customer
// record as it exists right now. The original data defaults the country
// to Indonesia when the record has none.
func (c *Customer) ShippingAddress(defaultCountry string) types.Address {
	country := c.Country
	if country == "" {
		country = defaultCountry
	}
	return types.Address{
		Name:       c.Name,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		State:      c.State,
		PostalCode: c.PostalCode,
		Country:    country,
	}
}

// Product is an inventory-bearing catalog row. The order core reads it
// for snapshots and mutates only the stock counter, through
// ApplyStockDelta.
type Product struct {
	ID                int64
	Name              string
	Slug              string
	SKU               string
	Description       string
	Price             decimal.Decimal
	ComparePrice      *decimal.Decimal
	Cost              *decimal.Decimal
	Stock             int
	LowStockThreshold int
	TrackStock        bool
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// RestockSuggestion is the quantity to reorder to reach twice the
// low-stock threshold, floored at zero.
func (p *Product) RestockSuggestion() int {
	n := p.LowStockThreshold*2 - p.Stock
	if n < 0 {
		return 0
	}
	return n
}

// OrderFilter narrows ListOrders results. Zero values mean "no filter".
type OrderFilter struct {
	Status         types.Status
	PaymentStatus  types.PaymentStatus
	CustomerID     int64
	CreatedFrom    time.Time
	CreatedTo      time.Time
	IncludeDeleted bool
	Limit          int
}
