package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techthink/backoffice/internal/pricing"
	"github.com/techthink/backoffice/pkg/types"
)

// Item is one line of an order. Product name, SKU and unit price are
// snapshots taken when the item is added, so later catalog edits never
// alter historical orders. The product reference is a weak id lookup.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	ProductSKU  string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order is the aggregate root: the order header plus its owned line
// items, treated as one consistency boundary. All mutations that affect
// money route through RecomputeTotals so the derived fields can never
// drift from the item collection.
type Order struct {
	ID            int64
	Number        string
	CustomerID    int64
	Status        types.Status
	PaymentStatus types.PaymentStatus
	PaymentMethod types.PaymentMethod

	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal

	Shipping   types.Address
	Notes      string
	AdminNotes string

	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time

	Items []*Item

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// New creates a pending order with a freshly generated order number and
// the shipping address snapshot. The number is immutable after creation.
func New(customerID int64, shipping types.Address, clock Clock) *Order {
	now := clock.Now()
	return &Order{
		Number:        NewNumber(),
		CustomerID:    customerID,
		Status:        types.StatusPending,
		PaymentStatus: types.PaymentPending,
		Subtotal:      decimal.Zero,
		Tax:           decimal.Zero,
		ShippingCost:  decimal.Zero,
		Discount:      decimal.Zero,
		Total:         decimal.Zero,
		Shipping:      shipping,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AddItem appends a line item with snapshot fields and recomputes totals.
func (o *Order) AddItem(productID int64, name, sku string, unitPrice decimal.Decimal, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", types.ErrInvalidQuantity, quantity)
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: got %s", types.ErrInvalidPrice, unitPrice)
	}

	item := &Item{
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: name,
		ProductSKU:  sku,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Subtotal:    lineSubtotal(unitPrice, quantity),
	}
	o.Items = append(o.Items, item)
	o.RecomputeTotals()
	return item, nil
}

// UpdateItemQuantity changes an item's quantity, returning the previous
// quantity so the caller can derive the stock delta from the persisted
// before/after pair.
func (o *Order) UpdateItemQuantity(itemID int64, quantity int) (oldQuantity int, err error) {
	if quantity < 1 {
		return 0, fmt.Errorf("%w: got %d", types.ErrInvalidQuantity, quantity)
	}
	item := o.Item(itemID)
	if item == nil {
		return 0, fmt.Errorf("order %s has no item %d", o.Number, itemID)
	}

	oldQuantity = item.Quantity
	item.Quantity = quantity
	item.Subtotal = lineSubtotal(item.UnitPrice, quantity)
	o.RecomputeTotals()
	return oldQuantity, nil
}

// RemoveItem detaches a line item and recomputes totals. The removed
// item is returned so the caller can restore its stock reservation.
func (o *Order) RemoveItem(itemID int64) (*Item, error) {
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.RecomputeTotals()
			return item, nil
		}
	}
	return nil, fmt.Errorf("order %s has no item %d", o.Number, itemID)
}

// Item returns the line item with the given id, or nil.
func (o *Order) Item(itemID int64) *Item {
	for _, item := range o.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// ItemsCount is the total quantity across all line items.
func (o *Order) ItemsCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// SetShippingCost updates the shipping cost and recomputes totals.
func (o *Order) SetShippingCost(cost decimal.Decimal) {
	o.ShippingCost = cost
	o.RecomputeTotals()
}

// SetDiscount updates the discount and recomputes totals.
func (o *Order) SetDiscount(discount decimal.Decimal) {
	o.Discount = discount
	o.RecomputeTotals()
}

// RecomputeTotals re-derives subtotal, tax and total from the current
// item collection, shipping cost and discount. Tax is always recomputed
// from the subtotal; a manually overridden tax value does not survive.
// This is the single entry point for totals: callers never write the
// derived fields directly.
func (o *Order) RecomputeTotals() {
	lines := make([]pricing.Line, len(o.Items))
	for i, item := range o.Items {
		lines[i] = pricing.Line{Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	totals := pricing.Calculate(lines, o.ShippingCost, o.Discount)
	o.Subtotal = totals.Subtotal
	o.Tax = totals.Tax
	o.Total = totals.Total
}

func lineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
