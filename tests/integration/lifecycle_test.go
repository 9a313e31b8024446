package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/techthink/backoffice/internal/ledger"
	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/internal/service"
	"github.com/techthink/backoffice/internal/storage"
	"github.com/techthink/backoffice/pkg/types"
)

// stepClock returns a time one second later on each call so every
// stamped timestamp in a test is distinct and ordered.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// LifecycleTestSuite drives an order from creation to delivery against
// a real SQLite database.
type LifecycleTestSuite struct {
	suite.Suite
	store    *storage.SQLiteStorage
	svc      *service.OrderService
	customer *storage.Customer
	laptop   *storage.Product
	keyboard *storage.Product
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}

func (s *LifecycleTestSuite) SetupTest() {
	store, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	s.store = store

	ctx := context.Background()
	s.customer = &storage.Customer{
		Name:    "Budi Santoso",
		Email:   "budi@example.com",
		Phone:   "+62-812-0001",
		Address: "Jl. Sudirman No. 1",
		City:    "Jakarta",
	}
	s.Require().NoError(store.CreateCustomer(ctx, s.customer))

	s.laptop = &storage.Product{
		Name: "Laptop Pro", Slug: "laptop-pro", SKU: "LP-001",
		Price: decimal.RequireFromString("35000000"), Stock: 10,
		LowStockThreshold: 5, TrackStock: true, IsActive: true,
	}
	s.Require().NoError(store.CreateProduct(ctx, s.laptop))

	s.keyboard = &storage.Product{
		Name: "Mechanical Keyboard", Slug: "mechanical-keyboard", SKU: "MK-002",
		Price: decimal.RequireFromString("2800000"), Stock: 50,
		LowStockThreshold: 5, TrackStock: true, IsActive: true,
	}
	s.Require().NoError(store.CreateProduct(ctx, s.keyboard))

	clock := &stepClock{t: time.Date(2025, 11, 27, 10, 0, 0, 0, time.UTC)}
	s.svc = service.NewOrderService(store, ledger.New(ledger.DefaultPolicy, nil),
		service.WithClock(clock))
}

func (s *LifecycleTestSuite) TearDownTest() {
	_ = s.store.Close()
}

func (s *LifecycleTestSuite) stock(productID int64) int {
	p, err := s.store.GetProduct(context.Background(), productID)
	s.Require().NoError(err)
	return p.Stock
}

// TestOrderLifecycle walks the full happy path: place an order, adjust
// it, pay for it, ship it and deliver it, checking totals, stock and
// timestamps at each step.
func (s *LifecycleTestSuite) TestOrderLifecycle() {
	ctx := context.Background()

	// Place: 1 laptop at 35,000,000 + 2 keyboards at 2,800,000 each,
	// shipping 50,000.
	o, err := s.svc.CreateOrder(ctx, service.CreateOrderInput{
		CustomerID: s.customer.ID,
		Items: []service.ItemInput{
			{ProductID: s.laptop.ID, Quantity: 1},
			{ProductID: s.keyboard.ID, Quantity: 2},
		},
		ShippingCost:  decimal.RequireFromString("50000"),
		PaymentMethod: types.PaymentMethodBankTransfer,
	})
	s.Require().NoError(err)

	s.True(order.ValidNumber(o.Number))
	s.True(o.Subtotal.Equal(decimal.RequireFromString("40600000")), "subtotal %s", o.Subtotal)
	s.True(o.Tax.Equal(decimal.RequireFromString("4872000")), "tax %s", o.Tax)
	s.True(o.Total.Equal(decimal.RequireFromString("45522000")), "total %s", o.Total)
	s.Equal(9, s.stock(s.laptop.ID))
	s.Equal(48, s.stock(s.keyboard.ID))

	// Customer changes their mind: three keyboards, not two.
	o, err = s.svc.UpdateItemQuantity(ctx, o.ID, o.Items[1].ID, 3)
	s.Require().NoError(err)
	s.True(o.Subtotal.Equal(decimal.RequireFromString("43400000")))
	s.Equal(47, s.stock(s.keyboard.ID))

	// Payment arrives.
	o, err = s.svc.TransitionPaymentStatus(ctx, o.ID, types.PaymentPaid)
	s.Require().NoError(err)
	s.Require().NotNil(o.PaidAt)
	paidAt := *o.PaidAt

	// Fulfillment: processing, then shipped, then delivered.
	o, err = s.svc.TransitionStatus(ctx, o.ID, types.StatusProcessing)
	s.Require().NoError(err)
	o, err = s.svc.TransitionStatus(ctx, o.ID, types.StatusShipped)
	s.Require().NoError(err)
	s.Require().NotNil(o.ShippedAt)
	shippedAt := *o.ShippedAt
	s.True(shippedAt.After(paidAt))

	o, err = s.svc.TransitionStatus(ctx, o.ID, types.StatusDelivered)
	s.Require().NoError(err)
	s.Require().NotNil(o.DeliveredAt)
	s.True(o.DeliveredAt.After(shippedAt))
	// shipping stamp did not move on delivery
	s.True(o.ShippedAt.Equal(shippedAt))

	// Reload from storage: everything persisted.
	final, err := s.svc.GetOrderByNumber(ctx, o.Number)
	s.Require().NoError(err)
	s.Equal(types.StatusDelivered, final.Status)
	s.Equal(types.PaymentPaid, final.PaymentStatus)
	s.Require().NotNil(final.PaidAt)
	s.Require().NotNil(final.ShippedAt)
	s.Require().NotNil(final.DeliveredAt)
	s.True(final.Total.Equal(decimal.RequireFromString("48658000")), "total %s", final.Total)

	// Terminal: no further moves.
	_, err = s.svc.TransitionStatus(ctx, o.ID, types.StatusCancelled)
	s.ErrorIs(err, types.ErrInvalidTransition)
}

// TestCancelledOrderKeepsStockMovements verifies that cancelling and
// soft-deleting an order never silently restores stock.
func (s *LifecycleTestSuite) TestCancelledOrderKeepsStockMovements() {
	ctx := context.Background()

	o, err := s.svc.CreateOrder(ctx, service.CreateOrderInput{
		CustomerID: s.customer.ID,
		Items:      []service.ItemInput{{ProductID: s.laptop.ID, Quantity: 2}},
	})
	s.Require().NoError(err)
	s.Equal(8, s.stock(s.laptop.ID))

	_, err = s.svc.TransitionStatus(ctx, o.ID, types.StatusCancelled)
	s.Require().NoError(err)
	s.Equal(8, s.stock(s.laptop.ID))

	s.Require().NoError(s.svc.SoftDeleteOrder(ctx, o.ID))
	s.Equal(8, s.stock(s.laptop.ID))

	_, err = s.svc.GetOrder(ctx, o.ID)
	s.ErrorIs(err, storage.ErrNotFound)

	// Returning the goods is an explicit item removal before deletion,
	// not a side effect of it.
	s.Require().NoError(s.svc.RestoreOrder(ctx, o.ID))
	restored, err := s.svc.GetOrder(ctx, o.ID)
	s.Require().NoError(err)
	s.Len(restored.Items, 1)
}

// TestOversellThenRestock exercises the default negative-stock policy
// end to end with the low stock report feeding a restock.
func (s *LifecycleTestSuite) TestOversellThenRestock() {
	ctx := context.Background()

	_, err := s.svc.CreateOrder(ctx, service.CreateOrderInput{
		CustomerID: s.customer.ID,
		Items:      []service.ItemInput{{ProductID: s.laptop.ID, Quantity: 13}},
	})
	s.Require().NoError(err)
	s.Equal(-3, s.stock(s.laptop.ID))

	low, err := s.svc.LowStockProducts(ctx)
	s.Require().NoError(err)
	s.Require().Len(low, 1)
	s.Equal(s.laptop.ID, low[0].ID)
	// 2*threshold - stock = 10 - (-3)
	s.Equal(13, low[0].RestockSuggestion())

	s.Require().NoError(s.store.ApplyStockDelta(ctx, s.laptop.ID, low[0].RestockSuggestion()))
	s.Equal(10, s.stock(s.laptop.ID))

	low, err = s.svc.LowStockProducts(ctx)
	s.Require().NoError(err)
	s.Empty(low)
}

