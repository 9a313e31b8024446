package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techthink/backoffice/internal/ledger"
	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/internal/storage"
	"github.com/techthink/backoffice/pkg/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// stepClock returns a time one second later on each call.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 11, 27, 10, 0, 0, 0, time.UTC)}
}

type fixture struct {
	store    *storage.SQLiteStorage
	svc      *OrderService
	customer *storage.Customer
	laptop   *storage.Product
	keyboard *storage.Product
}

func setup(t *testing.T, policy ledger.Policy) *fixture {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	customer := &storage.Customer{
		Name:  "Budi Santoso",
		Email: "budi@example.com",
		City:  "Jakarta",
	}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	laptop := &storage.Product{
		Name: "Laptop Pro", Slug: "laptop-pro", SKU: "LP-001",
		Price: dec("35000000"), Stock: 100, LowStockThreshold: 5,
		TrackStock: true, IsActive: true,
	}
	require.NoError(t, store.CreateProduct(ctx, laptop))

	keyboard := &storage.Product{
		Name: "Mechanical Keyboard", Slug: "mechanical-keyboard", SKU: "MK-002",
		Price: dec("2800000"), Stock: 100, LowStockThreshold: 5,
		TrackStock: true, IsActive: true,
	}
	require.NoError(t, store.CreateProduct(ctx, keyboard))

	svc := NewOrderService(store, ledger.New(policy, nil), WithClock(newStepClock()))
	return &fixture{store: store, svc: svc, customer: customer, laptop: laptop, keyboard: keyboard}
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) placeOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: f.customer.ID,
		Items: []ItemInput{
			{ProductID: f.laptop.ID, Quantity: 1},
			{ProductID: f.keyboard.ID, Quantity: 2},
		},
		ShippingCost:  dec("50000"),
		PaymentMethod: types.PaymentMethodBankTransfer,
	})
	require.NoError(t, err)
	return o
}

func TestCreateOrder(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	o := f.placeOrder(t)

	assert.True(t, order.ValidNumber(o.Number))
	assert.Equal(t, types.StatusPending, o.Status)
	assert.Equal(t, types.PaymentPending, o.PaymentStatus)
	assert.True(t, o.Subtotal.Equal(dec("40600000")))
	assert.True(t, o.Tax.Equal(dec("4872000")))
	assert.True(t, o.Total.Equal(dec("45522000")))
	assert.Equal(t, "Jakarta", o.Shipping.City)
	assert.Equal(t, "Indonesia", o.Shipping.Country)

	// line items snapshot the product
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Laptop Pro", o.Items[0].ProductName)
	assert.Equal(t, "MK-002", o.Items[1].ProductSKU)

	// stock left the shelf
	assert.Equal(t, 99, f.stock(t, f.laptop.ID))
	assert.Equal(t, 98, f.stock(t, f.keyboard.ID))

	// and it all persisted
	got, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(dec("45522000")))
	assert.Len(t, got.Items, 2)
}

func TestCreateOrder_NoItems(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{CustomerID: f.customer.ID})
	assert.ErrorIs(t, err, types.ErrNoItems)
}

func TestCreateOrder_MissingCustomer(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: 9999,
		Items:      []ItemInput{{ProductID: f.laptop.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	// nothing moved
	assert.Equal(t, 100, f.stock(t, f.laptop.ID))
}

func TestCreateOrder_InvalidQuantityRollsBack(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: f.customer.ID,
		Items: []ItemInput{
			{ProductID: f.laptop.ID, Quantity: 1},
			{ProductID: f.keyboard.ID, Quantity: 0},
		},
	})
	assert.ErrorIs(t, err, types.ErrInvalidQuantity)
	// the first line's stock movement rolled back with the order
	assert.Equal(t, 100, f.stock(t, f.laptop.ID))
	orders, err := f.svc.ListOrders(context.Background(), storage.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_StrictPolicyInsufficientStock(t *testing.T) {
	f := setup(t, ledger.Policy{AllowNegative: false})
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: f.customer.ID,
		Items:      []ItemInput{{ProductID: f.laptop.ID, Quantity: 101}},
	})
	assert.ErrorIs(t, err, types.ErrInsufficientStock)
	assert.Equal(t, 100, f.stock(t, f.laptop.ID))
}

func TestCreateOrder_OversellAllowedByDefault(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID: f.customer.ID,
		Items:      []ItemInput{{ProductID: f.laptop.ID, Quantity: 150}},
	})
	require.NoError(t, err)
	assert.Equal(t, -50, f.stock(t, f.laptop.ID))
}

func TestCreateOrder_NumberCollisionRetries(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()
	taken := f.placeOrder(t)

	clash := order.New(f.customer.ID, types.Address{}, newStepClock())
	_, err := clash.AddItem(f.laptop.ID, "Laptop Pro", "LP-001", dec("35000000"), 1)
	require.NoError(t, err)
	clash.RecomputeTotals()
	clash.Number = taken.Number

	tx, err := f.store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, f.svc.createWithFreshNumber(ctx, tx, clash))
	require.NoError(t, tx.Commit())

	assert.NotEqual(t, taken.Number, clash.Number)
	assert.True(t, order.ValidNumber(clash.Number))
}

func TestAddItem(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	o := f.placeOrder(t)

	got, err := f.svc.AddItem(context.Background(), o.ID, f.keyboard.ID, 1)
	require.NoError(t, err)
	assert.Len(t, got.Items, 3)
	assert.True(t, got.Subtotal.Equal(dec("43400000")))
	assert.Equal(t, 97, f.stock(t, f.keyboard.ID))
}

func TestUpdateItemQuantity(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	o := f.placeOrder(t)
	keyboardItem := o.Items[1]

	got, err := f.svc.UpdateItemQuantity(context.Background(), o.ID, keyboardItem.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Item(keyboardItem.ID).Quantity)
	assert.True(t, got.Item(keyboardItem.ID).Subtotal.Equal(dec("14000000")))

	// went from 2 to 5, so three more left the shelf
	assert.Equal(t, 95, f.stock(t, f.keyboard.ID))

	// lowering it puts stock back
	_, err = f.svc.UpdateItemQuantity(context.Background(), o.ID, keyboardItem.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 99, f.stock(t, f.keyboard.ID))
}

func TestRemoveItem(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	o := f.placeOrder(t)
	keyboardItem := o.Items[1]

	got, err := f.svc.RemoveItem(context.Background(), o.ID, keyboardItem.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.True(t, got.Subtotal.Equal(dec("35000000")))
	assert.Equal(t, 100, f.stock(t, f.keyboard.ID))

	_, err = f.svc.RemoveItem(context.Background(), o.ID, keyboardItem.ID)
	assert.Error(t, err)
}

func TestStockConservation(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()
	o := f.placeOrder(t)

	got, err := f.svc.AddItem(ctx, o.ID, f.laptop.ID, 3)
	require.NoError(t, err)
	added := got.Items[2]

	_, err = f.svc.UpdateItemQuantity(ctx, o.ID, added.ID, 7)
	require.NoError(t, err)
	_, err = f.svc.UpdateItemQuantity(ctx, o.ID, added.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.RemoveItem(ctx, o.ID, added.ID)
	require.NoError(t, err)

	// the add/change/change/remove cycle nets to zero
	assert.Equal(t, 99, f.stock(t, f.laptop.ID))
}

func TestTransitionStatus(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()
	o := f.placeOrder(t)

	got, err := f.svc.TransitionStatus(ctx, o.ID, types.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, got.Status)

	got, err = f.svc.TransitionStatus(ctx, o.ID, types.StatusShipped)
	require.NoError(t, err)
	require.NotNil(t, got.ShippedAt)
	firstShipped := *got.ShippedAt

	got, err = f.svc.TransitionStatus(ctx, o.ID, types.StatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, got.DeliveredAt)
	assert.True(t, got.ShippedAt.Equal(firstShipped))

	// delivered is terminal
	_, err = f.svc.TransitionStatus(ctx, o.ID, types.StatusCancelled)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	// the rejection persisted nothing
	again, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDelivered, again.Status)
}

func TestTransitionStatus_IllegalJump(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	o := f.placeOrder(t)

	_, err := f.svc.TransitionStatus(context.Background(), o.ID, types.StatusDelivered)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestTransitionPaymentStatus(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()
	o := f.placeOrder(t)

	got, err := f.svc.TransitionPaymentStatus(ctx, o.ID, types.PaymentFailed)
	require.NoError(t, err)
	assert.Nil(t, got.PaidAt)

	// failed payments can be retried
	_, err = f.svc.TransitionPaymentStatus(ctx, o.ID, types.PaymentPending)
	require.NoError(t, err)
	got, err = f.svc.TransitionPaymentStatus(ctx, o.ID, types.PaymentPaid)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)

	_, err = f.svc.TransitionPaymentStatus(ctx, o.ID, types.PaymentFailed)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestRecomputeTotals_RepairsDrift(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()
	o := f.placeOrder(t)

	// simulate drifted totals from a legacy write
	o.Tax = dec("1")
	o.Total = dec("2")
	require.NoError(t, f.store.UpdateOrder(ctx, o))

	got, err := f.svc.RecomputeTotals(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Tax.Equal(dec("4872000")))
	assert.True(t, got.Total.Equal(dec("45522000")))
}

func TestRecomputeAllTotals(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()

	o1 := f.placeOrder(t)
	o2 := f.placeOrder(t)
	o1.Total = dec("0")
	require.NoError(t, f.store.UpdateOrder(ctx, o1))
	o2.Subtotal = dec("123")
	require.NoError(t, f.store.UpdateOrder(ctx, o2))

	n, err := f.svc.RecomputeAllTotals(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []int64{o1.ID, o2.ID} {
		got, err := f.svc.GetOrder(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Total.Equal(dec("45522000")))
	}
}

func TestSoftDelete_NoStockRestore(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()
	o := f.placeOrder(t)

	require.NoError(t, f.svc.SoftDeleteOrder(ctx, o.ID))

	// the goods still left the shelf
	assert.Equal(t, 99, f.stock(t, f.laptop.ID))
	assert.Equal(t, 98, f.stock(t, f.keyboard.ID))

	_, err := f.svc.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, f.svc.RestoreOrder(ctx, o.ID))
	got, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 99, f.stock(t, f.laptop.ID))
}

func TestGetOrderByNumber(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()
	o := f.placeOrder(t)

	got, err := f.svc.GetOrderByNumber(ctx, o.Number)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.GetOrderByNumber(ctx, "not-a-number")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLowStockProducts(t *testing.T) {
	f := setup(t, ledger.DefaultPolicy)
	ctx := context.Background()

	f.laptop.Stock = 3
	require.NoError(t, f.store.UpdateProduct(ctx, f.laptop))

	products, err := f.svc.LowStockProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "LP-001", products[0].SKU)
	assert.Equal(t, 7, products[0].RestockSuggestion())
}
