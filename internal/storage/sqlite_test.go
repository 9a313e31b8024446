package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testClock = fixedClock{t: time.Date(2025, 11, 27, 10, 0, 0, 0, time.UTC)}

func seedCustomer(t *testing.T, s *SQLiteStorage) *Customer {
	t.Helper()
	c := &Customer{
		Name:    "Budi Santoso",
		Email:   "budi@example.com",
		Phone:   "+62-812-0001",
		City:    "Jakarta",
		Country: "Indonesia",
	}
	require.NoError(t, s.CreateCustomer(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, s *SQLiteStorage, sku string, price string, stock int) *Product {
	t.Helper()
	p := &Product{
		Name:              "Product " + sku,
		Slug:              "product-" + sku,
		SKU:               sku,
		Price:             dec(price),
		Stock:             stock,
		LowStockThreshold: 5,
		TrackStock:        true,
		IsActive:          true,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func seedOrder(t *testing.T, s *SQLiteStorage, customerID int64) *order.Order {
	t.Helper()
	o := order.New(customerID, types.Address{Name: "Budi Santoso", City: "Jakarta", Country: "Indonesia"}, testClock)
	_, err := o.AddItem(1, "Laptop Pro", "LP-001", dec("35000000"), 1)
	require.NoError(t, err)
	_, err = o.AddItem(2, "Mechanical Keyboard", "MK-002", dec("2800000"), 2)
	require.NoError(t, err)
	o.SetShippingCost(dec("50000"))
	o.RecomputeTotals()
	require.NoError(t, s.CreateOrder(context.Background(), o))
	return o
}

func TestCustomerCRUD(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	assert.NotZero(t, c.ID)

	got, err := storage.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", got.Name)
	assert.Equal(t, "Indonesia", got.Country)

	_, err = storage.GetCustomer(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateCustomer_DuplicateEmail(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	seedCustomer(t, storage)
	dup := &Customer{Name: "Other", Email: "budi@example.com"}
	err := storage.CreateCustomer(ctx, dup)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestProductCRUD(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	p := seedProduct(t, storage, "LP-001", "35000000", 10)

	got, err := storage.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(dec("35000000")))
	assert.Equal(t, 10, got.Stock)
	assert.True(t, got.TrackStock)
	assert.Nil(t, got.ComparePrice)

	bySKU, err := storage.GetProductBySKU(ctx, "LP-001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySKU.ID)

	got.Stock = 20
	cmp := dec("40000000")
	got.ComparePrice = &cmp
	require.NoError(t, storage.UpdateProduct(ctx, got))

	again, err := storage.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, again.Stock)
	require.NotNil(t, again.ComparePrice)
	assert.True(t, again.ComparePrice.Equal(cmp))
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	seedProduct(t, storage, "LP-001", "35000000", 10)
	p := &Product{Name: "Clone", Slug: "clone", SKU: "LP-001", Price: dec("1")}
	err := storage.CreateProduct(ctx, p)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestApplyStockDelta(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	p := seedProduct(t, storage, "LP-001", "35000000", 10)

	require.NoError(t, storage.ApplyStockDelta(ctx, p.ID, -3))
	require.NoError(t, storage.ApplyStockDelta(ctx, p.ID, 1))

	got, err := storage.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Stock)

	// Stock may go negative; the storage layer does not police policy.
	require.NoError(t, storage.ApplyStockDelta(ctx, p.ID, -20))
	got, err = storage.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, -12, got.Stock)

	err = storage.ApplyStockDelta(ctx, 9999, -1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLowStockProducts(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	low := seedProduct(t, storage, "LOW-1", "1000", 2)
	seedProduct(t, storage, "OK-1", "1000", 50)
	untracked := seedProduct(t, storage, "UNT-1", "1000", 0)
	untracked.TrackStock = false
	require.NoError(t, storage.UpdateProduct(ctx, untracked))

	products, err := storage.ListLowStockProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, low.ID, products[0].ID)
	assert.Equal(t, 8, products[0].RestockSuggestion())
}

func TestCreateOrder_WithItems(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	o := seedOrder(t, storage, c.ID)
	assert.NotZero(t, o.ID)

	got, err := storage.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, got.Number)
	assert.Equal(t, types.StatusPending, got.Status)
	assert.True(t, got.Subtotal.Equal(dec("40600000")))
	assert.True(t, got.Tax.Equal(dec("4872000")))
	assert.True(t, got.Total.Equal(dec("45522000")))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Laptop Pro", got.Items[0].ProductName)
	assert.True(t, got.Items[1].Subtotal.Equal(dec("5600000")))

	byNumber, err := storage.GetOrderByNumber(ctx, o.Number)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNumber.ID)
	require.Len(t, byNumber.Items, 2)
}

func TestCreateOrder_DuplicateNumber(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	o := seedOrder(t, storage, c.ID)

	clone := order.New(c.ID, types.Address{}, testClock)
	clone.Number = o.Number
	err := storage.CreateOrder(ctx, clone)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateOrder_Header(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	o := seedOrder(t, storage, c.ID)

	require.NoError(t, o.TransitionStatus(types.StatusProcessing, testClock))
	o.PaymentMethod = types.PaymentMethodBankTransfer
	o.Notes = "deliver after 5pm"
	require.NoError(t, storage.UpdateOrder(ctx, o))

	got, err := storage.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, got.Status)
	assert.Equal(t, types.PaymentMethodBankTransfer, got.PaymentMethod)
	assert.Equal(t, "deliver after 5pm", got.Notes)
	// UpdateOrder only touches the header row
	assert.Len(t, got.Items, 2)
}

func TestUpdateOrder_PersistsTimestamps(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	o := seedOrder(t, storage, c.ID)

	require.NoError(t, o.TransitionStatus(types.StatusProcessing, testClock))
	require.NoError(t, o.TransitionStatus(types.StatusShipped, testClock))
	require.NoError(t, o.TransitionPaymentStatus(types.PaymentPaid, testClock))
	require.NoError(t, storage.UpdateOrder(ctx, o))

	got, err := storage.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ShippedAt)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.ShippedAt.Equal(testClock.Now()))
	assert.True(t, got.PaidAt.Equal(testClock.Now()))
	assert.Nil(t, got.DeliveredAt)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	o := seedOrder(t, storage, c.ID)

	require.NoError(t, storage.SoftDeleteOrder(ctx, o.ID, testClock.Now()))

	_, err := storage.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// double delete is a not-found
	err = storage.SoftDeleteOrder(ctx, o.ID, testClock.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	// still visible when asked for
	orders, err := storage.ListOrders(ctx, OrderFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].DeletedAt)

	require.NoError(t, storage.RestoreOrder(ctx, o.ID))

	got, err := storage.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeletedAt)
	// items survived the round trip untouched
	assert.Len(t, got.Items, 2)

	err = storage.RestoreOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders_Filters(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	other := &Customer{Name: "Siti", Email: "siti@example.com"}
	require.NoError(t, storage.CreateCustomer(ctx, other))

	o1 := seedOrder(t, storage, c.ID)
	o2 := seedOrder(t, storage, other.ID)
	require.NoError(t, o2.TransitionStatus(types.StatusProcessing, testClock))
	require.NoError(t, storage.UpdateOrder(ctx, o2))

	all, err := storage.ListOrders(ctx, OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := storage.ListOrders(ctx, OrderFilter{Status: types.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, o1.ID, pending[0].ID)

	byCustomer, err := storage.ListOrders(ctx, OrderFilter{CustomerID: other.ID})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, o2.ID, byCustomer[0].ID)

	limited, err := storage.ListOrders(ctx, OrderFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := storage.ListOrders(ctx, OrderFilter{Status: types.StatusDelivered})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListOrderIDs(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	o1 := seedOrder(t, storage, c.ID)
	o2 := seedOrder(t, storage, c.ID)
	require.NoError(t, storage.SoftDeleteOrder(ctx, o2.ID, testClock.Now()))

	ids, err := storage.ListOrderIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{o1.ID}, ids)
}

func TestOrderItems_UpdateAndDelete(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	o := seedOrder(t, storage, c.ID)

	item := o.Items[1]
	item.Quantity = 5
	item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(5))
	require.NoError(t, storage.UpdateOrderItem(ctx, item))

	got, err := storage.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Items[1].Quantity)
	assert.True(t, got.Items[1].Subtotal.Equal(dec("14000000")))

	require.NoError(t, storage.DeleteOrderItem(ctx, item.ID))
	got, err = storage.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	err = storage.DeleteOrderItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionCommitAndRollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, storage)
	p := seedProduct(t, storage, "LP-001", "35000000", 10)

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ApplyStockDelta(ctx, p.ID, -4))
	require.NoError(t, tx.Commit())

	got, err := storage.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	tx, err = storage.BeginTx(ctx)
	require.NoError(t, err)
	o := order.New(c.ID, types.Address{}, testClock)
	_, err = o.AddItem(p.ID, p.Name, p.SKU, p.Price, 1)
	require.NoError(t, err)
	o.RecomputeTotals()
	require.NoError(t, tx.CreateOrder(ctx, o))
	require.NoError(t, tx.ApplyStockDelta(ctx, p.ID, -1))
	require.NoError(t, tx.Rollback())

	_, err = storage.GetOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err = storage.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)
}

func TestNestedTransactionRejected(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
}
