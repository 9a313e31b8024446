package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// isUniqueViolation recognizes unique-constraint failures from both the
// cgo and pure Go drivers.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func scanDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func nullDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func timeArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// Customer operations

func (s *SQLiteStorage) createCustomerWithQuerier(ctx context.Context, q querier, customer *Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, address, city, state, postal_code, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		customer.Name, customer.Email, customer.Phone, customer.Address,
		customer.City, customer.State, customer.PostalCode, customer.Country,
		now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("customer email %s: %w", customer.Email, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	customer.ID = id
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateCustomer(ctx context.Context, customer *Customer) error {
	return s.createCustomerWithQuerier(ctx, s.querier(), customer)
}

func (s *SQLiteStorage) getCustomerWithQuerier(ctx context.Context, q querier, customerID int64) (*Customer, error) {
	query := `
		SELECT id, name, email, phone, address, city, state, postal_code, country, created_at, updated_at
		FROM customers
		WHERE id = ?
	`
	var c Customer
	var phone, address, city, state, postalCode, country sql.NullString
	err := q.QueryRowContext(ctx, query, customerID).Scan(
		&c.ID, &c.Name, &c.Email, &phone, &address, &city, &state,
		&postalCode, &country, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Address = address.String
	c.City = city.String
	c.State = state.String
	c.PostalCode = postalCode.String
	c.Country = country.String
	return &c, nil
}

func (s *SQLiteStorage) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	return s.getCustomerWithQuerier(ctx, s.querier(), customerID)
}

// Product operations

func (s *SQLiteStorage) createProductWithQuerier(ctx context.Context, q querier, product *Product) error {
	query := `
		INSERT INTO products (name, slug, sku, description, price, compare_price, cost,
		                      stock, low_stock_threshold, track_stock, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		product.Name, product.Slug, product.SKU, product.Description,
		product.Price.String(), decimalArg(product.ComparePrice), decimalArg(product.Cost),
		product.Stock, product.LowStockThreshold, product.TrackStock, product.IsActive,
		now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("product sku %s: %w", product.SKU, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProduct(ctx context.Context, product *Product) error {
	return s.createProductWithQuerier(ctx, s.querier(), product)
}

const productColumns = `id, name, slug, sku, description, price, compare_price, cost,
       stock, low_stock_threshold, track_stock, is_active, created_at, updated_at, deleted_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*Product, error) {
	var p Product
	var description sql.NullString
	var price string
	var comparePrice, cost sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.SKU, &description, &price, &comparePrice, &cost,
		&p.Stock, &p.LowStockThreshold, &p.TrackStock, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	if p.Price, err = scanDecimal(price); err != nil {
		return nil, fmt.Errorf("invalid price for product %d: %w", p.ID, err)
	}
	if p.ComparePrice, err = nullDecimal(comparePrice); err != nil {
		return nil, fmt.Errorf("invalid compare_price for product %d: %w", p.ID, err)
	}
	if p.Cost, err = nullDecimal(cost); err != nil {
		return nil, fmt.Errorf("invalid cost for product %d: %w", p.ID, err)
	}
	p.DeletedAt = nullTime(deletedAt)
	return &p, nil
}

func (s *SQLiteStorage) getProductWithQuerier(ctx context.Context, q querier, productID int64) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ? AND deleted_at IS NULL`
	p, err := scanProduct(q.QueryRowContext(ctx, query, productID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStorage) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	return s.getProductWithQuerier(ctx, s.querier(), productID)
}

func (s *SQLiteStorage) getProductBySKUWithQuerier(ctx context.Context, q querier, sku string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = ? AND deleted_at IS NULL`
	p, err := scanProduct(q.QueryRowContext(ctx, query, sku))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStorage) GetProductBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.getProductBySKUWithQuerier(ctx, s.querier(), sku)
}

func (s *SQLiteStorage) updateProductWithQuerier(ctx context.Context, q querier, product *Product) error {
	query := `
		UPDATE products
		SET name = ?, slug = ?, sku = ?, description = ?, price = ?, compare_price = ?, cost = ?,
		    stock = ?, low_stock_threshold = ?, track_stock = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		product.Name, product.Slug, product.SKU, product.Description,
		product.Price.String(), decimalArg(product.ComparePrice), decimalArg(product.Cost),
		product.Stock, product.LowStockThreshold, product.TrackStock, product.IsActive,
		now, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	product.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProduct(ctx context.Context, product *Product) error {
	return s.updateProductWithQuerier(ctx, s.querier(), product)
}

// applyStockDeltaWithQuerier adds the signed delta as a relative update.
// The read-modify-write happens inside the statement itself, so two
// deltas to the same product can never clobber each other.
func (s *SQLiteStorage) applyStockDeltaWithQuerier(ctx context.Context, q querier, productID int64, delta int) error {
	query := `UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := q.ExecContext(ctx, query, delta, time.Now(), productID)
	if err != nil {
		return fmt.Errorf("failed to apply stock delta: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) ApplyStockDelta(ctx context.Context, productID int64, delta int) error {
	return s.applyStockDeltaWithQuerier(ctx, s.querier(), productID, delta)
}

func (s *SQLiteStorage) listLowStockProductsWithQuerier(ctx context.Context, q querier) ([]*Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE track_stock = 1 AND deleted_at IS NULL AND stock <= low_stock_threshold
		ORDER BY stock ASC
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := make([]*Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLiteStorage) ListLowStockProducts(ctx context.Context) ([]*Product, error) {
	return s.listLowStockProductsWithQuerier(ctx, s.querier())
}

// Order operations

const orderColumns = `id, order_number, customer_id, status, payment_status, payment_method,
       subtotal, tax, shipping_cost, discount, total,
       shipping_name, shipping_phone, shipping_address, shipping_city,
       shipping_state, shipping_postal_code, shipping_country,
       notes, admin_notes, paid_at, shipped_at, delivered_at,
       created_at, updated_at, deleted_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*order.Order, error) {
	var o order.Order
	var paymentMethod sql.NullString
	var subtotal, tax, shippingCost, discount, total string
	var shipName, shipPhone, shipAddr, shipCity, shipState, shipPostal, shipCountry sql.NullString
	var notes, adminNotes sql.NullString
	var paidAt, shippedAt, deliveredAt, deletedAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.Status, &o.PaymentStatus, &paymentMethod,
		&subtotal, &tax, &shippingCost, &discount, &total,
		&shipName, &shipPhone, &shipAddr, &shipCity, &shipState, &shipPostal, &shipCountry,
		&notes, &adminNotes, &paidAt, &shippedAt, &deliveredAt,
		&o.CreatedAt, &o.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = types.PaymentMethod(paymentMethod.String)
	if o.Subtotal, err = scanDecimal(subtotal); err != nil {
		return nil, fmt.Errorf("invalid subtotal for order %d: %w", o.ID, err)
	}
	if o.Tax, err = scanDecimal(tax); err != nil {
		return nil, fmt.Errorf("invalid tax for order %d: %w", o.ID, err)
	}
	if o.ShippingCost, err = scanDecimal(shippingCost); err != nil {
		return nil, fmt.Errorf("invalid shipping_cost for order %d: %w", o.ID, err)
	}
	if o.Discount, err = scanDecimal(discount); err != nil {
		return nil, fmt.Errorf("invalid discount for order %d: %w", o.ID, err)
	}
	if o.Total, err = scanDecimal(total); err != nil {
		return nil, fmt.Errorf("invalid total for order %d: %w", o.ID, err)
	}
	o.Shipping = types.Address{
		Name:       shipName.String,
		Phone:      shipPhone.String,
		Address:    shipAddr.String,
		City:       shipCity.String,
		State:      shipState.String,
		PostalCode: shipPostal.String,
		Country:    shipCountry.String,
	}
	o.Notes = notes.String
	o.AdminNotes = adminNotes.String
	o.PaidAt = nullTime(paidAt)
	o.ShippedAt = nullTime(shippedAt)
	o.DeliveredAt = nullTime(deliveredAt)
	o.DeletedAt = nullTime(deletedAt)
	return &o, nil
}

func (s *SQLiteStorage) createOrderWithQuerier(ctx context.Context, q querier, o *order.Order) error {
	query := `
		INSERT INTO orders (order_number, customer_id, status, payment_status, payment_method,
		                    subtotal, tax, shipping_cost, discount, total,
		                    shipping_name, shipping_phone, shipping_address, shipping_city,
		                    shipping_state, shipping_postal_code, shipping_country,
		                    notes, admin_notes, paid_at, shipped_at, delivered_at,
		                    created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		o.Number, o.CustomerID, string(o.Status), string(o.PaymentStatus), string(o.PaymentMethod),
		o.Subtotal.String(), o.Tax.String(), o.ShippingCost.String(), o.Discount.String(), o.Total.String(),
		o.Shipping.Name, o.Shipping.Phone, o.Shipping.Address, o.Shipping.City,
		o.Shipping.State, o.Shipping.PostalCode, o.Shipping.Country,
		o.Notes, o.AdminNotes, timeArg(o.PaidAt), timeArg(o.ShippedAt), timeArg(o.DeliveredAt),
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order number %s: %w", o.Number, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = id

	for _, item := range o.Items {
		item.OrderID = id
		if err := s.createOrderItemWithQuerier(ctx, q, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStorage) CreateOrder(ctx context.Context, o *order.Order) error {
	return s.createOrderWithQuerier(ctx, s.querier(), o)
}

func (s *SQLiteStorage) getOrderWithQuerier(ctx context.Context, q querier, orderID int64) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? AND deleted_at IS NULL`
	o, err := scanOrder(q.QueryRowContext(ctx, query, orderID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.listOrderItemsWithQuerier(ctx, q, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *SQLiteStorage) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	return s.getOrderWithQuerier(ctx, s.querier(), orderID)
}

func (s *SQLiteStorage) getOrderByNumberWithQuerier(ctx context.Context, q querier, number string) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = ? AND deleted_at IS NULL`
	o, err := scanOrder(q.QueryRowContext(ctx, query, number))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = s.listOrderItemsWithQuerier(ctx, q, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *SQLiteStorage) GetOrderByNumber(ctx context.Context, number string) (*order.Order, error) {
	return s.getOrderByNumberWithQuerier(ctx, s.querier(), number)
}

// updateOrderWithQuerier persists the order header. The order number is
// immutable after creation and deliberately absent from the SET list.
func (s *SQLiteStorage) updateOrderWithQuerier(ctx context.Context, q querier, o *order.Order) error {
	query := `
		UPDATE orders
		SET status = ?, payment_status = ?, payment_method = ?,
		    subtotal = ?, tax = ?, shipping_cost = ?, discount = ?, total = ?,
		    shipping_name = ?, shipping_phone = ?, shipping_address = ?, shipping_city = ?,
		    shipping_state = ?, shipping_postal_code = ?, shipping_country = ?,
		    notes = ?, admin_notes = ?, paid_at = ?, shipped_at = ?, delivered_at = ?,
		    updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := q.ExecContext(ctx, query,
		string(o.Status), string(o.PaymentStatus), string(o.PaymentMethod),
		o.Subtotal.String(), o.Tax.String(), o.ShippingCost.String(), o.Discount.String(), o.Total.String(),
		o.Shipping.Name, o.Shipping.Phone, o.Shipping.Address, o.Shipping.City,
		o.Shipping.State, o.Shipping.PostalCode, o.Shipping.Country,
		o.Notes, o.AdminNotes, timeArg(o.PaidAt), timeArg(o.ShippedAt), timeArg(o.DeliveredAt),
		o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) UpdateOrder(ctx context.Context, o *order.Order) error {
	return s.updateOrderWithQuerier(ctx, s.querier(), o)
}

func (s *SQLiteStorage) listOrdersWithQuerier(ctx context.Context, q querier, filter OrderFilter) ([]*order.Order, error) {
	var conditions []string
	var args []interface{}

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		conditions = append(conditions, "payment_status = ?")
		args = append(args, string(filter.PaymentStatus))
	}
	if filter.CustomerID != 0 {
		conditions = append(conditions, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if !filter.CreatedFrom.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, filter.CreatedTo)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := make([]*order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.Items, err = s.listOrderItemsWithQuerier(ctx, q, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *SQLiteStorage) ListOrders(ctx context.Context, filter OrderFilter) ([]*order.Order, error) {
	return s.listOrdersWithQuerier(ctx, s.querier(), filter)
}

func (s *SQLiteStorage) listOrderIDsWithQuerier(ctx context.Context, q querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM orders WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) ListOrderIDs(ctx context.Context) ([]int64, error) {
	return s.listOrderIDsWithQuerier(ctx, s.querier())
}

// softDeleteOrderWithQuerier flags the order as deleted. Stock is not
// restored; line items stay in place for a later restore.
func (s *SQLiteStorage) softDeleteOrderWithQuerier(ctx context.Context, q querier, orderID int64, at time.Time) error {
	result, err := q.ExecContext(ctx, `UPDATE orders SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, at, orderID)
	if err != nil {
		return fmt.Errorf("failed to soft delete order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) SoftDeleteOrder(ctx context.Context, orderID int64, at time.Time) error {
	return s.softDeleteOrderWithQuerier(ctx, s.querier(), orderID, at)
}

func (s *SQLiteStorage) restoreOrderWithQuerier(ctx context.Context, q querier, orderID int64) error {
	result, err := q.ExecContext(ctx, `UPDATE orders SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`, orderID)
	if err != nil {
		return fmt.Errorf("failed to restore order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) RestoreOrder(ctx context.Context, orderID int64) error {
	return s.restoreOrderWithQuerier(ctx, s.querier(), orderID)
}

// Order item operations

func (s *SQLiteStorage) createOrderItemWithQuerier(ctx context.Context, q querier, item *order.Item) error {
	query := `
		INSERT INTO order_items (order_id, product_id, product_name, product_sku,
		                         unit_price, quantity, subtotal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.ProductSKU,
		item.UnitPrice.String(), item.Quantity, item.Subtotal.String(), now, now)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateOrderItem(ctx context.Context, item *order.Item) error {
	return s.createOrderItemWithQuerier(ctx, s.querier(), item)
}

func (s *SQLiteStorage) updateOrderItemWithQuerier(ctx context.Context, q querier, item *order.Item) error {
	query := `
		UPDATE order_items
		SET quantity = ?, subtotal = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		item.Quantity, item.Subtotal.String(), now, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	item.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateOrderItem(ctx context.Context, item *order.Item) error {
	return s.updateOrderItemWithQuerier(ctx, s.querier(), item)
}

func (s *SQLiteStorage) deleteOrderItemWithQuerier(ctx context.Context, q querier, itemID int64) error {
	result, err := q.ExecContext(ctx, `DELETE FROM order_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteOrderItem(ctx context.Context, itemID int64) error {
	return s.deleteOrderItemWithQuerier(ctx, s.querier(), itemID)
}

func (s *SQLiteStorage) listOrderItemsWithQuerier(ctx context.Context, q querier, orderID int64) ([]*order.Item, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_sku,
		       unit_price, quantity, subtotal, created_at, updated_at
		FROM order_items
		WHERE order_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make([]*order.Item, 0)
	for rows.Next() {
		var item order.Item
		var unitPrice, subtotal string
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductSKU,
			&unitPrice, &item.Quantity, &subtotal, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if item.UnitPrice, err = scanDecimal(unitPrice); err != nil {
			return nil, fmt.Errorf("invalid unit_price for item %d: %w", item.ID, err)
		}
		if item.Subtotal, err = scanDecimal(subtotal); err != nil {
			return nil, fmt.Errorf("invalid subtotal for item %d: %w", item.ID, err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Transaction implementations - delegate to main storage

// Write operations use the internal helper that takes a querier so the
// same statement runs on the DB or inside the transaction.

func (t *sqliteTx) CreateCustomer(ctx context.Context, customer *Customer) error {
	return t.storage.createCustomerWithQuerier(ctx, t.querier(), customer)
}

func (t *sqliteTx) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	return t.storage.getCustomerWithQuerier(ctx, t.querier(), customerID)
}

func (t *sqliteTx) CreateProduct(ctx context.Context, product *Product) error {
	return t.storage.createProductWithQuerier(ctx, t.querier(), product)
}

func (t *sqliteTx) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	return t.storage.getProductWithQuerier(ctx, t.querier(), productID)
}

func (t *sqliteTx) GetProductBySKU(ctx context.Context, sku string) (*Product, error) {
	return t.storage.getProductBySKUWithQuerier(ctx, t.querier(), sku)
}

func (t *sqliteTx) UpdateProduct(ctx context.Context, product *Product) error {
	return t.storage.updateProductWithQuerier(ctx, t.querier(), product)
}

func (t *sqliteTx) ApplyStockDelta(ctx context.Context, productID int64, delta int) error {
	return t.storage.applyStockDeltaWithQuerier(ctx, t.querier(), productID, delta)
}

func (t *sqliteTx) ListLowStockProducts(ctx context.Context) ([]*Product, error) {
	return t.storage.listLowStockProductsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) CreateOrder(ctx context.Context, o *order.Order) error {
	return t.storage.createOrderWithQuerier(ctx, t.querier(), o)
}

func (t *sqliteTx) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	return t.storage.getOrderWithQuerier(ctx, t.querier(), orderID)
}

func (t *sqliteTx) GetOrderByNumber(ctx context.Context, number string) (*order.Order, error) {
	return t.storage.getOrderByNumberWithQuerier(ctx, t.querier(), number)
}

func (t *sqliteTx) UpdateOrder(ctx context.Context, o *order.Order) error {
	return t.storage.updateOrderWithQuerier(ctx, t.querier(), o)
}

func (t *sqliteTx) ListOrders(ctx context.Context, filter OrderFilter) ([]*order.Order, error) {
	return t.storage.listOrdersWithQuerier(ctx, t.querier(), filter)
}

func (t *sqliteTx) ListOrderIDs(ctx context.Context) ([]int64, error) {
	return t.storage.listOrderIDsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) SoftDeleteOrder(ctx context.Context, orderID int64, at time.Time) error {
	return t.storage.softDeleteOrderWithQuerier(ctx, t.querier(), orderID, at)
}

func (t *sqliteTx) RestoreOrder(ctx context.Context, orderID int64) error {
	return t.storage.restoreOrderWithQuerier(ctx, t.querier(), orderID)
}

func (t *sqliteTx) CreateOrderItem(ctx context.Context, item *order.Item) error {
	return t.storage.createOrderItemWithQuerier(ctx, t.querier(), item)
}

func (t *sqliteTx) UpdateOrderItem(ctx context.Context, item *order.Item) error {
	return t.storage.updateOrderItemWithQuerier(ctx, t.querier(), item)
}

func (t *sqliteTx) DeleteOrderItem(ctx context.Context, itemID int64) error {
	return t.storage.deleteOrderItemWithQuerier(ctx, t.querier(), itemID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	// We return an error to prevent accidental misuse
	// If savepoints are needed in the future, implement here
	return nil, errors.New("nested transactions not supported")
}
