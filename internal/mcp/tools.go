package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"github.com/techthink/backoffice/internal/order"
	"github.com/techthink/backoffice/internal/service"
	"github.com/techthink/backoffice/internal/storage"
	"github.com/techthink/backoffice/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound          = -32001 // Order, customer or product does not exist
	ErrorCodeInvalidTransition = -32002 // Status change not allowed from the current state
	ErrorCodeInsufficientStock = -32003 // Not enough stock under the configured policy
	ErrorCodeValidation        = -32004 // Input failed domain validation
)

// handleCreateOrder handles the create_order tool invocation
func (s *Server) handleCreateOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	customerID, ok := getInt64(args, "customer_id")
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "customer_id parameter is required", map[string]interface{}{
			"param":  "customer_id",
			"reason": "missing or not an integer",
		})
	}

	rawItems, ok := args["items"].([]interface{})
	if !ok || len(rawItems) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "items parameter is required and cannot be empty", map[string]interface{}{
			"param":  "items",
			"reason": "missing or empty",
		})
	}

	items := make([]service.ItemInput, 0, len(rawItems))
	for i, raw := range rawItems {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("items[%d] is not an object", i), nil)
		}
		productID, ok := getInt64(m, "product_id")
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("items[%d].product_id is required", i), nil)
		}
		quantity := getIntDefault(m, "quantity", 0)
		items = append(items, service.ItemInput{ProductID: productID, Quantity: quantity})
	}

	shippingCost, err := getDecimalDefault(args, "shipping_cost", decimal.Zero)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "shipping_cost is not a valid decimal", nil)
	}
	discount, err := getDecimalDefault(args, "discount", decimal.Zero)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "discount is not a valid decimal", nil)
	}

	o, err := s.orders.CreateOrder(ctx, service.CreateOrderInput{
		CustomerID:    customerID,
		Items:         items,
		ShippingCost:  shippingCost,
		Discount:      discount,
		PaymentMethod: types.PaymentMethod(getStringDefault(args, "payment_method", "")),
		Notes:         getStringDefault(args, "notes", ""),
	})
	if err != nil {
		return nil, domainError(err)
	}

	return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
}

// handleGetOrder handles the get_order tool invocation
func (s *Server) handleGetOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	var o *order.Order
	var err error
	if orderID, ok := getInt64(args, "order_id"); ok {
		o, err = s.orders.GetOrder(ctx, orderID)
	} else if number := getStringDefault(args, "order_number", ""); number != "" {
		o, err = s.orders.GetOrderByNumber(ctx, number)
	} else {
		return nil, newMCPError(ErrorCodeInvalidParams, "order_id or order_number is required", nil)
	}
	if err != nil {
		return nil, domainError(err)
	}

	return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
}

// handleListOrders handles the list_orders tool invocation
func (s *Server) handleListOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	filter := storage.OrderFilter{
		Status:         types.Status(getStringDefault(args, "status", "")),
		PaymentStatus:  types.PaymentStatus(getStringDefault(args, "payment_status", "")),
		IncludeDeleted: getBoolDefault(args, "include_deleted", false),
		Limit:          getIntDefault(args, "limit", 50),
	}
	if customerID, ok := getInt64(args, "customer_id"); ok {
		filter.CustomerID = customerID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "unknown status", map[string]interface{}{
			"param": "status",
			"value": string(filter.Status),
		})
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "unknown payment status", map[string]interface{}{
			"param": "payment_status",
			"value": string(filter.PaymentStatus),
		})
	}

	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, domainError(err)
	}

	summaries := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, orderSummaryToMap(o))
	}
	response := map[string]interface{}{
		"count":  len(orders),
		"orders": summaries,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAddOrderItem handles the add_order_item tool invocation
func (s *Server) handleAddOrderItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, orderID, err := requireOrderID(request)
	if err != nil {
		return nil, err
	}
	productID, ok := getInt64(args, "product_id")
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "product_id parameter is required", nil)
	}

	o, derr := s.orders.AddItem(ctx, orderID, productID, getIntDefault(args, "quantity", 0))
	if derr != nil {
		return nil, domainError(derr)
	}
	return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
}

// handleUpdateItemQuantity handles the update_item_quantity tool invocation
func (s *Server) handleUpdateItemQuantity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, orderID, err := requireOrderID(request)
	if err != nil {
		return nil, err
	}
	itemID, ok := getInt64(args, "item_id")
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "item_id parameter is required", nil)
	}

	o, derr := s.orders.UpdateItemQuantity(ctx, orderID, itemID, getIntDefault(args, "quantity", 0))
	if derr != nil {
		return nil, domainError(derr)
	}
	return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
}

// handleRemoveOrderItem handles the remove_order_item tool invocation
func (s *Server) handleRemoveOrderItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, orderID, err := requireOrderID(request)
	if err != nil {
		return nil, err
	}
	itemID, ok := getInt64(args, "item_id")
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "item_id parameter is required", nil)
	}

	o, derr := s.orders.RemoveItem(ctx, orderID, itemID)
	if derr != nil {
		return nil, domainError(derr)
	}
	return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
}

// handleSetOrderStatus handles the set_order_status tool invocation
func (s *Server) handleSetOrderStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, orderID, err := requireOrderID(request)
	if err != nil {
		return nil, err
	}
	status := types.Status(getStringDefault(args, "status", ""))
	if !status.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "unknown status", map[string]interface{}{
			"param": "status",
			"value": string(status),
		})
	}

	o, derr := s.orders.TransitionStatus(ctx, orderID, status)
	if derr != nil {
		return nil, domainError(derr)
	}
	return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
}

// handleSetPaymentStatus handles the set_payment_status tool invocation
func (s *Server) handleSetPaymentStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, orderID, err := requireOrderID(request)
	if err != nil {
		return nil, err
	}
	status := types.PaymentStatus(getStringDefault(args, "payment_status", ""))
	if !status.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "unknown payment status", map[string]interface{}{
			"param": "payment_status",
			"value": string(status),
		})
	}

	o, derr := s.orders.TransitionPaymentStatus(ctx, orderID, status)
	if derr != nil {
		return nil, domainError(derr)
	}
	return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
}

// handleRecomputeTotals handles the recompute_totals tool invocation
func (s *Server) handleRecomputeTotals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	if orderID, ok := getInt64(args, "order_id"); ok {
		o, err := s.orders.RecomputeTotals(ctx, orderID)
		if err != nil {
			return nil, domainError(err)
		}
		return mcp.NewToolResultText(formatJSON(orderToMap(o))), nil
	}

	n, err := s.orders.RecomputeAllTotals(ctx, getIntDefault(args, "workers", 4))
	if err != nil {
		return nil, domainError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"recomputed": n,
	})), nil
}

// handleDeleteOrder handles the delete_order tool invocation
func (s *Server) handleDeleteOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, orderID, err := requireOrderID(request)
	if err != nil {
		return nil, err
	}

	restore := getBoolDefault(args, "restore", false)
	if restore {
		if err := s.orders.RestoreOrder(ctx, orderID); err != nil {
			return nil, domainError(err)
		}
	} else {
		if err := s.orders.SoftDeleteOrder(ctx, orderID); err != nil {
			return nil, domainError(err)
		}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"order_id": orderID,
		"restored": restore,
		"deleted":  !restore,
	})), nil
}

// handleLowStockReport handles the low_stock_report tool invocation
func (s *Server) handleLowStockReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	products, err := s.orders.LowStockProducts(ctx)
	if err != nil {
		return nil, domainError(err)
	}

	rows := make([]interface{}, 0, len(products))
	for _, p := range products {
		rows = append(rows, map[string]interface{}{
			"product_id":          p.ID,
			"name":                p.Name,
			"sku":                 p.SKU,
			"stock":               p.Stock,
			"low_stock_threshold": p.LowStockThreshold,
			"restock_suggestion":  p.RestockSuggestion(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":    len(products),
		"products": rows,
	})), nil
}

// requireOrderID extracts the arguments map and the mandatory order_id.
func requireOrderID(request mcp.CallToolRequest) (map[string]interface{}, int64, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, 0, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	orderID, ok := getInt64(args, "order_id")
	if !ok {
		return nil, 0, newMCPError(ErrorCodeInvalidParams, "order_id parameter is required", map[string]interface{}{
			"param":  "order_id",
			"reason": "missing or not an integer",
		})
	}
	return args, orderID, nil
}

// domainError maps service errors onto MCP error codes.
func domainError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, err.Error(), nil)
	case errors.Is(err, types.ErrInvalidTransition):
		return newMCPError(ErrorCodeInvalidTransition, err.Error(), nil)
	case errors.Is(err, types.ErrInsufficientStock):
		return newMCPError(ErrorCodeInsufficientStock, err.Error(), nil)
	case errors.Is(err, types.ErrInvalidQuantity),
		errors.Is(err, types.ErrInvalidPrice),
		errors.Is(err, types.ErrNoItems):
		return newMCPError(ErrorCodeValidation, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, err.Error(), nil)
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// newMCPError creates a new MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// orderToMap renders an order with its items for a tool response.
func orderToMap(o *order.Order) map[string]interface{} {
	items := make([]interface{}, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]interface{}{
			"item_id":      item.ID,
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"product_sku":  item.ProductSKU,
			"unit_price":   item.UnitPrice.String(),
			"quantity":     item.Quantity,
			"subtotal":     item.Subtotal.String(),
		})
	}

	m := orderSummaryToMap(o)
	m["items"] = items
	m["shipping_address"] = o.Shipping.String()
	m["notes"] = o.Notes
	return m
}

// orderSummaryToMap renders the order header without its items.
func orderSummaryToMap(o *order.Order) map[string]interface{} {
	m := map[string]interface{}{
		"order_id":       o.ID,
		"order_number":   o.Number,
		"customer_id":    o.CustomerID,
		"status":         string(o.Status),
		"payment_status": string(o.PaymentStatus),
		"subtotal":       o.Subtotal.String(),
		"tax":            o.Tax.String(),
		"shipping_cost":  o.ShippingCost.String(),
		"discount":       o.Discount.String(),
		"total":          o.Total.String(),
		"created_at":     o.CreatedAt,
	}
	if o.PaymentMethod != "" {
		m["payment_method"] = string(o.PaymentMethod)
	}
	if o.PaidAt != nil {
		m["paid_at"] = *o.PaidAt
	}
	if o.ShippedAt != nil {
		m["shipped_at"] = *o.ShippedAt
	}
	if o.DeliveredAt != nil {
		m["delivered_at"] = *o.DeliveredAt
	}
	if o.DeletedAt != nil {
		m["deleted_at"] = *o.DeletedAt
	}
	return m
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getInt64 extracts an integer parameter, reporting whether it was present.
func getInt64(args map[string]interface{}, key string) (int64, bool) {
	if val, ok := args[key].(float64); ok {
		return int64(val), true
	}
	if val, ok := args[key].(int64); ok {
		return val, true
	}
	if val, ok := args[key].(int); ok {
		return int64(val), true
	}
	return 0, false
}

// getDecimalDefault extracts a decimal-string parameter with a default value.
func getDecimalDefault(args map[string]interface{}, key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return defaultValue, nil
	}
	return decimal.NewFromString(val)
}
