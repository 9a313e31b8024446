package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/techthink/backoffice/pkg/types"
)

func statusEnum() []string {
	values := make([]string, 0, len(types.AllStatuses))
	for _, s := range types.AllStatuses {
		values = append(values, string(s))
	}
	return values
}

func paymentStatusEnum() []string {
	values := make([]string, 0, len(types.AllPaymentStatuses))
	for _, s := range types.AllPaymentStatuses {
		values = append(values, string(s))
	}
	return values
}

// createOrderTool returns the tool definition for create_order
func createOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "create_order",
		Description: "Create a new order for a customer with one or more line items",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"customer_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the customer placing the order",
				},
				"items": map[string]interface{}{
					"type":        "array",
					"description": "Line items; product details and price are snapshotted from the catalog",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"product_id": map[string]interface{}{
								"type":        "integer",
								"description": "Catalog product ID",
							},
							"quantity": map[string]interface{}{
								"type":        "integer",
								"description": "Quantity ordered (must be at least 1)",
								"minimum":     1,
							},
						},
						"required": []string{"product_id", "quantity"},
					},
					"minItems": 1,
				},
				"shipping_cost": map[string]interface{}{
					"type":        "string",
					"description": "Shipping cost as a decimal string (e.g. '50000')",
					"default":     "0",
				},
				"discount": map[string]interface{}{
					"type":        "string",
					"description": "Discount amount as a decimal string",
					"default":     "0",
				},
				"payment_method": map[string]interface{}{
					"type":        "string",
					"description": "How the customer pays",
					"enum":        []string{"bank_transfer", "credit_card", "e_wallet", "cod"},
				},
				"notes": map[string]interface{}{
					"type":        "string",
					"description": "Customer-facing notes for the order",
				},
			},
			Required: []string{"customer_id", "items"},
		},
	}
}

// getOrderTool returns the tool definition for get_order
func getOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_order",
		Description: "Fetch an order with its line items by ID or order number",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Internal order ID",
				},
				"order_number": map[string]interface{}{
					"type":        "string",
					"description": "Public order number (e.g. 'ORD-1A2B3C4D')",
				},
			},
		},
	}
}

// listOrdersTool returns the tool definition for list_orders
func listOrdersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_orders",
		Description: "List orders, optionally filtered by status, payment status or customer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Filter by fulfillment status",
					"enum":        statusEnum(),
				},
				"payment_status": map[string]interface{}{
					"type":        "string",
					"description": "Filter by payment status",
					"enum":        paymentStatusEnum(),
				},
				"customer_id": map[string]interface{}{
					"type":        "integer",
					"description": "Filter by customer",
				},
				"include_deleted": map[string]interface{}{
					"type":        "boolean",
					"description": "Include soft-deleted orders",
					"default":     false,
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of orders to return (1-500)",
					"default":     50,
					"minimum":     1,
					"maximum":     500,
				},
			},
		},
	}
}

// addOrderItemTool returns the tool definition for add_order_item
func addOrderItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_order_item",
		Description: "Add a line item to an existing order; stock and totals adjust automatically",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order to modify",
				},
				"product_id": map[string]interface{}{
					"type":        "integer",
					"description": "Catalog product ID",
				},
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "Quantity ordered (must be at least 1)",
					"minimum":     1,
				},
			},
			Required: []string{"order_id", "product_id", "quantity"},
		},
	}
}

// updateItemQuantityTool returns the tool definition for update_item_quantity
func updateItemQuantityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_item_quantity",
		Description: "Change a line item's quantity; stock moves by the difference and totals recompute",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order to modify",
				},
				"item_id": map[string]interface{}{
					"type":        "integer",
					"description": "Line item ID",
				},
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "New quantity (must be at least 1)",
					"minimum":     1,
				},
			},
			Required: []string{"order_id", "item_id", "quantity"},
		},
	}
}

// removeOrderItemTool returns the tool definition for remove_order_item
func removeOrderItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_order_item",
		Description: "Remove a line item from an order; its quantity returns to stock",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order to modify",
				},
				"item_id": map[string]interface{}{
					"type":        "integer",
					"description": "Line item ID",
				},
			},
			Required: []string{"order_id", "item_id"},
		},
	}
}

// setOrderStatusTool returns the tool definition for set_order_status
func setOrderStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "set_order_status",
		Description: "Move an order to the next fulfillment status (pending → processing → shipped → delivered, or cancelled/refunded)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order to transition",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Target status",
					"enum":        statusEnum(),
				},
			},
			Required: []string{"order_id", "status"},
		},
	}
}

// setPaymentStatusTool returns the tool definition for set_payment_status
func setPaymentStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "set_payment_status",
		Description: "Move an order's payment status (pending → paid/failed, paid → refunded, failed → pending)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order to transition",
				},
				"payment_status": map[string]interface{}{
					"type":        "string",
					"description": "Target payment status",
					"enum":        paymentStatusEnum(),
				},
			},
			Required: []string{"order_id", "payment_status"},
		},
	}
}

// recomputeTotalsTool returns the tool definition for recompute_totals
func recomputeTotalsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "recompute_totals",
		Description: "Reprice an order from its line items, or all orders when no order_id is given",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order to reprice; omit to reprice every live order",
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Worker pool size for the bulk recompute",
					"default":     4,
					"minimum":     1,
					"maximum":     32,
				},
			},
		},
	}
}

// deleteOrderTool returns the tool definition for delete_order
func deleteOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_order",
		Description: "Soft-delete an order (stock is not restored), or restore a previously deleted one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order to delete or restore",
				},
				"restore": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, restore instead of delete",
					"default":     false,
				},
			},
			Required: []string{"order_id"},
		},
	}
}

// lowStockReportTool returns the tool definition for low_stock_report
func lowStockReportTool() mcp.Tool {
	return mcp.Tool{
		Name:        "low_stock_report",
		Description: "List tracked products at or below their restock threshold with restock suggestions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
