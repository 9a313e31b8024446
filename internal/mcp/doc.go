// Package mcp implements the Model Context Protocol (MCP) server for
// the back-office order system.
//
// The server exposes order management as MCP tools over stdio:
//   - create_order, get_order, list_orders
//   - add_order_item, update_item_quantity, remove_order_item
//   - set_order_status, set_payment_status
//   - recompute_totals, delete_order, low_stock_report
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport, so stdout is
// reserved for protocol frames and all logging goes to stderr. Tool
// responses are JSON documents; domain failures surface as MCP errors
// with stable codes (not found, invalid transition, insufficient
// stock, validation).
package mcp
