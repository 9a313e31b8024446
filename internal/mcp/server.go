package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/techthink/backoffice/internal/ledger"
	"github.com/techthink/backoffice/internal/service"
	"github.com/techthink/backoffice/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "backoffice-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.backoffice"
)

// Config carries the server's tunables.
type Config struct {
	DBPath             string
	AllowNegativeStock bool
	DefaultCountry     string
	Logger             *log.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage storage.Storage
	orders  *service.OrderService
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	dbPath := cfg.DBPath
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".backoffice")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbFile := filepath.Join(dbPath, "backoffice.db")

	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		// stdout carries the MCP protocol, so logs go to stderr
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	stockLedger := ledger.New(ledger.Policy{AllowNegative: cfg.AllowNegativeStock}, logger)

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.DefaultCountry != "" {
		opts = append(opts, service.WithDefaultCountry(cfg.DefaultCountry))
	}
	orders := service.NewOrderService(store, stockLedger, opts...)

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		storage: store,
		orders:  orders,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(createOrderTool(), s.handleCreateOrder)
	s.mcp.AddTool(getOrderTool(), s.handleGetOrder)
	s.mcp.AddTool(listOrdersTool(), s.handleListOrders)
	s.mcp.AddTool(addOrderItemTool(), s.handleAddOrderItem)
	s.mcp.AddTool(updateItemQuantityTool(), s.handleUpdateItemQuantity)
	s.mcp.AddTool(removeOrderItemTool(), s.handleRemoveOrderItem)
	s.mcp.AddTool(setOrderStatusTool(), s.handleSetOrderStatus)
	s.mcp.AddTool(setPaymentStatusTool(), s.handleSetPaymentStatus)
	s.mcp.AddTool(recomputeTotalsTool(), s.handleRecomputeTotals)
	s.mcp.AddTool(deleteOrderTool(), s.handleDeleteOrder)
	s.mcp.AddTool(lowStockReportTool(), s.handleLowStockReport)
	return nil
}
