package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/techthink/backoffice/internal/config"
	"github.com/techthink/backoffice/internal/ledger"
	"github.com/techthink/backoffice/internal/service"
	"github.com/techthink/backoffice/internal/storage"
)

// loadConfig reads .backoffice.yaml from the working directory.
func loadConfig() (config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(wd)
}

// expandHome resolves a leading "~" in the configured database path.
func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// openService opens storage at the configured path and builds the
// order service around it. The caller closes the returned storage.
func openService(cfg config.Config) (*storage.SQLiteStorage, *service.OrderService, error) {
	dbDir, err := expandHome(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(dbDir, "backoffice.db"))
	if err != nil {
		return nil, nil, err
	}

	stockLedger := ledger.New(ledger.Policy{AllowNegative: cfg.AllowNegativeStock}, nil)
	svc := service.NewOrderService(store, stockLedger,
		service.WithDefaultCountry(cfg.DefaultCountry))
	return store, svc, nil
}
