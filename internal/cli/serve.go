package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/techthink/backoffice/internal/mcp"
	"github.com/techthink/backoffice/internal/storage"
)

func newServeCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the backoffice MCP server (stdio)",
		Long:  "Start the MCP server using stdio transport so AI assistants can create and manage orders.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the MCP protocol
			log.SetOutput(os.Stderr)
			log.Printf("Backoffice MCP server v%s starting...", version)
			log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			resolved, err := expandHome(cfg.DBPath)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(mcp.Config{
				DBPath:             resolved,
				AllowNegativeStock: cfg.AllowNegativeStock,
				DefaultCountry:     cfg.DefaultCountry,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				log.Println("MCP server ready, listening on stdio...")
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				log.Printf("Received signal %v, shutting down gracefully...", sig)
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&dbPath, "db-path", "", "Database directory (overrides config)")
	return cmd
}
