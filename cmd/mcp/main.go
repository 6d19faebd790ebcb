package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/scalp-assistant/internal/adapters/mcp"
	"github.com/kirillkom/scalp-assistant/internal/config"
	"github.com/kirillkom/scalp-assistant/internal/core/staging"
	"github.com/kirillkom/scalp-assistant/internal/infrastructure/catalog"
	"github.com/kirillkom/scalp-assistant/internal/observability/logging"
)

var version = "dev"

// Stdout carries the MCP stream, so logs go to stderr.
func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stderr, "scalp-mcp", cfg.LogLevel))

	diseases, err := catalog.Load()
	if err != nil {
		log.Fatalf("load disease catalog: %v", err)
	}
	tools := mcpadapter.NewTools(staging.NewClassifier(staging.WithLocation(cfg.Location())), diseases)

	if err := server.ServeStdio(mcpadapter.NewServer(version, tools)); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
