// Command mcp-reminder serves reminder management over MCP (stdio).
//
// It shares configuration and storage with reminderd but arms no timers:
// reminderd fires the reminders and rereads the backend on SIGHUP.
//
// Usage:
//
//	./mcp-reminder          # Start MCP server (stdio)
//	./mcp-reminder --help   # Show help
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/app"
	"github.com/ykvlv/warrior-reminders/internal/config"
	"github.com/ykvlv/warrior-reminders/internal/logger"
	"github.com/ykvlv/warrior-reminders/internal/mcpserver"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	// zap writes to stderr; stdout belongs to the protocol.
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	core, err := app.Open(context.Background(), cfg, log, app.StoreOnly())
	if err != nil {
		log.Fatal("init failed", zap.Error(err))
	}
	defer func() { _ = core.Close() }()

	s := mcpserver.NewServer(core.Service)
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		log.Error("server error", zap.Error(err))
	}
}

func printHelp() {
	fmt.Println(`MCP Reminder Server - daily reminder management via MCP protocol

USAGE:
    mcp-reminder          Start MCP server (communicates via stdio)
    mcp-reminder --help   Show this help

ENVIRONMENT:
    STORAGE_DRIVER    sqlite | redis | memory (default: sqlite)
    DB_PATH           SQLite database file (default: ./data/reminders.db)
    REDIS_URL         Redis URL for the redis driver
    DEFAULT_TZ        Time zone reminders fire in (default: UTC)
    LOG_LEVEL         debug | info | warn | error (logs go to stderr)

    Reminders are only stored here. A running reminderd on the same storage
    fires them; send it SIGHUP to pick up changes without a restart.

TOOLS:
    add_reminder      Add a daily reminder (time, title, body, type, enabled)
    list_reminders    List all reminders with their next fire time
    get_reminder      Get one reminder by id
    update_reminder   Update reminder fields (time, title, body, type, enabled)
    toggle_reminder   Enable or disable a reminder
    delete_reminder   Delete a reminder permanently
    list_templates    List the predefined reminder templates

CONFIGURATION:
    Add to your MCP client configuration:
    {
      "mcpServers": {
        "reminders": {
          "command": "/path/to/mcp-reminder",
          "args": []
        }
      }
    }`)
}
