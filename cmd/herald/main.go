// Command herald pushes domain change events to connected back-office
// clients over Server-Sent Events.
//
// Usage:
//
//	herald [serve]
//	herald token create -user <key> -name <name> [-ttl 720h]
//	herald token revoke -id <id>
//
// All settings come from HERALD_* environment variables.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/platinummonkey/herald/pkg/config"
	"github.com/platinummonkey/herald/pkg/observability"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout).
		WithField("service", "herald").
		WithField("version", version)

	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		err = serve(cfg, logger)
	case "token":
		err = runToken(cfg, args)
	default:
		err = fmt.Errorf("unknown command %q", command)
	}

	if err != nil {
		logger.WithError(err).Error("herald exited with error")
		os.Exit(1)
	}
}

// openDatabase opens and pings the content database
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
