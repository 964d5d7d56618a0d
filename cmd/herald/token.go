package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/herald/pkg/auth"
	"github.com/platinummonkey/herald/pkg/config"
)

// runToken manages API tokens used to authenticate event streams
func runToken(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: herald token <create|revoke> [flags]")
	}

	ctx := context.Background()
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := auth.RunMigrations(ctx, db, cfg.Database.Driver, nil); err != nil {
		return err
	}
	store := auth.NewTokenStore(db)

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("token create", flag.ContinueOnError)
		user := fs.String("user", "", "User key the token authenticates as")
		name := fs.String("name", "", "Token name")
		ttl := fs.Duration("ttl", 0, "Token lifetime (0 never expires)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		userKey, err := uuid.Parse(*user)
		if err != nil {
			return fmt.Errorf("invalid user key %q: %w", *user, err)
		}
		if *name == "" {
			return fmt.Errorf("token name is required")
		}

		var expiresAt *time.Time
		if *ttl > 0 {
			t := time.Now().Add(*ttl)
			expiresAt = &t
		}

		token, raw, err := store.CreateToken(ctx, userKey, *name, expiresAt)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Created token %d (%s)\n%s\n", token.ID, token.TokenPrefix, raw)
		return nil

	case "revoke":
		fs := flag.NewFlagSet("token revoke", flag.ContinueOnError)
		id := fs.Int64("id", 0, "Token id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := store.RevokeToken(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Revoked token %d\n", *id)
		return nil

	default:
		return fmt.Errorf("unknown token command %q", args[0])
	}
}
