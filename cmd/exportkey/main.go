// exportkey manages the API keys that guard the CSV export endpoints.
//
// Usage:
//
//	exportkey create -name "weekly analytics"
//	exportkey list
//	exportkey revoke -id <uuid>
//
// The plaintext key is printed exactly once on create; only its hash is
// stored.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"renoquote_backend/internal/exports"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/db"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		fail("failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := exports.NewRepository(pool)

	switch os.Args[1] {
	case "create":
		runCreate(ctx, repo, os.Args[2:])
	case "list":
		runList(ctx, repo)
	case "revoke":
		runRevoke(ctx, repo, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func runCreate(ctx context.Context, repo *exports.Repository, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "label describing who holds the key")
	_ = fs.Parse(args)

	if *name == "" {
		fail("create: -name is required")
	}

	plaintext, hash, prefix, err := exports.GenerateAPIKey()
	if err != nil {
		fail("create: %v", err)
	}

	key, err := repo.CreateAPIKey(ctx, *name, hash, prefix)
	if err != nil {
		fail("create: %v", err)
	}

	fmt.Printf("created export API key %s (%s)\n", key.ID, key.Name)
	fmt.Println()
	fmt.Println("store this key now, it will not be shown again:")
	fmt.Println()
	fmt.Printf("  %s\n", plaintext)
}

func runList(ctx context.Context, repo *exports.Repository) {
	keys, err := repo.ListAPIKeys(ctx)
	if err != nil {
		fail("list: %v", err)
	}

	if len(keys) == 0 {
		fmt.Println("no export API keys")
		return
	}

	for _, key := range keys {
		status := "active"
		if !key.IsActive {
			status = "revoked"
		}
		lastUsed := "never"
		if key.LastUsedAt != nil {
			lastUsed = key.LastUsedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%s  %-8s  %s...  last used %s  %s\n", key.ID, status, key.KeyPrefix, lastUsed, key.Name)
	}
}

func runRevoke(ctx context.Context, repo *exports.Repository, args []string) {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	id := fs.String("id", "", "id of the key to revoke")
	_ = fs.Parse(args)

	keyID, err := uuid.Parse(*id)
	if err != nil {
		fail("revoke: -id must be a valid uuid")
	}

	if err := repo.RevokeAPIKey(ctx, keyID); err != nil {
		fail("revoke: %v", err)
	}

	fmt.Printf("revoked export API key %s\n", keyID)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: exportkey <create|list|revoke> [options]")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
