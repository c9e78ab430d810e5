package main

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/AlexTLDR/flok/internal/config"
	"github.com/AlexTLDR/flok/internal/database"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/store"
	"github.com/AlexTLDR/flok/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StorageBackend != config.StorageSQL {
		log.Fatalf("Phone normalization only runs against the SQL backend, got %q", cfg.StorageBackend)
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, database.DefaultOptions)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	st := store.Open(ctx, db, cfg.DocumentKey)
	if !st.Status(ctx).Loaded {
		log.Fatalf("Failed to read document %q, nothing was changed", cfg.DocumentKey)
	}
	users := st.Current().Users
	fmt.Printf("Found %d users to process\n", len(users))

	var (
		updated int
		failed  int
		skipped int
	)
	_, err = st.Update(ctx, func(doc *document.Document) (*document.Document, error) {
		next := doc.Clone()
		ids := make([]document.ID, 0, len(next.Users))
		for id := range next.Users {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			u := next.Users[id]
			if u.Phone == "" {
				skipped++
				continue
			}
			normalized, err := utils.NormalizePhoneNumber(u.Phone, cfg.PhoneRegion)
			if err != nil {
				log.Printf("Failed to normalize phone %q (ID: %s): %v", u.Phone, id, err)
				failed++
				continue
			}
			if normalized != u.Phone {
				fmt.Printf("Updated ID %s: %q -> %q\n", id, u.Phone, normalized)
				u.Phone = normalized
				updated++
			}
		}
		if updated == 0 {
			return doc, nil
		}
		return next, nil
	})
	if err != nil {
		log.Fatalf("Failed to save document: %v", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total: %d\n", len(users))
	fmt.Printf("  Updated: %d\n", updated)
	fmt.Printf("  Failed: %d\n", failed)
	fmt.Printf("  Without phone: %d\n", skipped)
	fmt.Printf("  Unchanged: %d\n", len(users)-updated-failed-skipped)
}
