package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AlexTLDR/flok/internal/config"
	"github.com/AlexTLDR/flok/internal/database"
	"github.com/AlexTLDR/flok/internal/media"
	"github.com/AlexTLDR/flok/internal/notify"
	"github.com/AlexTLDR/flok/internal/server"
	"github.com/AlexTLDR/flok/internal/storage/dynamo"
	"github.com/AlexTLDR/flok/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeBackend()

	images, err := openMedia(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	st := store.Open(ctx, backend, cfg.DocumentKey, store.WithAlerter(notify.LogAlerter{}))
	srv := server.New(cfg, st, server.WithMedia(images))

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return st.RunSweeper(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Printf("Shutting down server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server stopped: %v", err)
		closeBackend()
		os.Exit(1)
	}
}

// openBackend picks where the document lives. The returned func releases
// the backend.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageDynamoDB:
		b, err := dynamo.NewFromRegion(ctx, cfg.AWSRegion, cfg.DynamoDBTable)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	case config.StorageMemory:
		log.Printf("Warning: using in-memory storage, data is lost on restart")
		return store.NewMemoryBackend(), func() {}, nil
	default:
		db, err := database.New(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, database.DefaultOptions)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.Printf("Failed to close database: %v", err)
			}
		}, nil
	}
}

func openMedia(ctx context.Context, cfg *config.Config) (media.Store, error) {
	if cfg.MediaBackend == config.MediaS3 {
		return media.NewS3FromRegion(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3PublicBaseURL)
	}
	return media.Inline{}, nil
}
