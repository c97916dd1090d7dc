package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/vjeyam/sports-odds-pipeline/internal/analytics"
	"github.com/vjeyam/sports-odds-pipeline/internal/config"
	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/internal/handlers"
	"github.com/vjeyam/sports-odds-pipeline/internal/hub"
	"github.com/vjeyam/sports-odds-pipeline/internal/ingest"
	"github.com/vjeyam/sports-odds-pipeline/internal/linker"
	"github.com/vjeyam/sports-odds-pipeline/internal/normalizer"
	"github.com/vjeyam/sports-odds-pipeline/internal/pipeline"
	"github.com/vjeyam/sports-odds-pipeline/internal/reconciler"
)

func main() {
	fmt.Println("=== Sports Odds Pipeline ===")

	cfg := config.Load()
	loc := cfg.Location()

	// Database
	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	fmt.Println("✓ Connected to database")

	if err := db.Migrate(database); err != nil {
		fmt.Printf("❌ Failed to run migrations: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Migrations applied")

	store := db.NewStore(database)

	// Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		fmt.Printf("❌ Failed to parse Redis URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	// Stage workers
	consumer := ingest.NewStreamConsumer(redisClient, cfg.Stream.ConsumerGroup, cfg.Stream.ConsumerID)
	oddsIngestor := ingest.NewOddsIngestor(consumer, store, cfg.Stream.RawOddsStream)
	resultsIngestor := ingest.NewResultsIngestor(consumer, store, cfg.Stream.RawResultsStream)
	norm := normalizer.New(store)
	link := linker.New(store, loc)
	recon := reconciler.New(store)
	engine := analytics.New(store, loc, cfg.Analytics)

	// Orchestrator and run hub
	runHub := hub.New()
	go runHub.Run(ctx)

	orch := pipeline.New(store, pipeline.BuildStages(
		oddsIngestor, resultsIngestor, norm, link, recon, engine))
	orch.SetNotifier(runHub)

	scheduler := pipeline.NewScheduler(orch, cfg.Pipeline.Interval)
	go scheduler.Start(ctx)

	// HTTP surface
	handler := handlers.NewHandler(store, engine, link, orch, runHub, loc)
	router := handlers.NewRouter(handler, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Odds pipeline listening on %s\n", cfg.Server.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("❌ Server error: %v\n", err)
		os.Exit(1)

	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	fmt.Println("✓ Shutdown complete")
}
