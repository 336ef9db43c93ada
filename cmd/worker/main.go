package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mealshare_echo/internal/config"
	"mealshare_echo/internal/services"
	"mealshare_echo/internal/shopping"
	"mealshare_echo/internal/tasks"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize Database
	db, err := services.InitDB(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL, "mealshare:")
		if err != nil {
			log.Printf("Warning: Redis unavailable, cached snapshots will expire on their own: %v", err)
		} else {
			defer cache.Close()
		}
	}

	// No hub in this process: clients pick the repaired list up on their next fetch.
	snapshots := shopping.NewSnapshotStore(db, cache, shopping.NewPlanLocks())
	recalc := shopping.NewRecalculator(db, snapshots, nil)

	// Initialize Task Registry
	registry := tasks.NewRegistry()
	registry.Register(tasks.SweepStaleShoppingListsTask, tasks.SweepStaleShoppingLists(recalc))

	log.Printf("Worker started with tasks %v, running every %s", registry.Names(), cfg.WorkerInterval)

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	runTasks(ctx, registry)

	for {
		select {
		case <-ticker.C:
			runTasks(ctx, registry)
		case <-ctx.Done():
			return
		}
	}
}

func runTasks(ctx context.Context, registry *tasks.Registry) {
	log.Println("Running periodic tasks...")

	failed := 0
	for _, run := range registry.RunAll(ctx) {
		if run.Status != "success" {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("%d periodic tasks failed, retrying on next tick.", failed)
	}
}
