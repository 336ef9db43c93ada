package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mealshare_echo/internal/config"
	"mealshare_echo/internal/handlers"
	authMiddleware "mealshare_echo/internal/middleware"
	"mealshare_echo/internal/services"
	"mealshare_echo/internal/shopping"
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

	// Initialize Firebase
	deps := handlers.Deps{
		SecureCookie: cfg.IsProduction(),
		Heartbeat:    cfg.SSEHeartbeat,
	}
	authClient, err := services.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	} else {
		deps.Verifier = authClient
		deps.Issuer = authClient
	}

	// Initialize Database
	db, err := services.InitDB(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Optional snapshot read cache
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL, "mealshare:")
		if err != nil {
			log.Printf("Warning: Redis unavailable, serving snapshots from the database: %v", err)
		} else {
			defer cache.Close()
		}
	}

	// Shopping list service
	locks := shopping.NewPlanLocks()
	hub := shopping.NewHub(cfg.HubBufferSize)
	snapshots := shopping.NewSnapshotStore(db, cache, locks)
	deps.DB = db
	deps.Service = shopping.NewService(
		shopping.NewDirectory(db),
		snapshots,
		shopping.NewCheckedStore(db, locks),
		hub,
		shopping.NewRecalculator(db, snapshots, hub),
	)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = authMiddleware.ErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	handlers.RegisterRoutes(e, deps)

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down server...")

	// Ends every open stream so Shutdown does not wait on them.
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
