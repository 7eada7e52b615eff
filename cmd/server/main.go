package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	grpcapi "rental-market-backend/internal/api/grpc"
	httpapi "rental-market-backend/internal/api/http"
	"rental-market-backend/internal/cache"
	"rental-market-backend/internal/config"
	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/repository/postgres"
	"rental-market-backend/internal/security"
	"rental-market-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Rental Market Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Marketplace configuration", "collections", len(cfg.Marketplace.Collections), "payment_mints", len(cfg.Marketplace.PaymentMints))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize read caches
	tokensCache, mintsCache, closeCache := newCaches(ctx, cfg)
	defer closeCache()

	market := service.NewMarketCache(
		store.TokenRepository,
		store.PaymentMintRepository,
		tokensCache,
		mintsCache,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		domain.NewPaymentMints(cfg.PaymentMints()),
		cfg.Collections(),
	)

	// Initialize Services
	defaultUnit := domain.RateUnit(cfg.Marketplace.DefaultRateUnit)
	browseSvc := service.NewBrowseService(market, store.TokenRepository, store.RentalEventRepository, defaultUnit)
	manageSvc := service.NewManageService(market, store.TokenRepository, defaultUnit)
	ingestSvc := service.NewIngestService(store.TokenRepository, store.PaymentMintRepository, store.RentalEventRepository, market)

	// Initialize Security
	issuer := security.NewTokenIssuer(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	verifier := security.NewKeyVerifier(cfg.IngestKeyHashes())

	// Set up HTTP server
	handler := httpapi.NewHandler(browseSvc, manageSvc, ingestSvc, issuer, verifier, store)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler, issuer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up gRPC health server
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := grpcapi.NewServer(issuer, store)
	go grpcServer.WatchHealth(ctx, 15*time.Second)

	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.Stop()
	logger.Info("Server stopped")
}

// newCaches uses Redis when an address is configured so several replicas
// share one read cache. Otherwise each process caches in memory.
func newCaches(ctx context.Context, cfg *config.Config) (cache.Cache[[]domain.TokenRecord], cache.Cache[domain.PaymentMints], func()) {
	if cfg.Redis.Addr == "" {
		logger.Info("Using in-memory read cache", "ttl_seconds", cfg.Cache.TTLSeconds)
		return cache.NewMemoryCache[[]domain.TokenRecord](), cache.NewMemoryCache[domain.PaymentMints](), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	logger.Info("Using redis read cache", "addr", cfg.Redis.Addr, "ttl_seconds", cfg.Cache.TTLSeconds)

	return cache.NewRedisCacheFromClient[[]domain.TokenRecord](client, cfg.Redis.KeyPrefix),
		cache.NewRedisCacheFromClient[domain.PaymentMints](client, cfg.Redis.KeyPrefix),
		func() { client.Close() }
}
