package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	"dormitory-backend/config"
	"dormitory-backend/internal/api"
	"dormitory-backend/internal/db"
	"dormitory-backend/internal/guard"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/notification"
	"dormitory-backend/internal/occupancy"
	"dormitory-backend/internal/registry"
	"dormitory-backend/internal/search"
	"dormitory-backend/internal/stats"
	"dormitory-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "dormitory-backend ", log.LstdFlags)

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml"
	}
	configPath := flag.StringP("config", "c", defaultPath, "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", *configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", *configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Printf("database initialized successfully (%s)", cfg.Database.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	locker, closeLocker, err := newLocker(ctx, cfg.Locking)
	if err != nil {
		logger.Fatalf("failed to initialize %s locker: %v", cfg.Locking.Backend, err)
	}
	defer closeLocker()
	logger.Printf("using %s locker", cfg.Locking.Backend)
	if cfg.Locking.Backend != "memory" {
		logger.Printf("room state cache disabled: ledger is shared through the %s locker", cfg.Locking.Backend)
	}

	engineOpts := []occupancy.Option{
		occupancy.WithSingleActiveTenancy(*cfg.Occupancy.SingleActiveTenancy),
		occupancy.WithCacheTTL(cfg.Occupancy.CacheTTL),
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Fatalf("push.enabled is set but VAPID keys are missing. Please generate them and add them to your config file.")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		engineOpts = append(engineOpts, occupancy.WithNotifier(pool))
		logger.Printf("vacancy notifications enabled with %d workers", cfg.WorkerPool.Size)
	}

	handler := api.NewHandler(api.Services{
		Store:    appStore,
		Registry: registry.New(appStore, locker),
		Guards:   guard.New(appStore, locker),
		Engine:   occupancy.NewEngine(appStore, locker, engineOpts...),
		Stats:    stats.New(appStore),
		Search:   search.New(appStore),
	}, webpushOptions)

	router := api.NewRouter(handler, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

// newLocker builds the configured lock backend. The returned func releases
// its resources.
func newLocker(ctx context.Context, cfg config.LockingConfig) (lock.Locker, func(), error) {
	switch cfg.Backend {
	case "memory":
		return lock.NewKeyedMutex(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
		}
		return lock.NewRedisLocker(client, cfg.TTL), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown locking backend %q", cfg.Backend)
	}
}
