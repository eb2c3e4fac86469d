// The server binary is the webhook gateway: it receives ServiceNow
// events, verifies and deduplicates them, and publishes them onto the
// ticket event bus for the worker.
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

	"cloud.google.com/go/pubsub"
	"github.com/redis/go-redis/v9"

	"github.com/ticketwise-io/ticketwise/internal/config"
	"github.com/ticketwise-io/ticketwise/internal/gateway"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs"
	}
	config.MustLoad(configPath)
	cfg := config.Get()

	logger := log.New(os.Stdout, "[gateway] ", log.LstdFlags)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Dedup fails open, so a dead redis degrades rather than blocks.
		logger.Printf("redis unreachable, deduplication disabled: %v", err)
	}
	cancelPing()

	psClient, err := pubsub.NewClient(context.Background(), cfg.PubSub.ProjectID)
	if err != nil {
		logger.Fatalf("failed to create pubsub client: %v", err)
	}
	defer psClient.Close()

	publisher := gateway.NewPubSubPublisher(
		psClient, cfg.PubSub.TopicID,
		cfg.PubSub.MaxRetries, cfg.PubSub.PublishTimeout, logger)
	defer publisher.Stop()

	srv := gateway.NewServer(cfg, rdb, publisher, logger)

	httpSrv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Printf("gateway listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("shutting down gateway...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Printf("forced shutdown: %v", err)
	}
	logger.Println("gateway stopped")
}
