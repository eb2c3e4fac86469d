// The worker binary consumes ticket events from the bus push
// subscription, runs the assignment pipeline and hosts the scheduled
// review sweeps.
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

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"

	"github.com/ticketwise-io/ticketwise/internal/assignment"
	"github.com/ticketwise-io/ticketwise/internal/config"
	"github.com/ticketwise-io/ticketwise/internal/directory"
	"github.com/ticketwise-io/ticketwise/internal/holiday"
	"github.com/ticketwise-io/ticketwise/internal/models"
	"github.com/ticketwise-io/ticketwise/internal/notifications"
	"github.com/ticketwise-io/ticketwise/internal/repository"
	"github.com/ticketwise-io/ticketwise/internal/similarity"
	"github.com/ticketwise-io/ticketwise/internal/skills"
	"github.com/ticketwise-io/ticketwise/internal/sweeper"
	"github.com/ticketwise-io/ticketwise/internal/worker"
	"github.com/ticketwise-io/ticketwise/internal/workload"
)

// dataOracle combines the member directory and the runtime snapshot
// loader into the engine's batched data layer.
type dataOracle struct {
	members *directory.Service
	runtime *workload.Service
}

func (o dataOracle) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	return o.members.ListMembers(ctx)
}

func (o dataOracle) LoadRuntime(ctx context.Context, memberIDs []string, today time.Time) (map[string]*models.MemberRuntime, error) {
	return o.runtime.LoadRuntime(ctx, memberIDs, today)
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs"
	}
	config.MustLoad(configPath)
	cfg := config.Get()

	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags)
	ctx := context.Background()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var gclient *genai.Client
	if cfg.Gemini.APIKey != "" {
		gclient, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.Gemini.APIKey})
		if err != nil {
			logger.Fatalf("failed to create gemini client: %v", err)
		}
	} else {
		logger.Fatal("GEMINI_API_KEY is required: the worker cannot embed tickets without it")
	}

	holidays := holiday.NewService(db, rdb, nil, logger)
	oracle := dataOracle{
		members: directory.NewService(db, logger),
		runtime: workload.NewService(db, holidays, logger),
	}

	extractor := skills.NewGeminiExtractor(gclient, cfg.Gemini.Model, logger)
	embedder := similarity.NewGeminiEmbedder(gclient, cfg.Gemini.EmbeddingModel)
	index := similarity.NewPGVectorProvider(db, embedder,
		cfg.Engine.SimilarityTopK, cfg.Engine.SimilarityFloor, logger)

	tickets := repository.NewTicketRepository(db)
	decisions := repository.NewDecisionRepository(db)
	embeddings := repository.NewEmbeddingRepository(db)

	engine := assignment.NewEngine(oracle, extractor, nil, logger)

	sinks := []notifications.Sink{notifications.NewLogSink(logger)}
	if cfg.Notifications.Webhook.Enabled {
		sinks = append(sinks, notifications.NewWebhookSink(
			cfg.Notifications.Webhook.Endpoint,
			cfg.Notifications.Webhook.Secret,
			cfg.Notifications.Webhook.Timeout,
			cfg.Notifications.Webhook.RetryAttempts,
			logger))
	}

	pipeline := worker.NewPipeline(
		tickets, decisions, embeddings,
		embedder, index, engine, sinks, nil, logger)

	sweep := sweeper.New(decisions, holidays, sinks, nil, logger)
	if err := sweep.Start(ctx); err != nil {
		logger.Fatalf("failed to start sweeper: %v", err)
	}
	defer sweep.Stop()

	srv := worker.NewServer(cfg, pipeline, logger)

	httpSrv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Printf("worker listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("shutting down worker...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("forced shutdown: %v", err)
	}
	logger.Println("worker stopped")
}
