package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app"
	appoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/app/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/broker/kafka"
	redisstore "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/cache/redis"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/config"
	mongostore "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/db/mongo"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/fixtures"
	ginserver "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/http/gin"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/inbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/obs"
	infraoutbox "github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/outbox"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/payments"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/storage/memory"
	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	rt, err := buildRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer rt.close()

	fixturesPath := cfg.ListingsFixtures
	if fixturesPath == "" {
		fixturesPath = fixtures.DefaultPath()
	}
	if _, err := fixtures.LoadListings(ctx, rt.deps.UoWFactory, fixturesPath, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	application := app.New(rt.deps)
	handlers := ginserver.Handlers{
		Orders:         ginserver.OrderHandler{Commands: application.Commands, Queries: application.Queries},
		Admin:          ginserver.AdminHandler{Commands: application.Commands, Queries: application.Queries},
		Cart:           ginserver.CartHandler{Commands: application.Commands, Queries: application.Queries},
		Notifications:  ginserver.NotificationHandler{Commands: application.Commands, Queries: application.Queries},
		Listings:       ginserver.ListingHandler{Queries: application.Queries},
		AuthMiddleware: ginserver.AuthMiddleware{Secret: []byte(cfg.JWTSecret), Logger: logger}.Handle,
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Checks:  rt.checks,
		Timeout: 2 * time.Second,
	}, handlers)

	var wg sync.WaitGroup
	for name, run := range rt.background {
		wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background task stopped", "task", name, "error", err)
			}
		}(name, run)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "kafka", cfg.UseKafka())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
		wg.Wait()
		os.Exit(1)
	}
	wg.Wait()
	logger.Info("HTTP server stopped")
}

type runtime struct {
	deps       app.Deps
	checks     map[string]obs.Check
	background map[string]func(context.Context) error
	closers    []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	dispatcher := appoutbox.NewDispatcher()
	rt := &runtime{
		deps: app.Deps{
			Dispatcher: dispatcher,
			Validator:  validation.New(),
			Payments:   payments.Simulated{Logger: logger.With("component", "payments")},
			Logger:     logger,
		},
		checks:     map[string]obs.Check{},
		background: map[string]func(context.Context) error{},
	}

	switch cfg.StorageDriver {
	case config.StorageMongo:
		if err := rt.wireMongo(ctx, cfg, dispatcher, logger); err != nil {
			rt.close()
			return nil, err
		}
	default:
		box := memory.NewOutbox(dispatcher)
		rt.deps.UoWFactory = memory.Factory{Store: memory.NewStore(), Outbox: box}
		rt.deps.Outbox = box
		if rt.deps.Idempotency == nil {
			rt.deps.Idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		}
	}

	if cfg.RedisAddr != "" {
		client := redisstore.NewClient(cfg.RedisAddr)
		store := redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		rt.deps.Idempotency = store
		rt.checks["redis"] = store.Ping
		rt.closers = append(rt.closers, func() { _ = client.Close() })
	}
	return rt, nil
}

func (rt *runtime) wireMongo(ctx context.Context, cfg config.Config, dispatcher *appoutbox.Dispatcher, logger *slog.Logger) error {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
	})
	rt.checks["mongo"] = client.Ping
	if err := client.EnsureIndexes(ctx); err != nil {
		return err
	}

	rt.deps.UoWFactory = mongostore.NewFactory(client.DB)
	outboxStore, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return err
	}
	rt.deps.Outbox = outboxStore

	idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return err
	}
	rt.deps.Idempotency = idem

	worker := &infraoutbox.Worker{
		Queue:       outboxStore,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		ID:          workerID(),
		Backoff:     cfg.RetryBackoff,
		Logger:      logger.With("component", "outbox"),
	}
	if !cfg.UseKafka() {
		worker.Publisher = infraoutbox.LocalPublisher{Dispatcher: dispatcher}
		rt.background["outbox"] = worker.Run
		return nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("rentals-outbox"))
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, func() { _ = producer.Close() })
	worker.Publisher = producer
	rt.background["outbox"] = worker.Run

	consumerInbox, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		return err
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kafka.NewConfig(cfg.KafkaGroupID), kafka.DispatchHandler{
		Dispatcher: dispatcher,
		Inbox:      consumerInbox,
		Logger:     logger.With("component", "kafka-consumer"),
	}, logger)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, func() { _ = consumer.Close() })
	// Subscriptions are registered by app.New, so topics are resolved when the consumer starts.
	rt.background["kafka-consumer"] = func(ctx context.Context) error {
		return consumer.Run(ctx, topicsFor(cfg.KafkaTopicPrefix, dispatcher.Names()))
	}
	return nil
}

// topicsFor lists the distinct topics carrying the subscribed event names.
func topicsFor(prefix string, names []string) []string {
	if len(names) == 0 {
		names = []string{"order.requested"}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, name := range names {
		topic := infraoutbox.TopicFor(prefix, name)
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		out = append(out, topic)
	}
	return out
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = "rentals"
	}
	return host + "-" + uuid.NewString()[:8]
}
