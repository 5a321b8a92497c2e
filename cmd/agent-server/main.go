// cmd/agent-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"voice-agent-workers/internal/api"
	"voice-agent-workers/internal/chat"
	awsclient "voice-agent-workers/internal/common/aws"
	"voice-agent-workers/internal/common/camunda"
	"voice-agent-workers/internal/common/config"
	"voice-agent-workers/internal/common/database"
	"voice-agent-workers/internal/common/llm"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/common/messaging"
	"voice-agent-workers/internal/common/observability"
	"voice-agent-workers/internal/conversation/intent"
	"voice-agent-workers/internal/conversation/persona"
	"voice-agent-workers/internal/conversation/pipeline"
	"voice-agent-workers/internal/conversation/synthesis"
	"voice-agent-workers/internal/store"
	"voice-agent-workers/internal/tools/builtin"
	pm "voice-agent-workers/internal/workers/conversation/process-message"
)

const historyCacheTTL = 24 * time.Hour

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		zapLog = logger.New("info", "json")
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting agent server", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs, err := observability.New(cfg.Observability, prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	convStore := store.NewPostgresStore(pg.DB)
	if err := convStore.Migrate(ctx); err != nil {
		zapLog.Fatal("migrations failed", zap.Error(err))
	}
	log.Info("PostgreSQL connected and migrated", nil)

	// --- Redis ---
	redisClient := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected", nil)

	checks := map[string]api.Checker{"postgres": pg, "redis": redisClient}
	deps := builtin.Dependencies{DB: pg.DB, Redis: redisClient.Client}

	// --- Optional tool backends ---
	if cfg.Tools.Tickets.Sink == "elasticsearch" {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		deps.Search = es
		checks["elasticsearch"] = es
	}

	if cfg.Tools.Email.Provider == "ses" {
		if deps.SES, err = awsclient.NewSESClient(ctx, cfg.Integrations.AWS.Region); err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
	}
	if cfg.Tools.Handoff.Notifier == "sns" {
		if deps.SNS, err = awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region); err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
	}
	if cfg.Tools.Handoff.Notifier == "rabbitmq" {
		var pub *messaging.Publisher
		err = retryWithBackoff(func() error {
			var err error
			pub, err = messaging.NewPublisher(cfg.Integrations.RabbitMQ.URL, cfg.Integrations.RabbitMQ.Exchange, log)
			return err
		}, 10, 2*time.Second, log, "RabbitMQ connection")
		if err != nil {
			zapLog.Fatal("rabbitmq failed after retries", zap.Error(err))
		}
		defer pub.Close()
		deps.Publisher = pub
	}

	// --- Conversation stack ---
	registry, err := builtin.NewRegistry(cfg, deps, log)
	if err != nil {
		zapLog.Fatal("tool registry init failed", zap.Error(err))
	}

	personas, err := persona.LoadCatalog(cfg.Pipeline.PersonaFile, cfg.Pipeline.DefaultPersona)
	if err != nil {
		zapLog.Fatal("persona catalog load failed", zap.Error(err))
	}

	llmClient, err := llm.New(cfg.LLM, log)
	if err != nil {
		zapLog.Fatal("llm client init failed", zap.Error(err))
	}

	controller := pipeline.NewController(
		intent.NewClassifier(llmClient, log),
		registry,
		synthesis.NewSynthesizer(llmClient, cfg.Pipeline.PromptHistory, log),
		pipeline.Options{HistoryWindow: cfg.Pipeline.HistoryWindow, Confidence: cfg.Pipeline.Confidence},
		log,
	)

	chatSvc := chat.NewService(convStore, controller, personas, log,
		chat.WithHistoryCache(store.NewHistoryCache(redisClient.Client, cfg.Pipeline.HistoryWindow, historyCacheTTL)),
		chat.WithHistoryWindow(cfg.Pipeline.HistoryWindow),
		chat.WithTurnRecorder(obs),
	)

	// --- Zeebe worker ---
	var (
		zeebe      *camunda.Client
		zeebeJobWk worker.JobWorker
	)
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, pm.TaskType) {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = healthFunc(zeebe.HealthCheck)

		wcfg := config.GetWorkerConfig(cfg, pm.TaskType)
		handler := pm.NewHandler(pm.LoadConfig(wcfg), chatSvc, log)
		zeebeJobWk = camunda.StartWorker(zeebe.Zeebe(), pm.TaskType, wcfg, handler, log)
	}

	// --- HTTP ---
	router := api.NewRouter(cfg.Server, api.Deps{
		Chat:     chatSvc,
		Store:    convStore,
		Registry: registry,
		Personas: personas,
		Checks:   checks,
	}, log)
	srv := api.NewServer(cfg.Server, router)

	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", map[string]interface{}{"signal": sig.String()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if zeebeJobWk != nil {
		zeebeJobWk.Close()
		zeebeJobWk.AwaitClose()
	}
	if zeebe != nil {
		_ = zeebe.Close()
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("observability shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("agent server stopped", nil)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Ping(ctx context.Context) error { return f(ctx) }
