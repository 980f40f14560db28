// cmd/worker-manager/main.go
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
	"go.uber.org/zap"

	"cx-agent-builder/internal/api"
	"cx-agent-builder/internal/cache"
	cxaws "cx-agent-builder/internal/common/aws"
	"cx-agent-builder/internal/common/camunda"
	"cx-agent-builder/internal/common/config"
	apperrors "cx-agent-builder/internal/common/errors"
	"cx-agent-builder/internal/common/database"
	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/common/observability"
	"cx-agent-builder/internal/merge"
	"cx-agent-builder/internal/notify"
	"cx-agent-builder/internal/pipeline"
	"cx-agent-builder/internal/search"
	"cx-agent-builder/internal/service"
	"cx-agent-builder/internal/store"
	"cx-agent-builder/pkg/registry"

	ar "cx-agent-builder/internal/workers/meta-agent/analyze-request"
	cac "cx-agent-builder/internal/workers/meta-agent/create-agent-config"
	cf "cx-agent-builder/internal/workers/meta-agent/create-functions"
	mc "cx-agent-builder/internal/workers/meta-agent/merge-config"
	nac "cx-agent-builder/internal/workers/meta-agent/notify-agent-created"
	pa "cx-agent-builder/internal/workers/meta-agent/persist-agent"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting cx-agent-builder",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("generationMode", cfg.LLM.Mode()),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	deps := service.Dependencies{}
	checks := readinessChecks{}

	// --- PostgreSQL ---
	var repo *store.AgentRepository
	if cfg.Database.Postgres.Enabled() {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			stdErr := apperrors.NewDatabaseConnectionFailedError(err)
			zapLog.Warn("postgres unavailable, agents will not be stored",
				zap.String("errorCode", string(stdErr.Code)), zap.Error(err))
		} else {
			defer pg.Close()
			if err := pg.Migrate(ctx, store.Migrations...); err != nil {
				zapLog.Fatal("postgres migration failed", zap.Error(err))
			}
			repo = store.NewAgentRepository(pg.GetDB())
			deps.Repo = repo
			checks["postgres"] = func(ctx context.Context) error {
				if err := pg.Ping(ctx); err != nil {
					return apperrors.NewDatabaseConnectionFailedError(err)
				}
				return nil
			}
			zapLog.Info("PostgreSQL connected successfully")
		}
	}

	// --- Elasticsearch ---
	var indexer *search.Indexer
	if cfg.Database.Elasticsearch.Enabled() {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			stdErr := apperrors.NewElasticsearchConnectionFailedError(err)
			zapLog.Warn("elasticsearch unavailable, search disabled",
				zap.String("errorCode", string(stdErr.Code)), zap.Error(err))
		} else {
			indexer = search.NewIndexer(esClient.Client, cfg.Search.Index, log)
			if err := indexer.EnsureIndex(ctx); err != nil {
				zapLog.Warn("could not prepare search index", zap.Error(err))
			}
			deps.Indexer = indexer
			checks["elasticsearch"] = func(ctx context.Context) error {
				if err := esClient.Ping(ctx); err != nil {
					return apperrors.NewElasticsearchConnectionFailedError(err)
				}
				return nil
			}
			zapLog.Info("Elasticsearch connected successfully", zap.String("index", indexer.IndexName()))
		}
	}

	// --- Redis ---
	if cfg.Cache.Enabled && cfg.Database.Redis.Enabled() {
		redisClient := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			stdErr := apperrors.NewCacheFailedError(err)
			zapLog.Warn("redis unavailable, response cache disabled",
				zap.String("errorCode", string(stdErr.Code)), zap.Error(err))
			_ = redisClient.Close()
		} else {
			defer redisClient.Close()
			deps.Cache = cache.NewResponseCache(redisClient.Cmdable(), time.Duration(cfg.Cache.TTL)*time.Second, log)
			checks["redis"] = func(ctx context.Context) error {
				if err := redisClient.Ping(ctx); err != nil {
					return apperrors.NewCacheFailedError(err)
				}
				return nil
			}
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- AWS notifications ---
	var publisher *notify.Publisher
	awsCfg := cfg.Integrations.AWS
	if awsCfg.SES.Enabled || awsCfg.SNS.Enabled {
		sdkCfg, err := cxaws.LoadConfig(ctx, awsCfg.Region)
		if err != nil {
			zapLog.Warn("aws config unavailable, notifications disabled", zap.Error(err))
		} else {
			var snsClient cxaws.SNSAPI
			var sesClient cxaws.SESAPI
			if awsCfg.SNS.Enabled {
				snsClient = cxaws.NewSNSClient(sdkCfg)
			}
			if awsCfg.SES.Enabled {
				sesClient = cxaws.NewSESClient(sdkCfg)
			}
			publisher = notify.NewPublisher(notify.Config{
				TopicArn:  awsCfg.SNS.TopicArn,
				FromEmail: awsCfg.SES.FromEmail,
			}, snsClient, sesClient, log)
			deps.Notifier = publisher
			zapLog.Info("AWS notification clients initialized",
				zap.Bool("sns", publisher.EventsEnabled()),
				zap.Bool("ses", publisher.MailEnabled()),
			)
		}
	}

	// --- Generation pipeline ---
	strategy := pipeline.NewStrategy(cfg.LLM, log)
	merger := merge.NewMerger()
	pl := pipeline.New(strategy,
		pipeline.WithMerger(merger),
		pipeline.WithLogger(log),
		pipeline.WithTracer(obs.Tracer()),
	)
	agentService := service.NewAgentService(pl, deps, log)

	// --- Zeebe workers ---
	configured := make([]string, 0, len(cfg.Workers))
	for taskType := range cfg.Workers {
		configured = append(configured, taskType)
	}
	if unknown := registry.Default().Unknown(configured); len(unknown) > 0 {
		zapLog.Warn("configured workers without a registered activity", zap.Strings("taskTypes", unknown))
	}

	var zeebe *camunda.Client
	var jobWorkers []worker.JobWorker
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      millis(cfg.Camunda.RequestTimeout),
		}, log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		jobWorkers = registerWorkers(zeebe, cfg, strategy, merger, repo, indexer, publisher, log)
		checks["camunda"] = zeebe.HealthCheck
		zapLog.Info("workers registered", zap.Int("count", len(jobWorkers)))
	}

	// --- Public API ---
	apiServer := api.NewServer(agentService, api.Options{
		Version: cfg.App.Version,
		Logger:  log,
	})
	httpServer := api.NewHTTPServer(cfg.Server.Address, apiServer.Handler(),
		millis(cfg.Server.ReadTimeout), millis(cfg.Server.WriteTimeout))
	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Health & Metrics Server ---
	opsServer := &http.Server{Addr: cfg.Server.OpsAddress, Handler: opsMux(checks), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.OpsAddress))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), millis(cfg.Server.ShutdownTimeout))
	defer cancel()

	for _, jw := range jobWorkers {
		jw.Close()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping API server", zap.Error(err))
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("cx-agent-builder stopped gracefully")
}

func registerWorkers(
	zeebe *camunda.Client,
	cfg *config.Config,
	strategy pipeline.Strategy,
	merger *merge.Merger,
	repo *store.AgentRepository,
	indexer *search.Indexer,
	publisher *notify.Publisher,
	log logger.Logger,
) []worker.JobWorker {
	client := zeebe.GetClient()
	var started []worker.JobWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if jw := camunda.StartWorker(client, taskType, cfg.Workers[taskType], handler, log); jw != nil {
			started = append(started, jw)
		}
	}

	if cfg.Workers[ar.TaskType].Enabled {
		handler := ar.NewHandler(
			&ar.Config{Timeout: millis(cfg.Workers[ar.TaskType].Timeout)},
			strategy, log,
		)
		start(ar.TaskType, handler)
	}

	if cfg.Workers[cac.TaskType].Enabled {
		handler := cac.NewHandler(
			&cac.Config{Timeout: millis(cfg.Workers[cac.TaskType].Timeout)},
			strategy, log,
		)
		start(cac.TaskType, handler)
	}

	if cfg.Workers[cf.TaskType].Enabled {
		handler := cf.NewHandler(
			&cf.Config{Timeout: millis(cfg.Workers[cf.TaskType].Timeout)},
			strategy, log,
		)
		start(cf.TaskType, handler)
	}

	if cfg.Workers[mc.TaskType].Enabled {
		handler := mc.NewHandler(
			&mc.Config{Timeout: millis(cfg.Workers[mc.TaskType].Timeout)},
			merger, log,
		)
		start(mc.TaskType, handler)
	}

	if cfg.Workers[pa.TaskType].Enabled {
		if repo == nil {
			log.Warn("persist-agent enabled without postgres, not started", nil)
		} else {
			var agentIndexer pa.AgentIndexer
			if indexer != nil {
				agentIndexer = indexer
			}
			handler := pa.NewHandler(
				&pa.Config{
					Timeout:      millis(cfg.Workers[pa.TaskType].Timeout),
					RequireIndex: cfg.Search.RequireIndex,
				},
				repo, agentIndexer, log,
			)
			start(pa.TaskType, handler)
		}
	}

	if cfg.Workers[nac.TaskType].Enabled {
		if publisher == nil {
			log.Warn("notify-agent-created enabled without aws clients, not started", nil)
		} else {
			handler := nac.NewHandler(
				&nac.Config{Timeout: millis(cfg.Workers[nac.TaskType].Timeout)},
				publisher, log,
			)
			start(nac.TaskType, handler)
		}
	}

	return started
}
