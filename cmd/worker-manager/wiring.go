// cmd/worker-manager/wiring.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rfq-workers/internal/api"
	"rfq-workers/internal/cache"
	awsclients "rfq-workers/internal/common/aws"
	"rfq-workers/internal/common/camunda"
	"rfq-workers/internal/common/config"
	"rfq-workers/internal/common/database"
	httpclient "rfq-workers/internal/common/http"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/orchestrator"
	"rfq-workers/internal/repository"
	"rfq-workers/internal/search"
	"rfq-workers/pkg/registry"

	archivedocument "rfq-workers/internal/workers/rfq/archive-document"
	generateaudited "rfq-workers/internal/workers/rfq/generate-audited"
	nextstep "rfq-workers/internal/workers/rfq/next-step"
	notifydocument "rfq-workers/internal/workers/rfq/notify-document"
	refinedocument "rfq-workers/internal/workers/rfq/refine-document"
)

func newGenerator(cfg *config.Config) (generation.Generator, error) {
	client := httpclient.NewClient(config.GetDuration(cfg.Generation.Timeout) + 5*time.Second)
	return generation.New(cfg.Generation.Provider, cfg.Generation.BaseURL, client)
}

// infrastructure holds the optional backing services. Nil fields are not configured.
type infrastructure struct {
	postgres *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient

	documents *repository.DocumentRepository
	index     *search.DocumentIndex
	cache     *cache.DocumentCache
}

func connectInfrastructure(ctx context.Context, cfg *config.Config, log logger.Logger) (*infrastructure, error) {
	deps := &infrastructure{}
	retry := &camunda.RetryConfig{MaxRetries: 15, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}

	if cfg.Database.Postgres.Configured() {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		err = camunda.Retry(ctx, retry, pg.Ping, onRetry(log, "PostgreSQL connection"))
		if err != nil {
			pg.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		deps.postgres = pg
		deps.documents = repository.NewDocumentRepository(pg.DB, log)
		if err := deps.documents.EnsureSchema(ctx); err != nil {
			deps.Close()
			return nil, err
		}
		log.Info("PostgreSQL connected successfully", nil)
	}

	if cfg.Database.Elasticsearch.GetURL() != "" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			deps.Close()
			return nil, err
		}
		err = camunda.Retry(ctx, retry, es.Ping, onRetry(log, "Elasticsearch connection"))
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		index := cfg.Database.Elasticsearch.Index
		if err := es.EnsureIndex(ctx, index, search.Mapping); err != nil {
			deps.Close()
			return nil, err
		}
		deps.es = es
		deps.index = search.NewDocumentIndex(es.Client, index, log)
		log.Info("Elasticsearch connected successfully", map[string]interface{}{"index": index})
	}

	if cfg.Cache.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		retry := &camunda.RetryConfig{MaxRetries: 10, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
		if err := camunda.Retry(ctx, retry, rdb.Ping, onRetry(log, "Redis connection")); err != nil {
			rdb.Close()
			deps.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		deps.redis = rdb
		deps.cache = cache.New(rdb.Client, time.Duration(cfg.Cache.TTL)*time.Second, log)
		log.Info("Redis connected successfully", nil)
	}

	return deps, nil
}

func onRetry(log logger.Logger, operation string) func(int, error, time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		log.Warn(operation+" failed, retrying...", map[string]interface{}{
			"attempt":     attempt,
			"error":       err,
			"nextRetryIn": delay.String(),
		})
	}
}

func (d *infrastructure) Close() {
	if d.postgres != nil {
		d.postgres.Close()
	}
	if d.redis != nil {
		d.redis.Close()
	}
}

// auditedGenerator wraps engine with the document cache when one is configured.
func (d *infrastructure) auditedGenerator(engine *orchestrator.Engine, log logger.Logger) *cache.AuditedGenerator {
	var store cache.Store
	if d.cache != nil {
		store = d.cache
	}
	return cache.NewAuditedGenerator(engine, store, engine.Config().Kind, log)
}

func (d *infrastructure) apiServer(engine *orchestrator.Engine, log logger.Logger) *api.Server {
	s := &api.Server{Engine: engine, Documents: d.auditedGenerator(engine, log), Logger: log}
	if d.documents != nil {
		s.Store = d.documents
	}
	if d.index != nil {
		s.Search = d.index
	}
	return s
}

func registerWorkers(ctx context.Context, zeebe *camunda.Client, cfg *config.Config, engine *orchestrator.Engine,
	deps *infrastructure, obs *observability.Observability, log logger.Logger) ([]worker.JobWorker, error) {

	configured := make([]string, 0, len(cfg.Workers))
	for name := range cfg.Workers {
		configured = append(configured, name)
	}
	if unknown := registry.Default().Unknown(configured); len(unknown) > 0 {
		log.Warn("workers config names unknown task types", map[string]interface{}{
			"taskTypes": unknown,
		})
	}

	var workers []worker.JobWorker
	start := func(taskType string, handler camunda.HandlerFunc, timeout *time.Duration) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if wcfg.Timeout > 0 {
			*timeout = config.GetDuration(wcfg.Timeout)
		}
		if w := camunda.StartWorker(zeebe.Raw(), taskType, wcfg, handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	nsCfg := nextstep.LoadConfig()
	start(nextstep.TaskType, nextstep.NewHandler(nsCfg, engine, log).Handle, &nsCfg.Timeout)

	gaCfg := generateaudited.LoadConfig()
	start(generateaudited.TaskType, generateaudited.NewHandler(gaCfg, deps.auditedGenerator(engine, log), log).Handle, &gaCfg.Timeout)

	rdCfg := refinedocument.LoadConfig()
	start(refinedocument.TaskType, refinedocument.NewHandler(rdCfg, engine, log).Handle, &rdCfg.Timeout)

	if deps.documents != nil {
		adCfg := archivedocument.LoadConfig()
		var index archivedocument.Index
		if deps.index != nil {
			index = deps.index
		}
		start(archivedocument.TaskType, archivedocument.NewHandler(adCfg, deps.documents, index, log).Handle, &adCfg.Timeout)
	} else {
		log.Info("archive database not configured, archive worker not started", map[string]interface{}{
			"taskType": archivedocument.TaskType,
		})
	}

	ndCfg := notifydocument.ConfigFrom(cfg)
	var sesClient notifydocument.SESService
	var snsClient notifydocument.SNSService
	if ndCfg.EmailEnabled || ndCfg.SMSEnabled {
		notifiers, err := awsclients.NewNotifiers(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return workers, err
		}
		sesClient, snsClient = notifiers.SES, notifiers.SNS
	}
	start(notifydocument.TaskType, notifydocument.NewHandler(ndCfg, sesClient, snsClient, log).Handle, &ndCfg.Timeout)

	return workers, nil
}

// registerOps mounts health, readiness, Prometheus metrics and the activity registry.
func registerOps(router *gin.Engine, cfg *config.Config, deps *infrastructure, zeebe *camunda.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		probe := func(name string, ping func(context.Context) error) {
			if err := ping(ctx); err != nil {
				checks[name] = err.Error()
				ready = false
				return
			}
			checks[name] = "ok"
		}
		if deps.postgres != nil {
			probe("postgres", deps.postgres.Ping)
		}
		if deps.redis != nil {
			probe("redis", deps.redis.Ping)
		}
		if deps.es != nil {
			probe("elasticsearch", deps.es.Ping)
		}
		if zeebe != nil {
			probe("zeebe", zeebe.HealthCheck)
		}

		status, state := http.StatusOK, "ready"
		if !ready {
			status, state = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/v1/activities", func(c *gin.Context) {
		c.JSON(http.StatusOK, registry.Default())
	})
}
