package di

import (
	"context"
	"fmt"
	"time"

	"AethFlow/internal/domain/repository"
	"AethFlow/internal/handler/api"
	internalrepo "AethFlow/internal/repository"
	"AethFlow/internal/registry"
	"AethFlow/internal/service/metrics"
	"AethFlow/internal/usecase"
	pkgcache "AethFlow/pkg/cache"
	pkgch "AethFlow/pkg/clickhouse"
	"AethFlow/pkg/config"
	xhttp "AethFlow/pkg/http"
	pkgkafka "AethFlow/pkg/kafka"
	applogger "AethFlow/pkg/logger"
	"AethFlow/pkg/queue"
	"AethFlow/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistryCache creates the cache backend the job registry runs on.
func ProvideRegistryCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Registry.Backend == "redis" {
		c, err := pkgcache.NewRedisCache(
			pkgcache.WithAddr(cfg.Registry.Redis.Host, cfg.Registry.Redis.Port),
			pkgcache.WithCredentials(cfg.Registry.Redis.Password, cfg.Registry.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return pkgcache.NewMemoryCache(), nil
}

// ProvideJobRegistry creates the job registry.
func ProvideJobRegistry(c pkgcache.Service, cfg *config.Config) repository.JobRegistry {
	return registry.New(c, cfg.Registry.TTL)
}

// ProvideFileStore creates local storage for uploads and results.
func ProvideFileStore(cfg *config.Config) (repository.FileStore, error) {
	return internalrepo.NewLocalFileStore(cfg.Storage.UploadDir, cfg.Storage.ResultsDir)
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.NewPipelineMetrics()
}

// ProvideRecordArchive creates the ClickHouse archive, or nil when
// archiving is disabled.
func ProvideRecordArchive(cfg *config.Config, l *applogger.Logger) (repository.RecordArchive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	ch := cfg.Archive.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS aethflow",
		`CREATE TABLE IF NOT EXISTS aethflow.processed_records (
            job_id String,
            wavelength String,
            ts DateTime,
            raw_bc Nullable(Float64),
            processed_bc Nullable(Float64),
            atn Nullable(Float64)
        ) ENGINE=MergeTree ORDER BY (job_id, ts)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	arch := internalrepo.NewCHRecordArchive(client)
	arch.SetLogger(l)
	return arch, nil
}

// ProvideEventPublisher creates the Kafka job event publisher, or nil when
// events are disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	k := cfg.Events.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithBatchSize(k.BatchSize),
		pkgkafka.WithBatchBytes(k.BatchBytes),
		pkgkafka.WithBatchTimeout(k.Linger),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.ReadTimeout),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithAsync(k.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, k.Topic), nil
}

// ProvidePipeline creates the processing pipeline.
func ProvidePipeline(
	jobs repository.JobRegistry,
	files repository.FileStore,
	archive repository.RecordArchive,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	return usecase.NewPipeline(jobs, files, archive, events, m, l, usecase.PipelineConfig{
		ChunkSize:     cfg.Processing.ChunkSize,
		JoinTolerance: cfg.Processing.JoinTolerance,
		ProgressEvery: cfg.Processing.ProgressEvery,
	})
}

// ProvideDispatcher creates the worker pool with the processing job
// registered.
func ProvideDispatcher(cfg *config.Config, l *applogger.Logger, p *usecase.Pipeline) *queue.Dispatcher {
	d := queue.NewDispatcher(
		queue.QueueConfig{Workers: cfg.Queue.Workers, QueueSize: cfg.Queue.QueueSize},
		queue.WithErrorHandler(func(msg queue.Message, err error) {
			l.Error("queue job failed",
				applogger.String("type", msg.Type),
				applogger.Error(err),
			)
		}),
	)
	d.RegisterJob(usecase.NewProcessJob(p))
	return d
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	d *queue.Dispatcher,
	jobs repository.JobRegistry,
	files repository.FileStore,
) xhttp.Handler {
	return api.NewProcessEchoHandler(l, d, jobs, files)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	d *queue.Dispatcher,
	handler xhttp.Handler,
	archive repository.RecordArchive,
	events repository.EventPublisher,
	c pkgcache.Service,
) *server.App {
	app := server.New(cfg, l, d, handler, archive, events)
	switch backend := c.(type) {
	case *pkgcache.MemoryCache:
		app.SetCacheCloser(backend.Close)
	case *pkgcache.RedisCache:
		app.SetCacheCloser(func() { _ = backend.Close() })
	}
	return app
}
