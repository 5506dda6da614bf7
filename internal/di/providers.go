package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	drepo "pendlescope/internal/domain/repository"
	"pendlescope/internal/handler/api"
	internalrepo "pendlescope/internal/repository"
	sigmetrics "pendlescope/internal/service/metrics"
	"pendlescope/internal/service/pendle"
	"pendlescope/internal/stream"
	"pendlescope/internal/usecase"
	pkgcache "pendlescope/pkg/cache"
	pkgch "pendlescope/pkg/clickhouse"
	"pendlescope/pkg/config"
	xhttp "pendlescope/pkg/http"
	pkgkafka "pendlescope/pkg/kafka"
	applogger "pendlescope/pkg/logger"
	pkgmetrics "pendlescope/pkg/metrics"
	"pendlescope/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if cfg.Logging.Rotation.Enabled {
		lc.Rotation = &applogger.RotationConfig{
			MaxSizeMB:  cfg.Logging.Rotation.MaxSizeMB,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			MaxAgeDays: cfg.Logging.Rotation.MaxAgeDays,
			Compress:   cfg.Logging.Rotation.Compress,
		}
	}
	l, err := applogger.New(lc)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus recorder and registers the
// signal vecs.
func ProvideMetrics() drepo.Metrics {
	sigmetrics.Register()
	return pkgmetrics.New()
}

// ProvideMarketSource creates the Pendle API client.
func ProvideMarketSource(cfg *config.Config, l *applogger.Logger) (drepo.MarketSource, error) {
	return pendle.New(pendle.Config{
		BaseURLs:       cfg.Pendle.BaseURLs,
		RequestTimeout: cfg.Pendle.RequestTimeout,
		RetryAttempts:  cfg.Pendle.RetryAttempts,
		RateRPS:        cfg.Pendle.RateRPS,
		RateBurst:      cfg.Pendle.RateBurst,
	}, l)
}

// ProvideHistoryStore creates the ClickHouse-backed history store, or nil
// when persistence is disabled.
func ProvideHistoryStore(cfg *config.Config, l *applogger.Logger) (drepo.HistoryStore, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHHistoryStore(client, l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideCache creates the merged-series hot cache: a memory+Redis
// layered cache when Redis is configured, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitHostPort(cfg.Redis.Addr, 6379)
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

func splitHostPort(addr string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}

// ProvideSignalPublisher creates the Kafka signal-event publisher, or nil
// when the topic is disabled.
func ProvideSignalPublisher(cfg *config.Config) (drepo.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideHub creates the WebSocket broadcast hub.
func ProvideHub(l *applogger.Logger) *stream.Hub {
	return stream.NewHub(l)
}

// ProvideHistoryUseCase wires the merge-on-read history service.
func ProvideHistoryUseCase(
	source drepo.MarketSource,
	store drepo.HistoryStore,
	c pkgcache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(
		source, store, c,
		cfg.History.MaxDays, cfg.History.Freshness, cfg.History.CacheTTL,
		l,
	)
}

// ProvideAnalyzer wires the analysis orchestrator.
func ProvideAnalyzer(history *usecase.HistoryUseCase, cfg *config.Config, l *applogger.Logger) *usecase.Analyzer {
	return usecase.NewAnalyzer(history, cfg.Analysis.ProtocolAPYs, cfg.Analysis.BatchWorkers, l)
}

// ProvideRefresher wires the periodic refresh loop.
func ProvideRefresher(
	source drepo.MarketSource,
	analyzer *usecase.Analyzer,
	publisher drepo.SignalPublisher,
	hub *stream.Hub,
	metrics drepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Refresher {
	return usecase.NewRefresher(
		source, analyzer, publisher, hub, metrics,
		cfg.Pendle.Chains, cfg.Pendle.RefreshInterval, l,
	)
}

// compositeHandler registers several route groups on one server.
type compositeHandler []xhttp.Handler

func (h compositeHandler) RegisterRoutes(e *echo.Echo) {
	for _, sub := range h {
		sub.RegisterRoutes(e)
	}
}

// ProvideHTTPHandler assembles the API surface.
func ProvideHTTPHandler(
	l *applogger.Logger,
	refresher *usecase.Refresher,
	history *usecase.HistoryUseCase,
	hub *stream.Hub,
	store drepo.HistoryStore,
) xhttp.Handler {
	return compositeHandler{
		api.NewMarketsHandler(l, refresher, history, hub, store),
		api.NewCalculatorsHandler(l),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	refresher *usecase.Refresher,
	handler xhttp.Handler,
	store drepo.HistoryStore,
	publisher drepo.SignalPublisher,
	hub *stream.Hub,
) *server.App {
	return server.New(cfg, l, refresher, handler, store, publisher, hub)
}
