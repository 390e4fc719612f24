package di

import (
	"context"
	"fmt"
	"time"

	"TradeCouncil/internal/domain/models"
	"TradeCouncil/internal/domain/repository"
	handlera2a "TradeCouncil/internal/handler/a2a"
	"TradeCouncil/internal/handler/api"
	internalrepo "TradeCouncil/internal/repository"
	"TradeCouncil/internal/service/a2a"
	"TradeCouncil/internal/service/configstore"
	"TradeCouncil/internal/service/marketdata"
	"TradeCouncil/internal/service/ratelimit"
	"TradeCouncil/internal/usecase"
	"TradeCouncil/pkg/cache"
	pkgch "TradeCouncil/pkg/clickhouse"
	"TradeCouncil/pkg/config"
	xhttp "TradeCouncil/pkg/http"
	"TradeCouncil/pkg/http/middleware"
	pkgkafka "TradeCouncil/pkg/kafka"
	applogger "TradeCouncil/pkg/logger"
	"TradeCouncil/pkg/metrics"
	"TradeCouncil/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const schemaTimeout = 10 * time.Second

// ProvideLogger creates the process logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates a private Prometheus registry with the Go and
// process collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideKV returns Redis when enabled and an in-process cache otherwise.
func ProvideKV(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		l.Warn("redis disabled, config store is process-local")
		mc := cache.NewMemoryCache(cache.WithMemoryCleanup(time.Minute))
		return mc, func() { _ = mc.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	l.Info("redis connected", applogger.String("addr", cfg.RedisAddr()))
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideConfigStore creates the shared configuration store.
func ProvideConfigStore(kv cache.Service) repository.ConfigStore {
	return configstore.New(kv)
}

// ProvideMarketData creates the Yahoo Finance adapter.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketData {
	return marketdata.New(marketdata.Config{
		SearchURL: cfg.MarketData.SearchURL,
		Timeout:   cfg.MarketData.Timeout,
		RateLimit: cfg.MarketData.RateLimit,
		RateBurst: cfg.MarketData.RateBurst,
	}, l)
}

// ProvideResolver creates the ticker resolver. Resolutions are cached in
// memory in front of the shared store.
func ProvideResolver(data repository.MarketData, kv cache.Service, cfg *config.Config, l *applogger.Logger) *usecase.Resolver {
	layered := cache.NewLayeredCache(kv,
		cache.WithLayeredMemorySize(2000),
		cache.WithLayeredMemoryTTL(cfg.MarketData.CacheTTL),
	)
	return usecase.NewResolver(data,
		usecase.WithResolverCache(layered, cfg.MarketData.CacheTTL),
		usecase.WithSearchLimit(cfg.MarketData.SearchLimit),
		usecase.WithResolverLogger(l),
	)
}

// ProvidePositionSizer creates the sizing engine.
func ProvidePositionSizer(data repository.MarketData, cfg *config.Config, l *applogger.Logger) *usecase.PositionSizer {
	return usecase.NewPositionSizer(data, usecase.SizingConfig{
		AccountBalance: cfg.Risk.AccountBalance,
		RiskPerTrade:   cfg.Risk.RiskPerTrade,
		MaxExposure:    cfg.Risk.MaxExposure,
		HistoryDays:    cfg.Risk.HistoryDays,
	}, l)
}

// ProvidePeerRegistry validates the configured peers.
func ProvidePeerRegistry(cfg *config.Config) (*usecase.PeerRegistry, error) {
	peers := make([]models.Peer, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		peers = append(peers, models.Peer{
			Name:     p.Name,
			Category: p.Category,
			URL:      p.URL,
			Template: p.Template,
		})
	}
	reg, err := usecase.NewPeerRegistry(peers)
	if err != nil {
		return nil, fmt.Errorf("peer registry: %w", err)
	}
	return reg, nil
}

// ProvidePeerClient creates the outbound RPC client.
func ProvidePeerClient(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *a2a.Client {
	return a2a.NewClient(
		a2a.WithCallTimeout(cfg.Coordinator.CallTimeout),
		a2a.WithMaxResponseLength(cfg.Coordinator.MaxResponseLength),
		a2a.WithLogger(l),
		a2a.WithMetrics(m),
	)
}

// ProvideNotifier creates the reload broadcaster.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) repository.PeerNotifier {
	return a2a.NewNotifier(cfg.Coordinator.ReloadTimeout, l)
}

// ProvideFanOut creates the fan-out coordinator.
func ProvideFanOut(reg *usecase.PeerRegistry, client *a2a.Client, l *applogger.Logger) *usecase.FanOut {
	return usecase.NewFanOut(reg, client, l)
}

// ProvideDecisionConfig creates the live decision settings.
func ProvideDecisionConfig(store repository.ConfigStore, cfg *config.Config, l *applogger.Logger, m repository.Metrics) *usecase.DecisionConfig {
	return usecase.NewDecisionConfig(store,
		models.WeightConfig(cfg.Decision.Weights),
		models.ThresholdConfig{Buy: cfg.Decision.Thresholds.Buy, Sell: cfg.Decision.Thresholds.Sell},
		l, m,
	)
}

// ProvideStoredDecisionConfig is ProvideDecisionConfig followed by a load
// from the store, for one-shot commands that run no start hooks.
func ProvideStoredDecisionConfig(store repository.ConfigStore, cfg *config.Config, l *applogger.Logger, m repository.Metrics) *usecase.DecisionConfig {
	dc := ProvideDecisionConfig(store, cfg, l, m)
	timeout := cfg.Coordinator.ReloadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	dc.Reload(ctx)
	return dc
}

// ProvideDecisionPublisher creates the Kafka publisher, or nil when Kafka
// is disabled.
func ProvideDecisionPublisher(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (repository.DecisionPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
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
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("kafka producer ready", applogger.Strings("brokers", cfg.Kafka.Brokers), applogger.String("topic", cfg.Kafka.Topic))
	pub := internalrepo.NewKafkaDecisionPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideDecisionStore connects to ClickHouse and prepares the decisions
// table, or returns nil when ClickHouse is disabled.
func ProvideDecisionStore(cfg *config.Config, l *applogger.Logger) (repository.DecisionStore, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}, internalrepo.DecisionSchema(table)...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse ready", applogger.String("table", table))

	return internalrepo.NewCHDecisionStore(client.DB(), table, l), func() { _ = client.Close() }, nil
}

// ProvideCouncil wires the decision cycle.
func ProvideCouncil(
	resolver *usecase.Resolver,
	fanout *usecase.FanOut,
	sizer *usecase.PositionSizer,
	dc *usecase.DecisionConfig,
	pub repository.DecisionPublisher,
	store repository.DecisionStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Council {
	opts := []usecase.CouncilOption{
		usecase.WithCouncilMetrics(m),
		usecase.WithCouncilLogger(l),
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	if store != nil {
		opts = append(opts, usecase.WithDecisionStore(store))
	}
	return usecase.NewCouncil(resolver, fanout, sizer, dc, opts...)
}

// ProvideLimiter creates the per-client analysis limiter.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateBurst)
}

// ProvideCouncilHandler creates the orchestrator API handler.
func ProvideCouncilHandler(
	council *usecase.Council,
	store repository.ConfigStore,
	notifier repository.PeerNotifier,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
) *api.CouncilHandler {
	return api.NewCouncilHandler(council, store, notifier, limiter, l)
}

func serverOptions(cfg *config.Config, l *applogger.Logger, port int) []xhttp.ServerOption {
	return []xhttp.ServerOption{
		xhttp.WithPort(port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(l),
	}
}

// ProvideServer creates the orchestrator HTTP server.
func ProvideServer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry, h *api.CouncilHandler) *xhttp.Server {
	opts := serverOptions(cfg, l, cfg.Server.Port)
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer([]xhttp.Handler{h}, opts...)
}

// ProvideApp seeds the config store, loads the live decision settings and
// wraps the server lifecycle.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	store repository.ConfigStore,
	dc *usecase.DecisionConfig,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New("orchestrator", srv, l,
		server.WithStartHook("seed_config", seedHook(cfg, store, l)),
		server.WithStartHook("load_config", func(ctx context.Context) error {
			dc.Reload(ctx)
			return nil
		}),
		server.WithStartHook("limiter_sweeper", func(ctx context.Context) error {
			go sweep(ctx, limiter)
			return nil
		}),
	)
}

// seedHook writes defaults that are not yet in the store. Existing values
// are never overwritten.
func seedHook(cfg *config.Config, store repository.ConfigStore, l *applogger.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		prompts := make(map[string]string, len(cfg.Peers))
		for _, p := range cfg.Peers {
			prompts[p.Name] = p.Prompt
		}
		n, err := store.SeedDefaults(ctx, configstore.Defaults(
			models.WeightConfig(cfg.Decision.Weights),
			models.ThresholdConfig{Buy: cfg.Decision.Thresholds.Buy, Sell: cfg.Decision.Thresholds.Sell},
			prompts,
		))
		if err != nil {
			l.Warn("config seed failed", applogger.Error(err))
			return nil
		}
		l.Info("config seeded", applogger.Int("written", n))
		return nil
	}
}

func sweep(ctx context.Context, limiter *ratelimit.Limiter) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			limiter.Sweep()
		}
	}
}

// ProvideRiskPeerHandler exposes the sizing engine as the risk peer.
func ProvideRiskPeerHandler(
	cfg *config.Config,
	resolver *usecase.Resolver,
	sizer *usecase.PositionSizer,
	store repository.ConfigStore,
	l *applogger.Logger,
) *handlera2a.RiskPeerHandler {
	var prompt string
	for _, p := range cfg.Peers {
		if p.Name == cfg.RiskPeer.Name {
			prompt = p.Prompt
		}
	}
	return handlera2a.NewRiskPeerHandler(cfg.RiskPeer.Name, resolver, sizer, store, prompt, l)
}

// ProvideRiskPeerApp serves the risk peer behind the protocol logging
// middleware.
func ProvideRiskPeerApp(cfg *config.Config, l *applogger.Logger, h *handlera2a.RiskPeerHandler) *server.App {
	opts := serverOptions(cfg, l, cfg.RiskPeer.Port)
	opts = append(opts,
		xhttp.WithCORS(false),
		xhttp.WithMiddleware(middleware.A2ALogging(l, middleware.A2ALoggingConfig{MaxBodyBytes: handlera2a.MaxBodyBytes})),
	)
	srv := xhttp.NewServer([]xhttp.Handler{h}, opts...)
	return server.New(cfg.RiskPeer.Name, srv, l,
		server.WithStartHook("load_prompt", func(ctx context.Context) error {
			source, err := h.LoadPrompt(ctx)
			if err != nil {
				l.Warn("prompt load failed, using default", applogger.Error(err))
				return nil
			}
			l.Info("prompt loaded", applogger.String("source", source))
			return nil
		}),
	)
}
