package commands

import (
	"fmt"

	"github.com/wonny/georepute/backend/internal/api/ws"
	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/metrics"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/internal/quote"
	"github.com/wonny/georepute/backend/internal/s0_signals"
	"github.com/wonny/georepute/backend/internal/s0_signals/website"
	"github.com/wonny/georepute/backend/pkg/config"
	"github.com/wonny/georepute/backend/pkg/database"
	"github.com/wonny/georepute/backend/pkg/httputil"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

// app is the fully wired service shared by the api and worker commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	metrics *metrics.Metrics
	hub     *ws.Hub
	signals *s0_signals.Repository
	cached  *s0_signals.CachedSource
	service *quote.Service
	model   *modelconfig.Config
	pipe    *quote.Pipeline
}

// newLogger builds the process logger, honoring --verbose
func newLogger(cfg *config.Config) *logger.Logger {
	if verbose {
		cfg.LogLevel = "debug"
	}
	return logger.New(cfg)
}

// loadModel resolves --model, then QUOTE_MODEL_PATH, then compiled defaults
func loadModel(cfg *config.Config) (*modelconfig.Config, string, error) {
	path := modelPath
	if path == "" && cfg != nil {
		path = cfg.Quote.ModelPath
	}
	model, err := modelconfig.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	hash, err := modelconfig.Hash(model)
	if err != nil {
		return nil, "", fmt.Errorf("hash model config: %w", err)
	}
	return model, hash, nil
}

// buildApp connects to postgres and redis and wires the quote service
func buildApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	model, hash, err := loadModel(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range modelconfig.Warn(model) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, redis: rdb, model: model}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}
	a.hub = ws.NewHub(a.metrics, log)

	// S0: postgres → (live website audit) → redis cache
	a.signals = s0_signals.NewRepository(db.Pool)
	var source contracts.SignalSource = a.signals
	if cfg.Website.LiveAudit {
		limiter := redis.NewRateLimiter(rdb, "ratelimit")
		client := httputil.New(cfg, log).WithRateLimiter(limiter, redis.WebsiteAuditLimit)
		analyzer := website.NewAnalyzer(client, redis.NewCache(rdb, "quote"), log)
		source = s0_signals.NewWebsiteAugmentor(source, analyzer, log)
	}
	a.cached = s0_signals.NewCachedSource(source, redis.NewCache(rdb, "quote"), cfg.Quote.SignalCacheTTL, log)

	a.pipe = quote.NewPipeline(model, a.signals, a.metrics, log)
	a.service = quote.NewService(quote.Deps{
		Projects:  a.signals,
		Signals:   a.cached,
		Quotes:    quote.NewPostgresRepository(db),
		Pipeline:  a.pipe,
		Limiter:   redis.NewRateLimiter(rdb, "ratelimit"),
		Events:    a.hub,
		Metrics:   a.metrics,
		ModelHash: hash,
	}, quote.SettingsFrom(cfg), log)

	log.WithFields(map[string]interface{}{
		"model_hash":    hash[:12],
		"redis_enabled": rdb.Enabled(),
		"live_audit":    cfg.Website.LiveAudit,
	}).Info("Quote service wired")

	return a, nil
}

// Close releases connections in reverse order
func (a *app) Close() {
	a.hub.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}
