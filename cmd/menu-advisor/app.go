package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"menu-advisor/internal/catalogfile"
	"menu-advisor/internal/common/cache"
	"menu-advisor/internal/common/config"
	"menu-advisor/internal/common/logger"
	"menu-advisor/internal/common/observability"
	"menu-advisor/internal/engine/highlight"
	"menu-advisor/internal/engine/notify"
	"menu-advisor/internal/engine/pipeline"
	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/session"
	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/engine/voice"
	"menu-advisor/internal/menuapi"
	"menu-advisor/internal/models"
	"menu-advisor/pkg/registry"
)

// app is one fully wired session plus the infrastructure it owns.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	zapLog  *zap.Logger
	store   *store.Store
	session *session.Session

	obs        *observability.Observability
	redis      *cache.RedisClient
	watcher    *catalogfile.Watcher
	metricsSrv *http.Server

	wg sync.WaitGroup
}

func newApp(ctx context.Context, cfg *config.Config, zl *zap.Logger, surface render.Surface) (*app, error) {
	log := logger.NewZapAdapter(zl)
	a := &app{cfg: cfg, log: log, zapLog: zl}

	rules, err := activeRules(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		a.obs = observability.New(cfg.App.Name, zl)
		a.serveMetrics()
	}

	var apiOpts []menuapi.Option
	if cfg.Cache.Enabled {
		a.redis = cache.NewRedis(cfg.Cache.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = a.redis.Ping(pingCtx)
		cancel()
		if err != nil {
			zl.Warn("recommendation cache disabled", zap.Error(err))
			_ = a.redis.Close()
			a.redis = nil
		} else {
			rc := menuapi.NewRecommendationCache(a.redis, config.GetDuration(cfg.Cache.TTL), log)
			apiOpts = append(apiOpts, menuapi.WithCache(rc))
		}
	}
	client := menuapi.NewClient(cfg.API, log, apiOpts...)

	var (
		loader session.CatalogLoader = client
		source *catalogfile.Source
	)
	if cfg.Catalog.Source == config.SourceFile {
		source = catalogfile.NewSource(cfg.Catalog.File, log)
		loader = source
	}

	a.store = store.NewWithDefaults(models.FilterState{
		Category: models.CategoryAll,
		Budget:   cfg.Filters.DefaultBudget,
	})
	hl := highlight.NewReconciler(surface, log)
	pl := pipeline.New(a.store, hl, surface, client, log, pipeline.WithObservability(a.obs))
	notifier := notify.NewChannel(surface, log, notify.WithDurations(
		config.GetDuration(cfg.Notifications.VoiceDismiss),
		config.GetDuration(cfg.Notifications.ErrorDismiss),
	))
	a.session = session.New(a.store, pl, notifier, surface, log,
		session.WithCatalogLoader(loader),
		session.WithBudgetMax(cfg.Filters.BudgetMax),
		session.WithObservability(a.obs),
		session.WithInterpreter(voice.NewInterpreter(rules...)),
	)

	if source != nil && cfg.Catalog.Watch {
		w, err := catalogfile.NewWatcher(source, func(catalog models.Catalog) {
			a.session.Dispatch(session.CatalogReplaced{Catalog: catalog})
		}, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.watcher = w
	}

	zl.Info("menu-advisor ready", zap.String("config", cfg.String()))
	return a, nil
}

// activeRules returns the configured rule file's table, or the built-in one.
func activeRules(cfg *config.Config) ([]voice.Rule, error) {
	if cfg.Voice.RulesFile == "" {
		return voice.Rules(), nil
	}
	reg, err := registry.LoadRegistry(cfg.Voice.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load voice rules: %w", err)
	}
	return reg.VoiceRules(), nil
}

func (a *app) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	a.metricsSrv = &http.Server{Addr: a.cfg.Metrics.Address, Handler: mux}
	go func() {
		a.zapLog.Info("metrics server listening", zap.String("addr", a.cfg.Metrics.Address))
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// start runs the session (and the catalog watcher, if any) until ctx is done,
// then requests the initial catalog.
func (a *app) start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.session.Run(ctx)
	}()

	if a.watcher != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.watcher.Watch(ctx)
		}()
	}

	a.session.Dispatch(session.LoadCatalog{})
}

// close waits for start's goroutines; the caller cancels their context first.
func (a *app) close() {
	a.wg.Wait()

	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.metricsSrv.Shutdown(ctx)
		cancel()
	}
	a.obs.Shutdown()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
