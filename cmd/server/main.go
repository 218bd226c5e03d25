package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mcules/gender-form/internal/activity"
	"github.com/mcules/gender-form/internal/answers"
	"github.com/mcules/gender-form/internal/api"
	"github.com/mcules/gender-form/internal/auth"
	"github.com/mcules/gender-form/internal/config"
	"github.com/mcules/gender-form/internal/form"
	"github.com/mcules/gender-form/internal/genderize"
	"github.com/mcules/gender-form/internal/httpx"
	"github.com/mcules/gender-form/internal/metrics"
	"github.com/mcules/gender-form/internal/predcache"
	"github.com/mcules/gender-form/internal/state"
	"github.com/mcules/gender-form/internal/ui"
)

// Comments in this file are intentionally in English.

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Persistent store (saved answers + auth records).
	store, err := answers.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open answers store", zap.Error(err))
	}
	defer store.Close()

	activityLog := activity.New(cfg.ActivitySize)
	latency := metrics.NewTracker(0.2)

	// Outbound prediction client.
	client := genderize.New(cfg.GenderizeURL)
	client.Logger = logger
	client.Latency = latency

	// Prediction cache with background janitor.
	cache := predcache.New(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	cache.Interval = time.Duration(cfg.JanitorIntervalSeconds) * time.Second
	cache.Activity = activityLog
	cache.Logger = logger
	go cache.Run(context.Background())

	authenticator := auth.NewAuthenticator(store)
	authenticator.Logger = logger
	if err := authenticator.EnsureAdmin(context.Background(), cfg.AdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin user", zap.Error(err))
	}
	go authenticator.RunSweeper(context.Background(), time.Duration(cfg.JanitorIntervalSeconds)*time.Second)

	// The one mutable form state plus its controller.
	formState := state.New()
	controller := &form.Controller{
		State:    formState,
		Store:    store,
		Client:   client,
		Cache:    cache,
		Activity: activityLog,
		Logger:   logger,
	}

	// HTTP server (UI + API on same port).
	mux := http.NewServeMux()

	// Root redirect to UI.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	// UI.
	uiHandler, err := ui.NewHandler(formState, controller, store, authenticator, activityLog, latency, "internal/ui/templates")
	if err != nil {
		logger.Fatal("ui init failed", zap.Error(err))
	}
	uiHandler.Logger = logger
	uiHandler.UpstreamHost = upstreamHost(cfg.GenderizeURL)
	uiHandler.Register(mux)

	// JSON API, behind bearer API keys.
	apiHandler := &api.Handler{
		Store:  store,
		Client: client,
		Cache:  cache,
		Logger: logger,
	}
	apiMux := http.NewServeMux()
	apiHandler.Register(apiMux)
	mux.Handle("/v1/", authenticator.Middleware(apiMux))

	handler := httpx.CORS{AllowOrigin: cfg.CORSOrigin}.Wrap(httpx.Logging(logger)(mux))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("HTTP listening", zap.String("addr", cfg.ListenAddr))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("http serve failed", zap.Error(err))
	}
}

func upstreamHost(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}
