package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"promogen-go/internal/cache"
	"promogen-go/internal/config"
	"promogen-go/internal/credential"
	"promogen-go/internal/credential/adapter"
	"promogen-go/internal/gateway"
	"promogen-go/internal/logging"
	"promogen-go/internal/monitoring/tracing"
	"promogen-go/internal/provider"
	srv "promogen-go/internal/server"
	"promogen-go/internal/upstream"
	"promogen-go/internal/usage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *debug {
		cfg.Logging.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	log.Infof("Starting promogen-go (config: %s)", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	traceShutdown, err := tracing.Init(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown tracing")
			}
		}()
	}

	store, closeStore, err := buildCredentialStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("credential store initialization failed; falling back to in-memory store")
		store = adapter.NewMemoryStore()
		closeStore = func() {}
	}
	defer closeStore()

	decrypter, err := buildDecrypter(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid credential secret key")
	}

	kv, closeKV, err := buildCacheKV(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("cache backend initialization failed; falling back to in-memory cache")
		kv = cache.NewMemoryKV()
		closeKV = func() {}
	}
	defer closeKV()

	tracker := usage.NewTracker()

	factory := provider.NewHTTPFactory(cfg.Provider.BaseURL, &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
			MaxIdleConnsPerHost:   10,
		},
	})
	exec := &gateway.Executor{
		Decrypter:      decrypter,
		Factory:        factory,
		Store:          store,
		AttemptTimeout: cfg.AttemptTimeout(),
		Usage:          tracker,
		Path:           "direct",
	}
	direct := &gateway.Engine{
		Source:       buildDirectSource(cfg, store),
		Exec:         exec,
		Cache:        cache.New(kv, cfg.CacheTTL()),
		PollInterval: cfg.VideoPollInterval(),
	}

	var managed gateway.ManagedTransport
	if cfg.Gateway.BaseURL != "" {
		managed = upstream.NewManagedClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, &http.Client{
			Timeout: cfg.GatewayTimeout(),
		})
		log.WithField("gateway_url", cfg.Gateway.BaseURL).Info("managed gateway path enabled")
	} else {
		log.Info("no managed gateway configured; running direct-only")
	}

	router := &gateway.Router{Managed: managed, Direct: direct, Usage: tracker}

	go credential.StartRecovery(ctx, store,
		time.Duration(cfg.Credentials.RecoveryCooldownMin)*time.Minute,
		time.Duration(cfg.Credentials.RecoveryIntervalMin)*time.Minute)

	// Config hot reload covers the safe subset only: log level and rate
	// limits. Everything structural requires a restart.
	var liveCfg atomic.Pointer[config.Config]
	liveCfg.Store(cfg)
	if err := config.Watch(ctx, *configPath, func(next *config.Config) {
		next.Logging.Debug = next.Logging.Debug || *debug
		if err := logging.Setup(next); err != nil {
			log.WithError(err).Warn("failed to reconfigure logging")
		}
		liveCfg.Store(next)
	}); err != nil {
		log.WithError(err).Warn("config watcher unavailable")
	}

	engine := srv.BuildEngine(cfg, srv.Dependencies{
		Router: router,
		Usage:  tracker,
		Store:  store,
		GetRateLimit: func() config.RateLimitConfig {
			return liveCfg.Load().RateLimit
		},
	})

	httpSrv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: engine}
	go func() {
		log.Infof("Generation API listening on :%s", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown incomplete")
	}
	log.Info("Server stopped")
}
