// README: Entry point; loads config, wires the search pipeline and its
// dependencies, starts the HTTP server and background schedulers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"platefinder/internal/ai"
	"platefinder/internal/config"
	httptransport "platefinder/internal/http"
	"platefinder/internal/http/handlers"
	"platefinder/internal/infra"
	"platefinder/internal/jobs"
	"platefinder/internal/metrics"
	"platefinder/internal/places"
	"platefinder/internal/ratelimit"
	"platefinder/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Pretty)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		logger.Fatal("PLATEFINDER_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Fatal("firebase init", zap.Error(err))
	}

	var jobStore jobs.Store
	var pushChannel jobs.Channel
	var memStore *jobs.MemoryStore
	var memChannel *jobs.MemoryChannel

	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		if err := dbPool.Ping(ctx); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		jobStore = jobs.NewPostgresStore(dbPool)
	} else {
		memStore = jobs.NewMemoryStore()
		jobStore = memStore
	}

	redisAddr := cfg.Cache.L2URL
	if redisAddr == "" {
		redisAddr = cfg.Redis.Addr
	}
	cacheRedis := infra.NewRedis(redisAddr)

	if cfg.DB.DSN != "" {
		pushChannel = jobs.NewRedisChannel(infra.NewRedis(cfg.Redis.Addr), jobs.DefaultBacklogSize, jobs.DefaultBacklogTTL)
	} else {
		memChannel = jobs.NewMemoryChannel(jobs.DefaultBacklogSize, jobs.DefaultBacklogTTL)
		pushChannel = memChannel
	}

	adapter, err := ai.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.ModelID, logger)
	if err != nil {
		logger.Fatal("gemini adapter init", zap.Error(err))
	}
	defer adapter.Close()

	cache := places.NewTieredCache(
		cacheRedis,
		500,
		60*time.Second,
		time.Duration(cfg.Cache.L2TTLSeconds)*time.Second,
		2*time.Minute,
		logger,
	)
	placesClient, err := places.NewClient(cfg.Maps.APIKey, 10, cache, logger)
	if err != nil {
		logger.Fatal("places client init", zap.Error(err))
	}

	pipelineCfg := search.Config{
		GateTimeout:       cfg.Pipeline.GateTimeout,
		FullIntentTimeout: cfg.Pipeline.FullIntentTimeout,
		FilterTimeout:     cfg.Pipeline.FilterTimeout,
		ProviderTimeout:   cfg.Pipeline.ProviderTimeout,
	}
	pipeline := search.NewPipeline(adapter, placesClient, logger, pipelineCfg, metrics.NewPipeline())

	photoLimiter := ratelimit.New(60, time.Minute)

	h := httptransport.Handlers{
		Search:    handlers.NewSearchHandler(pipeline, jobStore, pushChannel),
		Auth:      handlers.NewAuthHandler(verifier, time.Duration(cfg.Session.CookieTTLSeconds)*time.Second, cfg.Session.CookieDomain),
		Analytics: handlers.NewAnalyticsHandler(1000),
		Photo:     handlers.NewPhotoHandler(placesClient, photoLimiter),
		Stream:    handlers.NewStreamHandler(pushChannel, logger),
	}

	router := httptransport.NewRouter(h, verifier, cfg.HTTP.FrontendOrigins, logger)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	if memStore != nil {
		go memStore.RunTTLSweeper(ctx, jobs.DefaultTTL)
	}
	if memChannel != nil {
		go memChannel.RunBacklogSweeper(ctx)
	}
	go runRateLimiterSweeper(ctx, photoLimiter)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("server_starting", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server", zap.Error(err))
	}
}

func runRateLimiterSweeper(ctx context.Context, limiter *ratelimit.PerIP) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}

func newLogger(level string, pretty bool) *zap.Logger {
	var zcfg zap.Config
	if pretty {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = lvl
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	return logger
}
