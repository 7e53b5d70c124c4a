package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinpulse/internal/cache"
	"coinpulse/internal/config"
	"coinpulse/internal/db"
	"coinpulse/internal/fallback"
	"coinpulse/internal/handler"
	"coinpulse/internal/job"
	"coinpulse/internal/provider"
	"coinpulse/internal/repository"
	"coinpulse/internal/service"
	"coinpulse/internal/snapshot"
	"coinpulse/internal/stream"
	"coinpulse/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc              = godotenv.Load
	loadConfigFunc           = config.Load
	initPostgresFunc         = db.InitPostgres
	initRedisFunc            = cache.InitRedis
	initTracerFunc           = tracing.InitTracer
	newCoinGeckoProviderFunc = func(tracer trace.Tracer) service.BaselineProvider {
		return provider.NewCoinGeckoProvider(tracer)
	}
	newManagerFunc         = stream.NewManager
	startPollerFunc        = func(p *job.BaselinePoller, ctx context.Context) { go p.Start(ctx) }
	startFlushLoopFunc     = func(f *job.FlushLoop, ctx context.Context) { go f.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Holdings storage is optional; without it the portfolio endpoints
	// report 503 and market data still flows.
	var holdingStore service.HoldingStore
	if db.Pool != nil {
		repo := repository.NewHoldingRepository(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		holdingStore = repo
	}

	// Snapshot pipeline: ticks land in the buffer, the flush loop merges
	// them into the store, the baseline poller backfills the slow fields.
	store := snapshot.NewStore()
	buffer := stream.NewBuffer()
	manager := newManagerFunc(cfg.FeedWSURL, buffer, cfg.ReconnectBase, cfg.ReconnectMax)
	defer manager.Close()

	cgProvider := newCoinGeckoProviderFunc(tracer)
	fbCache := fallback.NewCache(cache.Client, cfg.BaselineTTL)

	marketService := service.NewMarketService(tracer, cgProvider, fbCache, store, holdingStore)
	marketService.WithResubscriber(func(ctx context.Context, assetIDs []string) {
		if err := manager.Subscribe(ctx, assetIDs); err != nil {
			log.Printf("resubscribe failed: %v", err)
		}
	})

	poller := job.NewBaselinePoller(tracer, marketService, cfg.BaselinePollSecs)
	startPollerFunc(poller, ctx)

	flushLoop := job.NewFlushLoop(buffer, store, cfg.FlushInterval)
	startFlushLoopFunc(flushLoop, ctx)

	if err := manager.Subscribe(ctx, marketService.SubscriptionAssets(ctx)); err != nil {
		log.Printf("initial subscribe failed: %v", err)
	}

	// Create handlers and routes
	h := newHandlerFunc(tracer, marketService, manager)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("coinpulse"))

	h.RegisterRoutes(r, cfg.APIKey)

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()
	manager.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
