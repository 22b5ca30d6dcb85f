package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/funapp/internal/auth"
	"github.com/geocoder89/funapp/internal/config"
	"github.com/geocoder89/funapp/internal/db"
	"github.com/geocoder89/funapp/internal/geo"
	"github.com/geocoder89/funapp/internal/geocoding"
	httpx "github.com/geocoder89/funapp/internal/http"
	"github.com/geocoder89/funapp/internal/http/handlers"
	"github.com/geocoder89/funapp/internal/http/middlewares"
	"github.com/geocoder89/funapp/internal/observability"
	"github.com/geocoder89/funapp/internal/redisclient"
	"github.com/geocoder89/funapp/internal/repo/memory"
	"github.com/geocoder89/funapp/internal/repo/postgres"
	"github.com/geocoder89/funapp/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET_KEY is empty; tokens are signed with an empty secret (dev only)")
	}

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	startCtx, cancelStart := config.WithTimeout(15 * time.Second)
	defer cancelStart()

	shutdownTracer, err := observability.InitTracer(startCtx, observability.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	ready := map[string]handlers.Pinger{}

	// wire up the store
	var store service.UserStore
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory user store; data is lost on restart")
		store = memory.NewUsersRepo()
	default:
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(startCtx, pool); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}

		store = postgres.NewUsersRepo(pool, prom)
		ready["postgres"] = pool
	}

	// signup rate limiting: shared through redis when configured
	var limiter middlewares.Limiter = middlewares.NewRateLimiter(cfg.SignupRateLimit, cfg.SignupRateWindow)
	if cfg.RedisAddr != "" {
		rc, err := redisclient.Connect(startCtx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()

		limiter = middlewares.NewRedisLimiter(rc.Raw(), "funapp:ratelimit:", cfg.SignupRateLimit, cfg.SignupRateWindow)
		ready["redis"] = rc
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiration)

	geocoder := geocoding.NewClient(geocoding.Config{
		BaseURL: cfg.GeocoderURL,
		APIKey:  cfg.GeocoderAPIKey,
		Timeout: cfg.GeocoderTimeout,
	}, prom)

	users := service.NewUserService(service.Deps{
		Store:    store,
		Geocoder: geocoder,
		Tokens:   tokens,
		InRegion: geo.IsWithinAllowedRegion,
		Log:      log,
		Recorder: prom,
	})

	router := httpx.NewRouter(httpx.RouterDeps{
		Cfg:     cfg,
		Log:     log,
		Prom:    prom,
		Gather:  reg,
		Users:   users,
		Tokens:  tokens,
		Limiter: limiter,
		Ready:   ready,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-stop:
	}

	log.Info("server shutting down")

	ctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
