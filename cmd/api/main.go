package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"faculty-auth/core"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	cfg, err := core.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCloser, err := core.SetupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn := core.NewConnectionProvider(cfg.Database, core.DialPostgres)
	if err := conn.Open(ctx); err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	// Runs after the HTTP server has drained; see below.
	defer conn.Shutdown()

	if cfg.EnsureSchema {
		if err := core.EnsureSchema(ctx, conn); err != nil {
			return err
		}
	}

	digester, err := core.NewDigester(cfg.DigestScheme, cfg.DigestSalt)
	if err != nil {
		return err
	}
	if cfg.DigestScheme == core.DigestLegacy {
		log.Printf("warning: legacy digest scheme in use; it is not a password hash")
	}

	var store sessions.Store
	switch cfg.SessionBackend {
	case "redis":
		redisClient, err := core.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer redisClient.Close()
		store = core.NewRedisStore(redisClient, []byte(cfg.SessionKey))
	default:
		// Gorilla cookie store for session management.
		store = sessions.NewCookieStore([]byte(cfg.SessionKey))
	}

	var reg *prometheus.Registry
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	users := core.NewPgUserRepository(conn)
	validation := core.NewValidationService(users)
	router := core.NewRouter(cfg, store, validation, digester, conn, reg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting api server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Printf("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
