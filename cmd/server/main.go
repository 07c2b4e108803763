// Command server runs the link tracker HTTP service.
//
//	@title			Link Tracker API
//	@version		1.0
//	@description	Issues tracking links and correlates each visit with its late-arriving geolocation and client telemetry.
//	@license.name	MIT
//	@BasePath		/api
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-link-tracker/internal/config"
	"github.com/tbourn/go-link-tracker/internal/geo"
	httpapi "github.com/tbourn/go-link-tracker/internal/http"
	"github.com/tbourn/go-link-tracker/internal/observability"
	"github.com/tbourn/go-link-tracker/internal/repo"
	"github.com/tbourn/go-link-tracker/internal/services"
	"github.com/tbourn/go-link-tracker/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open link store failed")
	}

	resolver, err := geo.New(cfg.Geo)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Geo.Provider).Msg("geo resolver setup failed")
	}

	links := services.NewLinkService(store)
	tracker := services.NewTrackerService(store, resolver, cfg.Geo.Timeout, cfg.Geo.Workers)

	r := gin.New()
	httpapi.RegisterRoutes(r, links, tracker, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.StoreDriver).
			Str("geo", cfg.Geo.Provider).
			Str("public_base_url", cfg.PublicBaseURL).
			Str("version", version).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// Geo lookups still in flight get the rest of the budget.
	if err := tracker.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("geo lookups abandoned")
	}
	if c, ok := resolver.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("geo resolver close")
		}
	}
	if err := closeStore(); err != nil {
		log.Warn().Err(err).Msg("link store close")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}

	log.Info().Msg("server stopped")
}

// openStore builds the link store selected by STORE_DRIVER and returns a
// function releasing it.
func openStore(cfg config.Config) (services.LinkStore, func() error, error) {
	if cfg.StoreDriver != config.StoreSQLite {
		return repo.NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("dsn", cfg.DBPath).Msg("sqlite store ready")
	return repo.NewSQLStore(db), sqlDB.Close, nil
}
