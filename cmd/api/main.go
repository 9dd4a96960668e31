package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"deckserver/internal/adapter/repo"
	"deckserver/internal/generation"
	"deckserver/internal/http/handlers"
	httpapi "deckserver/internal/http/httpapi"
	"deckserver/internal/infra"
	"deckserver/internal/infra/geoip"
	"deckserver/internal/middleware"
	"deckserver/internal/storage"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	// Konfigurasi & logger
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// DB pool (pgxpool)
	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	store := repo.NewStore(dbpool, logger)

	files, err := storage.NewFileStore(cfg.ResultStorePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result store")
	}

	// GeoIP untuk deteksi negara (opsional, nil kalau path kosong)
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	var country middleware.CountryLookup
	if resolver != nil {
		country = resolver.CountryCode
	}

	// Pipeline generate: controller -> compute unit -> callback reconciler
	gateway := generation.NewHTTPGateway(cfg.ComputeURL, cfg.DispatchTimeout, logger)
	callbackURL := cfg.CallbackBaseURL + "/v1/generate/callback"
	controller := generation.NewController(store, gateway, logger, callbackURL, cfg.MaxRetries)
	reconciler := generation.NewReconciler(store, files, controller, logger)

	// Sweeper membereskan job PROCESSING yang tidak pernah dapat callback
	sweeper := generation.NewSweeper(store, reconciler, logger, cfg.SweepInterval, cfg.SweepOlderThan)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweeper.Watch(sweepCtx)

	app := handlers.NewApp(store, controller, reconciler, files, logger, cfg.DefaultModel)

	// Bangun router via package httpapi (sudah ada middleware chi di dalamnya)
	router := httpapi.NewRouter(app, cfg, logger, country)

	// HTTP server wrapper dari infra
	server := infra.NewHTTPServer(cfg, router)

	// Start async
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
