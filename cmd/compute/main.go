package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"deckserver/internal/compute"
	"deckserver/internal/infra"
	"deckserver/internal/providers/textgen"
	"deckserver/internal/storage"
)

// Compute unit: menerima dispatch dari control plane, kerjakan generate,
// lalu lapor balik via callback. Tidak menyentuh database sama sekali.
func main() {
	_ = godotenv.Load()

	appEnv := envOr("APP_ENV", "development")
	port := envOr("COMPUTE_PORT", "9090")
	logger := infra.NewLogger(appEnv)

	files, err := storage.NewFileStore(envOr("RESULT_STORE_PATH", "./storage"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result store")
	}

	gen := textgen.NewClient(textgen.Options{
		APIKey:  os.Getenv("TEXTGEN_API_KEY"),
		BaseURL: os.Getenv("TEXTGEN_BASE_URL"),
		Model:   os.Getenv("DEFAULT_MODEL"),
		Logger:  &logger,
	})

	notifier := compute.NewNotifier(logger)
	worker := compute.NewWorker(files, gen, notifier, logger)
	server := compute.NewServer(worker, logger)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Msgf("compute unit listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("compute server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown compute server")
	}
	logger.Info().Msg("compute unit stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
