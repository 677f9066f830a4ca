// toolmux serves one namespace's smart tool surface over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/toolmux/toolmux/internal/config"
	"github.com/toolmux/toolmux/internal/embeddings"
	"github.com/toolmux/toolmux/internal/proxy"
	"github.com/toolmux/toolmux/internal/server"
	"github.com/toolmux/toolmux/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// Missing .env is fine; explicit env still wins.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "toolmux: %v\n", err)
		os.Exit(1)
	}

	initLogging(cfg.Logging)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("toolmux: fatal")
	}
}

func initLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client proxy.EmbeddingClient
	var repo proxy.EmbeddingRepository

	if cfg.Smart.SearchMode == config.SearchModeEmbeddings {
		if !cfg.Smart.Embedding.Configured() {
			log.Warn().Msg("toolmux: searchMode is embeddings but no embedding endpoint configured, running keyword-only")
		} else {
			embClient := embeddings.NewClient(cfg.Smart.Embedding.APIURL, cfg.Smart.Embedding.APIKey, cfg.Smart.Embedding.Model)
			client = embClient

			pool, err := store.Connect(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			repository := store.New(pool)
			dims := embeddings.ModelDimensions(embClient.Model())
			if err := repository.EnsureSchema(ctx, dims); err != nil {
				return err
			}
			repo = repository

			log.Info().
				Str("model", embClient.Model()).
				Int("dimensions", dims).
				Msg("toolmux: vector store ready")
		}
	}

	p, err := proxy.New(cfg, client, repo)
	if err != nil {
		return err
	}

	srv := server.New(cfg, p)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("toolmux: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
