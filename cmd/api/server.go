package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/vibecover/internal/adapters/gemini"
	"github.com/ewilliams-labs/vibecover/internal/adapters/openrouter"
	"github.com/ewilliams-labs/vibecover/internal/adapters/placeholder"
	"github.com/ewilliams-labs/vibecover/internal/adapters/rest"
	"github.com/ewilliams-labs/vibecover/internal/adapters/spotify"
	"github.com/ewilliams-labs/vibecover/internal/config"
	"github.com/ewilliams-labs/vibecover/internal/core/services"
	"github.com/ewilliams-labs/vibecover/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// buildHandler wires adapters into the core service and the HTTP handler.
func buildHandler(cfg config.Config, logger *zap.Logger) *rest.Handler {
	creds := cfg.Credentials

	// 1. Driven adapters
	spotifyClient := spotify.NewClient(creds.SpotifyClientID, creds.SpotifyClientSecret,
		spotify.WithHTTPClient(&http.Client{Timeout: cfg.SpotifyTimeout}),
		spotify.WithBaseURL(cfg.SpotifyAPIURL),
		spotify.WithTokenURL(cfg.SpotifyTokenURL),
		spotify.WithLogger(logger.Named("spotify")),
	)

	geminiClient := gemini.NewClient(creds.GoogleAPIKey,
		gemini.WithModel(cfg.GeminiModel),
		gemini.WithBaseURL(cfg.GeminiBaseURL),
		gemini.WithTimeout(cfg.GeminiTimeout),
		gemini.WithLogger(logger.Named("gemini")),
	)

	imageClient := openrouter.NewClient(openrouter.Config{
		APIKey:  creds.OpenRouterAPIKey,
		URL:     cfg.OpenRouterURL,
		Model:   cfg.ImageModel,
		Referer: cfg.AppReferer,
		Title:   cfg.AppTitle,
		Timeout: cfg.ImageTimeout,
		Logger:  logger.Named("openrouter"),
	})

	// 2. Core service; image generation is best-effort behind the placeholder fallback.
	svc := services.NewOrchestrator(services.Dependencies{
		Playlists: spotifyClient,
		Analyzer:  geminiClient,
		Prompts:   geminiClient,
		Images:    placeholder.NewFallback(imageClient, logger.Named("placeholder")),
	}, cfg.ImageCount, logger.Named("service"))

	// 3. Driving adapter
	return rest.NewHandler(svc, rest.Options{
		Credentials: creds,
		CORSOrigin:  cfg.CORSOrigin,
		Logger:      logger.Named("http"),
	})
}

// serve runs the API until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	creds := cfg.Credentials
	if missing := creds.Missing(); len(missing) > 0 {
		logger.Warn("credentials missing; generate requests will answer 500", zap.Strings("missing", missing))
	} else {
		logger.Info("credentials loaded",
			zap.String("spotify_client_id", logging.Redact(creds.SpotifyClientID)),
			zap.String("google_api_key", logging.Redact(creds.GoogleAPIKey)),
			zap.String("openrouter_api_key", logging.Redact(creds.OpenRouterAPIKey)),
		)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildHandler(cfg, logger),
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()
	logger.Info("vibecover API listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
			return err
		}
		return <-serverErr
	}
}
