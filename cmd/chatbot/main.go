package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"clearbuybot/internal/app"
	"clearbuybot/internal/config"
	"clearbuybot/internal/ratelimit"
	"clearbuybot/internal/server"
	"clearbuybot/internal/util"
	"clearbuybot/pkg/ai"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel)

	engine, err := ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OrganizationID, cfg.GenerationModel)
	if err != nil {
		util.Fatal("failed to init answer engine", "err", err)
	}

	appCore, err := app.New(app.Config{
		DSN:               cfg.DatabaseDSN(),
		Engine:            engine,
		HistoryLimit:      cfg.HistoryLimit,
		MaxConcurrentAsks: cfg.MaxConcurrentAsks,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		util.Fatal("failed to parse trusted proxies", "err", err)
	}

	var askLimiter *ratelimit.FixedWindowLimiter
	if cfg.AskRateLimitPerMin > 0 {
		askLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "clearbuybot:ask",
			cfg.AskRateLimitPerMin, time.Minute,
		)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		AskTimeout:     time.Duration(cfg.AskTimeoutSeconds) * time.Second,
		AskLimiter:     askLimiter,
		TrustedProxies: trustedProxies,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("chatbot server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "err", err)
	}
}
