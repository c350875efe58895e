package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/database"
	"github.com/maildraft/maildraft/internal/handler"
	"github.com/maildraft/maildraft/internal/llm"
	"github.com/maildraft/maildraft/internal/logger"
	"github.com/maildraft/maildraft/internal/mail"
	"github.com/maildraft/maildraft/internal/middleware"
	"github.com/maildraft/maildraft/internal/router"
	"github.com/maildraft/maildraft/internal/service"
)

const version = "0.1.0"

func main() {
	// Credentials conventionally live in a .env file next to the binary
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", version).Msg("starting maildraft server")
	log.Info().
		Bool("email_configured", cfg.Email.Configured()).
		Bool("groq_configured", cfg.Groq.Configured()).
		Msg("collaborator credentials")

	// Language-model collaborator
	var provider llm.TextCompletionProvider
	if cfg.Groq.Configured() {
		groq, err := llm.NewGroqClient(cfg.Groq)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Groq client")
		}
		provider = groq
		log.Info().Str("model", cfg.Groq.Model).Msg("Groq client initialized")
	} else {
		log.Warn().Msg("GROQ_API_KEY not set; generation requests will fail")
	}

	// Mail transport collaborator
	transport := buildTransport(cfg, log)

	// Rate limit counters: Redis when configured, in-process otherwise
	var store middleware.CounterStore
	if cfg.Redis.Enabled() {
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		store = middleware.NewRedisCounterStore(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("rate limiting backed by Redis")
	} else {
		store = middleware.NewMemoryCounterStore()
	}

	// Initialize service and handlers
	emailSvc := service.New(provider, transport, cfg, log)
	h := handler.New(log, cfg, emailSvc)

	// Initialize middleware
	mw := middleware.New(store, log, cfg)

	// Set up router
	r := router.New(h, mw, cfg)

	// Create HTTP server
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// buildTransport constructs the configured mail transport. A missing or
// incomplete configuration yields a nil transport; send requests then fail
// with a configuration error instead of a crash.
func buildTransport(cfg *config.Config, log *logger.Logger) mail.Transport {
	switch cfg.Email.Provider {
	case "gmail":
		if !cfg.Email.Gmail.Configured() {
			log.Warn().Msg("gmail transport selected but not configured; send requests will fail")
			return nil
		}
		transport, err := mail.NewGmailTransport(context.Background(), cfg.Email.Gmail)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Gmail transport")
		}
		log.Info().Str("sender", cfg.Email.Gmail.SenderAddress).Msg("Gmail transport initialized")
		return transport

	default:
		if !cfg.Email.SMTP.Configured() {
			log.Warn().Msg("EMAIL_USER/EMAIL_PASS not set; send requests will fail")
			return nil
		}
		transport, err := mail.NewSMTPTransport(cfg.Email.SMTP)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize SMTP transport")
		}
		log.Info().Str("host", cfg.Email.SMTP.Host).Int("port", cfg.Email.SMTP.Port).Msg("SMTP transport initialized")
		return transport
	}
}
