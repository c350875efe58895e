package middleware

import (
	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/logger"
)

// Middleware holds all HTTP middleware
type Middleware struct {
	store CounterStore
	log   *logger.Logger
	cfg   *config.Config
}

// New creates a new Middleware instance. store backs the rate limiter and may
// be a Redis-backed or in-process counter store.
func New(store CounterStore, log *logger.Logger, cfg *config.Config) *Middleware {
	return &Middleware{
		store: store,
		log:   log,
		cfg:   cfg,
	}
}
