package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/logger"
	"github.com/maildraft/maildraft/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	log      *logger.Logger
	cfg      *config.Config
	emailSvc *service.EmailService
}

// New creates a new Handler instance
func New(log *logger.Logger, cfg *config.Config, emailSvc *service.EmailService) *Handler {
	return &Handler{
		log:      log,
		cfg:      cfg,
		emailSvc: emailSvc,
	}
}

// JSON helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(v)
}

// NotFound is the JSON fallback for unmatched routes
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
}
