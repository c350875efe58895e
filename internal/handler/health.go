package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/maildraft/maildraft/internal/mail"
	"github.com/maildraft/maildraft/internal/service"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Env       HealthEnv `json:"env"`
}

// HealthEnv reports which collaborator credentials are present
type HealthEnv struct {
	EmailConfigured bool `json:"email_configured"`
	GroqConfigured  bool `json:"groq_configured"`
}

// Health returns the health status of the service
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Env: HealthEnv{
			EmailConfigured: h.cfg.Email.Configured(),
			GroqConfigured:  h.cfg.Groq.Configured(),
		},
	})
}

// TestEmailConfig verifies the mail transport credentials without sending
func (h *Handler) TestEmailConfig(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Email.Configured() {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Email credentials missing in .env",
		})
		return
	}

	if err := h.emailSvc.VerifyTransport(r.Context()); err != nil {
		if errors.Is(err, service.ErrTransportNotConfigured) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Email credentials missing in .env",
			})
			return
		}

		resp := map[string]interface{}{
			"error":   "Email config failed",
			"details": err.Error(),
		}
		var te *mail.TransportError
		if errors.As(err, &te) && te.Code != "" {
			resp["code"] = te.Code
		}
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "Email config is valid",
		"user":      h.cfg.Email.SenderAddress(),
		"timestamp": time.Now().UTC(),
	})
}
