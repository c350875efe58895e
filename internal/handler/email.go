package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/maildraft/maildraft/internal/mail"
	"github.com/maildraft/maildraft/internal/service"
)

// GenerateEmailRequest is the body of POST /api/generate-email
type GenerateEmailRequest struct {
	Prompt     string   `json:"prompt"`
	Recipients []string `json:"recipients"`
	Context    string   `json:"context"`
}

// SendEmailRequest is the body of POST /api/send-email
type SendEmailRequest struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	SenderName string   `json:"senderName"`
}

// SendEmailResponse is the delivery receipt returned to the client
type SendEmailResponse struct {
	Success    bool      `json:"success"`
	MessageID  string    `json:"messageId"`
	Recipients []string  `json:"recipients"`
	PreviewURL string    `json:"previewUrl,omitempty"`
	SentAt     time.Time `json:"sentAt"`
}

// GenerateEmail drafts an email from a free-text prompt
func (h *Handler) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	var req GenerateEmailRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	d, err := h.emailSvc.Generate(r.Context(), service.GenerateRequest{
		Prompt:     req.Prompt,
		Recipients: req.Recipients,
		Context:    req.Context,
	})
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrMissingPrompt) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Prompt is required"})
		return
	}

	resp := map[string]interface{}{
		"error":   "Failed to generate email",
		"details": err.Error(),
	}
	var collab *service.CollaboratorError
	if errors.As(err, &collab) {
		resp["details"] = collab.Message
		if collab.Code != "" {
			resp["code"] = collab.Code
		}
	}
	h.log.Error().Err(err).Msg("email generation failed")
	writeJSON(w, http.StatusInternalServerError, resp)
}

// SendEmail relays a finalized draft to the mail transport
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	receipt, err := h.emailSvc.Send(r.Context(), service.SendRequest{
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Body:       req.Body,
		SenderName: req.SenderName,
	})
	if err != nil {
		h.writeSendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SendEmailResponse{
		Success:    true,
		MessageID:  receipt.MessageID,
		Recipients: receipt.Recipients,
		PreviewURL: receipt.PreviewURL,
		SentAt:     receipt.SentAt,
	})
}

func (h *Handler) writeSendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingRecipients):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Recipients are required"})
		return
	case errors.Is(err, service.ErrMissingContent):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Subject and body are required"})
		return
	case errors.Is(err, service.ErrTransportNotConfigured):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Email credentials not configured"})
		return
	}

	userMessage := "Failed to send email"
	details := err.Error()

	var te *mail.TransportError
	if errors.As(err, &te) {
		switch {
		case te.IsAuth():
			userMessage = "Email authentication failed"
			details = "Use correct username & password. For Gmail, use App Password."
		case te.IsConnection():
			userMessage = "Connection to email server failed"
			details = "Check internet or SMTP config"
		}
	}

	resp := map[string]interface{}{
		"error":   userMessage,
		"details": details,
	}
	if te != nil {
		if te.Code != "" {
			resp["code"] = te.Code
		}
		if te.ResponseCode != 0 {
			resp["responseCode"] = te.ResponseCode
		}
	}

	h.log.Error().Err(err).Msg("email delivery failed")
	writeJSON(w, http.StatusInternalServerError, resp)
}
