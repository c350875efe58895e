package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/draft"
	"github.com/maildraft/maildraft/internal/llm"
	"github.com/maildraft/maildraft/internal/logger"
	"github.com/maildraft/maildraft/internal/mail"
)

// Client-input errors, always mapped to 400 at the HTTP boundary
var (
	ErrMissingPrompt     = errors.New("prompt is required")
	ErrMissingRecipients = errors.New("recipients are required")
	ErrMissingContent    = errors.New("subject and body are required")
)

// ErrTransportNotConfigured means mail credentials are absent from process
// configuration; the remediation is an .env/config fix, not a retry.
var ErrTransportNotConfigured = errors.New("email credentials not configured")

// systemPrompt establishes the persona and the structured output requirement
const systemPrompt = "You are a professional email writer. Generate emails that are clear, professional, and appropriate for business communication. Always respond with valid JSON containing 'subject' and 'body' fields."

// defaultContext labels the request when the client sends none
const defaultContext = "Professional email"

// CollaboratorError is a language-model call failure. Message and Code carry
// the collaborator's own diagnostics verbatim.
type CollaboratorError struct {
	Message string
	Code    string
	Err     error
}

func (e *CollaboratorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("collaborator failure (%s): %s", e.Code, e.Message)
	}
	return "collaborator failure: " + e.Message
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// GenerateRequest is the input to draft generation
type GenerateRequest struct {
	Prompt     string
	Recipients []string
	Context    string
}

// SendRequest is the input to delivery
type SendRequest struct {
	Recipients []string
	Subject    string
	Body       string
	SenderName string
}

/// EmailService orchestrates the two collaborators: it assembles prompts for
// the language model, normalizes its output into drafts, and relays finalized
// drafts to the mail transport.
type EmailService struct {
	provider  llm.TextCompletionProvider
	transport mail.Transport
	cfg       *config.Config
	log       *logger.Logger
}

// New creates an EmailService. Either collaborator may be nil when its
// credentials are absent; the corresponding operations then fail with a
// configuration error instead of panicking.
func New(provider llm.TextCompletionProvider, transport mail.Transport, cfg *config.Config, log *logger.Logger) *EmailService {
	return &EmailService{
		provider:  provider,
		transport: transport,
		cfg:       cfg,
		log:       log.WithComponent("email_service"),
	}
}

// Generate asks the language model for a draft and normalizes the response.
// Collaborator failures are not retried.
func (s *EmailService) Generate(ctx context.Context, req GenerateRequest) (draft.Draft, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return draft.Draft{}, ErrMissingPrompt
	}
	if s.provider == nil {
		return draft.Draft{}, &CollaboratorError{Message: "Groq API key not configured"}
	}

	text, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Prompt: buildPrompt(req),
	})
	if err != nil {
		return draft.Draft{}, wrapCollaborator(err)
	}

	d := draft.Normalize(text)
	d.GeneratedAt = time.Now().UTC()

	s.log.Debug().
		Int("subject_len", len(d.Subject)).
		Int("body_len", len(d.Body)).
		Msg("draft generated")

	return d, nil
}

// buildPrompt assembles the single natural-language instruction sent as the
// user message: optional recipient line, context label, the user's prompt,
// and the fixed formatting instruction.
func buildPrompt(req GenerateRequest) string {
	recipientText := ""
	if len(req.Recipients) > 0 {
		recipientText = "Recipients: " + strings.Join(req.Recipients, ", ") + "\n"
	}
	contextLabel := req.Context
	if contextLabel == "" {
		contextLabel = defaultContext
	}
	return fmt.Sprintf(
		"%sContext: %s\n\nPrompt: %s\n\nPlease generate a professional email with a clear subject line and body. Format your response as JSON with \"subject\" and \"body\" fields.",
		recipientText, contextLabel, req.Prompt,
	)
}

func wrapCollaborator(err error) *CollaboratorError {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return &CollaboratorError{Message: apiErr.Message, Code: apiErr.Code, Err: err}
	}
	return &CollaboratorError{Message: err.Error(), Err: err}
}

// Send verifies the transport and performs exactly one delivery attempt.
// The HTML body is derived from the text body by replacing line breaks, the
// same rendering the browser client previews.
func (s *EmailService) Send(ctx context.Context, req SendRequest) (mail.Receipt, error) {
	if len(req.Recipients) == 0 {
		return mail.Receipt{}, ErrMissingRecipients
	}
	if req.Subject == "" || req.Body == "" {
		return mail.Receipt{}, ErrMissingContent
	}
	if s.transport == nil || !s.cfg.Email.Configured() {
		return mail.Receipt{}, ErrTransportNotConfigured
	}

	if err := s.transport.Verify(ctx); err != nil {
		return mail.Receipt{}, err
	}

	senderName := strings.TrimSpace(req.SenderName)
	if senderName == "" {
		senderName = s.cfg.Email.SenderName
	}

	start := time.Now()
	receipt, err := s.transport.Send(ctx, mail.Message{
		From:     mail.Address{Name: senderName, Email: s.cfg.Email.SenderAddress()},
		To:       req.Recipients,
		Subject:  req.Subject,
		TextBody: req.Body,
		HTMLBody: strings.ReplaceAll(req.Body, "\n", "<br>"),
	})
	if err != nil {
		return mail.Receipt{}, err
	}

	s.log.Delivery(receipt.MessageID, len(receipt.Recipients), time.Since(start))
	return receipt, nil
}

// VerifyTransport checks mail credentials and connectivity without sending
func (s *EmailService) VerifyTransport(ctx context.Context) error {
	if s.transport == nil || !s.cfg.Email.Configured() {
		return ErrTransportNotConfigured
	}
	return s.transport.Verify(ctx)
}
