package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/llm"
	"github.com/maildraft/maildraft/internal/logger"
	"github.com/maildraft/maildraft/internal/mail"
	"github.com/maildraft/maildraft/internal/service"
)

type fakeProvider struct {
	lastReq llm.CompletionRequest
	text    string
	err     error
}

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeTransport struct {
	lastMsg   mail.Message
	verifyErr error
	sendErr   error
	receipt   mail.Receipt
	sends     int
}

func (f *fakeTransport) Verify(context.Context) error {
	return f.verifyErr
}

func (f *fakeTransport) Send(_ context.Context, msg mail.Message) (mail.Receipt, error) {
	f.sends++
	f.lastMsg = msg
	if f.sendErr != nil {
		return mail.Receipt{}, f.sendErr
	}
	return f.receipt, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Email: config.EmailConfig{
			Provider:   "smtp",
			SenderName: "AI Email Sender",
			SMTP: config.SMTPConfig{
				Host: "smtp.ethereal.email",
				Port: 587,
				User: "sandbox@ethereal.email",
				Pass: "secret",
			},
		},
	}
}

func newService(provider llm.TextCompletionProvider, transport mail.Transport, cfg *config.Config) *service.EmailService {
	return service.New(provider, transport, cfg, logger.New("disabled", "json"))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("missing prompt", func(t *testing.T) {
		t.Parallel()

		svc := newService(&fakeProvider{}, &fakeTransport{}, testConfig())
		_, err := svc.Generate(context.Background(), service.GenerateRequest{Prompt: "   "})
		assert.ErrorIs(t, err, service.ErrMissingPrompt)
	})

	t.Run("structured response becomes a draft", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{text: `{"subject":"Deadline extension","body":"Dear team,"}`}
		svc := newService(provider, &fakeTransport{}, testConfig())

		d, err := svc.Generate(context.Background(), service.GenerateRequest{
			Prompt:     "Ask for a deadline extension",
			Recipients: []string{"a@b.com", "c@d.com"},
			Context:    "Follow-up email",
		})
		require.NoError(t, err)

		assert.Equal(t, "Deadline extension", d.Subject)
		assert.Equal(t, "Dear team,", d.Body)
		assert.WithinDuration(t, time.Now(), d.GeneratedAt, time.Minute)

		// Prompt assembly: recipient line, context label, user prompt,
		// fixed formatting instruction.
		assert.True(t, strings.HasPrefix(provider.lastReq.Prompt, "Recipients: a@b.com, c@d.com\n"))
		assert.Contains(t, provider.lastReq.Prompt, "Context: Follow-up email")
		assert.Contains(t, provider.lastReq.Prompt, "Prompt: Ask for a deadline extension")
		assert.Contains(t, provider.lastReq.Prompt, `Format your response as JSON with "subject" and "body" fields.`)
		assert.Contains(t, provider.lastReq.System, "professional email writer")
	})

	t.Run("defaults apply without recipients or context", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{text: "Subject line\nBody text"}
		svc := newService(provider, &fakeTransport{}, testConfig())

		d, err := svc.Generate(context.Background(), service.GenerateRequest{Prompt: "hello"})
		require.NoError(t, err)

		assert.Equal(t, "Subject line", d.Subject)
		assert.Equal(t, "Body text", d.Body)
		assert.False(t, strings.Contains(provider.lastReq.Prompt, "Recipients:"))
		assert.Contains(t, provider.lastReq.Prompt, "Context: Professional email")
	})

	t.Run("provider failure wraps into CollaboratorError", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{err: &llm.APIError{StatusCode: 429, Code: "rate_limit_exceeded", Message: "Rate limit reached"}}
		svc := newService(provider, &fakeTransport{}, testConfig())

		_, err := svc.Generate(context.Background(), service.GenerateRequest{Prompt: "hello"})
		require.Error(t, err)

		var collab *service.CollaboratorError
		require.ErrorAs(t, err, &collab)
		assert.Equal(t, "rate_limit_exceeded", collab.Code)
		assert.Equal(t, "Rate limit reached", collab.Message)
	})

	t.Run("nil provider fails as unconfigured collaborator", func(t *testing.T) {
		t.Parallel()

		svc := newService(nil, &fakeTransport{}, testConfig())
		_, err := svc.Generate(context.Background(), service.GenerateRequest{Prompt: "hello"})

		var collab *service.CollaboratorError
		require.ErrorAs(t, err, &collab)
		assert.Contains(t, collab.Message, "not configured")
	})
}

func TestSend(t *testing.T) {
	t.Parallel()

	t.Run("input validation order", func(t *testing.T) {
		t.Parallel()

		svc := newService(&fakeProvider{}, &fakeTransport{}, testConfig())

		_, err := svc.Send(context.Background(), service.SendRequest{})
		assert.ErrorIs(t, err, service.ErrMissingRecipients)

		_, err = svc.Send(context.Background(), service.SendRequest{
			Recipients: []string{"a@b.com"}, Subject: "", Body: "x",
		})
		assert.ErrorIs(t, err, service.ErrMissingContent)

		_, err = svc.Send(context.Background(), service.SendRequest{
			Recipients: []string{"a@b.com"}, Subject: "x", Body: "",
		})
		assert.ErrorIs(t, err, service.ErrMissingContent)
	})

	t.Run("unconfigured transport", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Email.SMTP.Pass = ""
		svc := newService(&fakeProvider{}, &fakeTransport{}, cfg)

		_, err := svc.Send(context.Background(), service.SendRequest{
			Recipients: []string{"a@b.com"}, Subject: "s", Body: "b",
		})
		assert.ErrorIs(t, err, service.ErrTransportNotConfigured)
	})

	t.Run("successful delivery", func(t *testing.T) {
		t.Parallel()

		transport := &fakeTransport{receipt: mail.Receipt{
			MessageID:  "<id@ethereal.email>",
			Recipients: []string{"a@b.com"},
			PreviewURL: "https://ethereal.email/message/id",
			SentAt:     time.Now().UTC(),
		}}
		svc := newService(&fakeProvider{}, transport, testConfig())

		receipt, err := svc.Send(context.Background(), service.SendRequest{
			Recipients: []string{"a@b.com"},
			Subject:    "Deadline extension",
			Body:       "line one\nline two",
			SenderName: "Dana",
		})
		require.NoError(t, err)

		assert.Equal(t, "<id@ethereal.email>", receipt.MessageID)
		assert.Equal(t, 1, transport.sends)
		assert.Equal(t, "Dana <sandbox@ethereal.email>", transport.lastMsg.From.String())
		assert.Equal(t, "line one\nline two", transport.lastMsg.TextBody)
		assert.Equal(t, "line one<br>line two", transport.lastMsg.HTMLBody)
	})

	t.Run("sender name defaults from config", func(t *testing.T) {
		t.Parallel()

		transport := &fakeTransport{}
		svc := newService(&fakeProvider{}, transport, testConfig())

		_, err := svc.Send(context.Background(), service.SendRequest{
			Recipients: []string{"a@b.com"}, Subject: "s", Body: "b",
		})
		require.NoError(t, err)
		assert.Equal(t, "AI Email Sender <sandbox@ethereal.email>", transport.lastMsg.From.String())
	})

	t.Run("verify failure aborts before sending", func(t *testing.T) {
		t.Parallel()

		transport := &fakeTransport{verifyErr: &mail.TransportError{Code: mail.CodeAuth, ResponseCode: 535, Err: errors.New("credentials rejected")}}
		svc := newService(&fakeProvider{}, transport, testConfig())

		_, err := svc.Send(context.Background(), service.SendRequest{
			Recipients: []string{"a@b.com"}, Subject: "s", Body: "b",
		})

		var te *mail.TransportError
		require.ErrorAs(t, err, &te)
		assert.True(t, te.IsAuth())
		assert.Zero(t, transport.sends)
	})

	t.Run("exactly one attempt on send failure", func(t *testing.T) {
		t.Parallel()

		transport := &fakeTransport{sendErr: &mail.TransportError{Code: mail.CodeConnection, Err: errors.New("broken pipe")}}
		svc := newService(&fakeProvider{}, transport, testConfig())

		_, err := svc.Send(context.Background(), service.SendRequest{
			Recipients: []string{"a@b.com"}, Subject: "s", Body: "b",
		})
		require.Error(t, err)
		assert.Equal(t, 1, transport.sends)
	})
}

func TestVerifyTransport(t *testing.T) {
	t.Parallel()

	t.Run("unconfigured", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.Email.SMTP.User = ""
		svc := newService(&fakeProvider{}, &fakeTransport{}, cfg)
		assert.ErrorIs(t, svc.VerifyTransport(context.Background()), service.ErrTransportNotConfigured)
	})

	t.Run("delegates to transport", func(t *testing.T) {
		t.Parallel()

		svc := newService(&fakeProvider{}, &fakeTransport{verifyErr: errors.New("nope")}, testConfig())
		assert.EqualError(t, svc.VerifyTransport(context.Background()), "nope")
	})
}
