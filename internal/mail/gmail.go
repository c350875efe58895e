package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/maildraft/maildraft/internal/config"
)

// GmailTransport implements Transport using the Gmail API. It is selected
// with email.provider "gmail" for deployments that send through a Google
// Workspace mailbox instead of a raw SMTP account.
type GmailTransport struct {
	service       *gmail.Service
	senderAddress string
}

// NewGmailTransport creates a GmailTransport. It expects either a service
// account credentials JSON with domain-wide delegation, or OAuth2 client
// credentials plus a refresh token for the sender mailbox.
func NewGmailTransport(ctx context.Context, cfg config.GmailEmailConfig) (*GmailTransport, error) {
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	var svc *gmail.Service
	var err error

	switch {
	case cfg.CredentialsJSON != "":
		jwtConfig, jerr := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope, gmail.GmailReadonlyScope)
		if jerr != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", jerr)
		}
		// Domain-wide delegation: impersonate the sender mailbox
		jwtConfig.Subject = cfg.SenderAddress
		svc, err = gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))

	case cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.RefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope, gmail.GmailReadonlyScope},
		}
		token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
		svc, err = gmail.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))

	default:
		return nil, fmt.Errorf("gmail: credentials JSON or OAuth2 client credentials are required")
	}

	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return &GmailTransport{
		service:       svc,
		senderAddress: cfg.SenderAddress,
	}, nil
}

// Verify confirms the credentials by fetching the sender's mailbox profile
func (g *GmailTransport) Verify(ctx context.Context) error {
	if _, err := g.service.Users.GetProfile("me").Context(ctx).Do(); err != nil {
		return classifyGmail(err)
	}
	return nil
}

// Send delivers msg via the Gmail API and returns the provider-assigned
// message identifier.
func (g *GmailTransport) Send(ctx context.Context, msg Message) (Receipt, error) {
	now := time.Now().UTC()
	messageID := NewMessageID(g.senderAddress)
	raw := formatMessage(msg, messageID, now)

	sent, err := g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}).Context(ctx).Do()
	if err != nil {
		return Receipt{}, classifyGmail(err)
	}

	return Receipt{
		MessageID:  sent.Id,
		Recipients: msg.To,
		SentAt:     time.Now().UTC(),
	}, nil
}

// classifyGmail maps Gmail API failures onto the transport error taxonomy
func classifyGmail(err error) *TransportError {
	if apiErr, ok := err.(*googleapi.Error); ok {
		code := ""
		if apiErr.Code == 401 || apiErr.Code == 403 {
			code = CodeAuth
		}
		return &TransportError{Code: code, ResponseCode: apiErr.Code, Err: err}
	}
	return &TransportError{Code: CodeConnection, Err: err}
}
