package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/maildraft/maildraft/internal/config"
)

const dialTimeout = 10 * time.Second

// SMTPTransport implements Transport over a submission connection
// (dial, EHLO, STARTTLS when offered, AUTH PLAIN).
type SMTPTransport struct {
	cfg config.SMTPConfig

	// test seams; production instances use the real SMTP conversation
	verifyFn   func(ctx context.Context) error
	transmitFn func(ctx context.Context, from string, to []string, raw []byte) error
}

// NewSMTPTransport creates an SMTPTransport from configuration
func NewSMTPTransport(cfg config.SMTPConfig) (*SMTPTransport, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("smtp: user and pass are required")
	}
	t := &SMTPTransport{cfg: cfg}
	t.verifyFn = t.verify
	t.transmitFn = t.transmit
	return t, nil
}

// Verify dials the server, negotiates TLS and authenticates, then quits
// without sending anything.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	return t.verifyFn(ctx)
}

// Send delivers msg in a single attempt and returns a receipt. The message
// identifier is generated locally and stamped into the headers, the way
// submission clients conventionally do.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (Receipt, error) {
	now := time.Now().UTC()
	messageID := NewMessageID(msg.From.Email)
	raw := []byte(formatMessage(msg, messageID, now))

	if err := t.transmitFn(ctx, msg.From.Email, msg.To, raw); err != nil {
		return Receipt{}, err
	}

	return Receipt{
		MessageID:  messageID,
		Recipients: msg.To,
		PreviewURL: t.previewURL(messageID),
		SentAt:     time.Now().UTC(),
	}, nil
}

func (t *SMTPTransport) verify(ctx context.Context) error {
	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

func (t *SMTPTransport) transmit(ctx context.Context, from string, to []string, raw []byte) error {
	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		return classify(err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return classify(err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return classify(err)
	}
	if _, err := w.Write(raw); err != nil {
		return classify(err)
	}
	if err := w.Close(); err != nil {
		return classify(err)
	}
	return client.Quit()
}

// connect performs the dial/EHLO/STARTTLS/AUTH sequence shared by Verify and
// Send.
func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.cfg.Addr())
	if err != nil {
		return nil, &TransportError{Code: CodeConnection, Err: err}
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, &TransportError{Code: CodeConnection, Err: err}
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
			client.Close()
			return nil, classify(err)
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, classifyAuth(err)
		}
	}

	return client, nil
}

// previewURL synthesizes a web preview link for Ethereal sandbox accounts.
// Real providers get no preview.
func (t *SMTPTransport) previewURL(messageID string) string {
	if strings.HasSuffix(t.cfg.Host, "ethereal.email") {
		return "https://ethereal.email/message/" + strings.Trim(messageID, "<>")
	}
	return ""
}

// classify wraps an SMTP conversation error, keeping the server reply code
// when one was seen.
func classify(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	var proto *textproto.Error
	if errors.As(err, &proto) {
		code := ""
		if proto.Code == 535 || proto.Code == 534 || proto.Code == 530 {
			code = CodeAuth
		}
		return &TransportError{Code: code, ResponseCode: proto.Code, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransportError{Code: CodeConnection, Err: err}
	}

	return &TransportError{Err: err}
}

// classifyAuth marks any AUTH-stage failure as an authentication error
func classifyAuth(err error) *TransportError {
	te := classify(err)
	te.Code = CodeAuth
	return te
}
