// Package mail delivers finalized drafts through an external mail provider.
package mail

import (
	"context"
	"fmt"
	"time"
)

// Transport is the interface mail providers implement. This abstraction
// allows swapping providers (SMTP, Gmail API, a test fake) without changing
// business logic.
type Transport interface {
	// Verify checks that the provider connection and credentials work
	// without sending anything.
	Verify(ctx context.Context) error
	// Send performs exactly one delivery attempt. No retry, no queuing;
	// duplicate calls produce duplicate sends.
	Send(ctx context.Context, msg Message) (Receipt, error)
}

// Address is a sender identity
type Address struct {
	Name  string
	Email string
}

// String renders the address for a From header
func (a Address) String() string {
	if a.Name != "" {
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	}
	return a.Email
}

// Message is an outbound email
type Message struct {
	From     Address
	To       []string
	Subject  string
	TextBody string
	// HTMLBody is optional; when set the message goes out as
	// multipart/alternative.
	HTMLBody string
}

// Receipt describes a completed delivery attempt
type Receipt struct {
	// MessageID is the provider-assigned (or locally generated) message identifier
	MessageID string
	// Recipients echoes the delivered-to list
	Recipients []string
	// PreviewURL is a human-viewable link to the message, present only for
	// sandbox transports (Ethereal)
	PreviewURL string
	// SentAt is when the delivery completed
	SentAt time.Time
}
