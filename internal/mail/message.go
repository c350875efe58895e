package mail

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewMessageID generates an RFC 5322 message identifier scoped to the
// sender's domain.
func NewMessageID(senderEmail string) string {
	domain := "maildraft.local"
	if i := strings.LastIndex(senderEmail, "@"); i >= 0 && i < len(senderEmail)-1 {
		domain = senderEmail[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

// formatMessage renders msg as a raw RFC 822 message. When both bodies are
// present it produces multipart/alternative with the plain-text part first.
func formatMessage(msg Message, messageID string, now time.Time) string {
	headers := []string{
		"From: " + msg.From.String(),
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + msg.Subject,
		"Message-ID: " + messageID,
		"Date: " + now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
	}

	if msg.HTMLBody != "" && msg.TextBody != "" {
		boundary := "boundary_maildraft_alt"
		return strings.Join(append(headers,
			"Content-Type: multipart/alternative; boundary="+boundary,
			"",
			"--"+boundary,
			"Content-Type: text/plain; charset=UTF-8",
			"Content-Transfer-Encoding: 7bit",
			"",
			msg.TextBody,
			"",
			"--"+boundary,
			"Content-Type: text/html; charset=UTF-8",
			"Content-Transfer-Encoding: 7bit",
			"",
			msg.HTMLBody,
			"",
			"--"+boundary+"--",
		), "\r\n")
	}

	if msg.HTMLBody != "" {
		return strings.Join(append(headers,
			"Content-Type: text/html; charset=UTF-8",
			"",
			msg.HTMLBody,
		), "\r\n")
	}

	return strings.Join(append(headers,
		"Content-Type: text/plain; charset=UTF-8",
		"",
		msg.TextBody,
	), "\r\n")
}
