// Package draft turns unreliable language-model output into a well-formed
// subject/body pair.
package draft

import (
	"encoding/json"
	"strings"
	"time"
)

// FallbackSubject is used when the model output yields no usable first line
const FallbackSubject = "Generated Email"

// Draft is the editable subject/body pair produced by the generation step
type Draft struct {
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// structured is the shape the model is instructed to return. Pointers
// distinguish absent keys from empty strings.
type structured struct {
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
}

// Normalize converts raw model output into a Draft. It first attempts a strict
// JSON decode expecting both "subject" and "body" keys; when that fails it
// falls back to treating the first line as the subject and the rest as the
// body. Normalize is total and pure: any input, including the empty string,
// yields a Draft with both fields set (possibly to fallback values).
//
// The fallback assumes the model's first line is the subject. A multi-line
// subject will be split across subject and body; callers get the documented
// heuristic, not a smarter guess.
func Normalize(raw string) Draft {
	if d, ok := decodeStructured(raw); ok {
		return d
	}

	lines := strings.Split(raw, "\n")
	subject := lines[0]
	if subject == "" {
		subject = FallbackSubject
	}
	body := strings.Join(lines[1:], "\n")
	if body == "" {
		body = raw
	}
	return Draft{Subject: subject, Body: body}
}

func decodeStructured(raw string) (Draft, bool) {
	var s structured
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Draft{}, false
	}
	if s.Subject == nil || s.Body == nil {
		return Draft{}, false
	}
	return Draft{Subject: *s.Subject, Body: *s.Body}, true
}
