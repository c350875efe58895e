package mail

import "fmt"

// Error codes carried on TransportError. The names follow the conventions of
// the mail tooling the browser client already understands.
const (
	CodeAuth       = "EAUTH"
	CodeConnection = "ECONNECTION"
)

// TransportError wraps a provider failure with enough detail for diagnostics:
// a short machine code, the SMTP reply code when one was seen, and the
// underlying error verbatim.
type TransportError struct {
	Code         string
	ResponseCode int
	Err          error
}

func (e *TransportError) Error() string {
	switch {
	case e.Code != "" && e.ResponseCode != 0:
		return fmt.Sprintf("mail: %s (%d): %v", e.Code, e.ResponseCode, e.Err)
	case e.Code != "":
		return fmt.Sprintf("mail: %s: %v", e.Code, e.Err)
	case e.ResponseCode != 0:
		return fmt.Sprintf("mail: reply %d: %v", e.ResponseCode, e.Err)
	default:
		return fmt.Sprintf("mail: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the failure was an authentication rejection
func (e *TransportError) IsAuth() bool {
	return e.Code == CodeAuth || e.ResponseCode == 535
}

// IsConnection reports whether the failure happened before the provider
// accepted the session
func (e *TransportError) IsConnection() bool {
	return e.Code == CodeConnection
}
