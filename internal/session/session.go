// Package session holds the per-user drafting flow: recipients, prompt,
// draft and transient status, coordinated across the generate and send
// operations. One session belongs to one user and is never shared between
// goroutines.
package session

import (
	"errors"
	"time"

	"github.com/maildraft/maildraft/internal/draft"
	"github.com/maildraft/maildraft/internal/recipient"
)

// State is the position in the drafting flow
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateDrafted
	StateSending
	StateSent
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateDrafted:
		return "drafted"
	case StateSending:
		return "sending"
	case StateSent:
		return "sent"
	default:
		return "unknown"
	}
}

// StatusKind classifies a transient status banner
type StatusKind int

const (
	KindSuccess StatusKind = iota
	KindError
)

// StatusMessage is a transient banner with a fixed display timeout
type StatusMessage struct {
	Kind StatusKind
	Text string
}

const (
	// statusTimeout is how long a status banner stays visible
	statusTimeout = 5 * time.Second
	// resetDelay is how long a completed send is shown before the form resets
	resetDelay = 2 * time.Second
)

// ErrInvalidTransition is returned when an operation is not legal in the
// current state. Errors never advance the state; existing form data stays
// intact so the user can retry.
var ErrInvalidTransition = errors.New("session: operation not valid in current state")

// ErrNoPrompt is returned when generation is requested without a prompt
var ErrNoPrompt = errors.New("session: prompt is empty")

// ErrNoRecipients is returned when sending is requested without recipients
var ErrNoRecipients = errors.New("session: no recipients")

// Session is the drafting flow state machine
type Session struct {
	clock func() time.Time

	state      State
	prev       State
	recipients *recipient.Set
	prompt     string
	context    string
	senderName string
	draft      *draft.Draft

	status          *StatusMessage
	statusExpiresAt time.Time
	resetAt         time.Time
}

// New creates an idle session using the wall clock
func New() *Session {
	return NewWithClock(time.Now)
}

// NewWithClock creates an idle session with an injected clock
func NewWithClock(clock func() time.Time) *Session {
	return &Session{
		clock:      clock,
		state:      StateIdle,
		recipients: recipient.New(),
		context:    "Professional email",
	}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Recipients returns the session's recipient set
func (s *Session) Recipients() *recipient.Set {
	return s.recipients
}

// Draft returns the current draft, or nil outside Drafted/Sending/Sent
func (s *Session) Draft() *draft.Draft {
	return s.draft
}

// Prompt returns the current prompt text
func (s *Session) Prompt() string {
	return s.prompt
}

// Context returns the context label sent with generation requests
func (s *Session) Context() string {
	return s.context
}

// SenderName returns the optional sender display name
func (s *Session) SenderName() string {
	return s.senderName
}

// SetPrompt updates the prompt text
func (s *Session) SetPrompt(p string) {
	s.prompt = p
}

// SetContext updates the context label
func (s *Session) SetContext(c string) {
	s.context = c
}

// SetSenderName updates the sender display name
func (s *Session) SetSenderName(n string) {
	s.senderName = n
}

// AddRecipient validates and adds an address. Validation failures are
// returned to the caller for inline display; they do not raise a status
// banner or touch the state.
func (s *Session) AddRecipient(raw string) error {
	return s.recipients.Add(raw)
}

// RemoveRecipient removes an address; removing a non-member is a no-op
func (s *Session) RemoveRecipient(addr string) {
	s.recipients.Remove(addr)
}

// BeginGenerate moves into Generating. Legal from Idle and Drafted
// (regenerating replaces the draft when the call completes).
func (s *Session) BeginGenerate() error {
	if s.state != StateIdle && s.state != StateDrafted {
		return ErrInvalidTransition
	}
	if s.prompt == "" {
		s.fail("Please enter a prompt for your email")
		return ErrNoPrompt
	}
	s.prev = s.state
	s.state = StateGenerating
	return nil
}

// CompleteGenerate stores the new draft and moves to Drafted
func (s *Session) CompleteGenerate(d draft.Draft) error {
	if s.state != StateGenerating {
		return ErrInvalidTransition
	}
	s.draft = &d
	s.state = StateDrafted
	s.succeed("Email generated successfully!")
	return nil
}

// FailGenerate returns to the state generation started from and raises an
// error banner; any existing draft survives.
func (s *Session) FailGenerate(message string) error {
	if s.state != StateGenerating {
		return ErrInvalidTransition
	}
	s.state = s.prev
	s.fail(message)
	return nil
}

// EditSubject mutates the draft's subject in place; legal only in Drafted
func (s *Session) EditSubject(subject string) error {
	if s.state != StateDrafted || s.draft == nil {
		return ErrInvalidTransition
	}
	s.draft.Subject = subject
	return nil
}

// EditBody mutates the draft's body in place; legal only in Drafted
func (s *Session) EditBody(body string) error {
	if s.state != StateDrafted || s.draft == nil {
		return ErrInvalidTransition
	}
	s.draft.Body = body
	return nil
}

// Discard drops the draft and returns to Idle
func (s *Session) Discard() error {
	if s.state != StateDrafted {
		return ErrInvalidTransition
	}
	s.draft = nil
	s.state = StateIdle
	return nil
}

// BeginSend moves into Sending. Requires a draft and at least one recipient.
func (s *Session) BeginSend() error {
	if s.state != StateDrafted {
		return ErrInvalidTransition
	}
	if s.recipients.Len() == 0 {
		s.fail("Please generate an email and add recipients first")
		return ErrNoRecipients
	}
	s.state = StateSending
	return nil
}

// CompleteSend marks the delivery done and schedules the form reset
func (s *Session) CompleteSend() error {
	if s.state != StateSending {
		return ErrInvalidTransition
	}
	s.state = StateSent
	s.resetAt = s.clock().Add(resetDelay)
	s.succeed("Email sent successfully!")
	return nil
}

// FailSend returns to Drafted with an error banner, leaving the draft and
// recipients intact for a retry.
func (s *Session) FailSend(message string) error {
	if s.state != StateSending {
		return ErrInvalidTransition
	}
	s.state = StateDrafted
	s.fail(message)
	return nil
}

// Status returns the visible status banner, or nil when none is showing
func (s *Session) Status() *StatusMessage {
	return s.status
}

// Tick advances time-driven behavior: status banners expire after their
// display timeout, and a completed send resets the form back to Idle after
// the post-send delay. Call it from the UI loop; it never errors.
func (s *Session) Tick() {
	now := s.clock()

	if s.status != nil && !now.Before(s.statusExpiresAt) {
		s.status = nil
	}

	if s.state == StateSent && !now.Before(s.resetAt) {
		s.prompt = ""
		s.draft = nil
		s.recipients.Clear()
		s.state = StateIdle
	}
}

func (s *Session) succeed(text string) {
	s.status = &StatusMessage{Kind: KindSuccess, Text: text}
	s.statusExpiresAt = s.clock().Add(statusTimeout)
}

func (s *Session) fail(text string) {
	s.status = &StatusMessage{Kind: KindError, Text: text}
	s.statusExpiresAt = s.clock().Add(statusTimeout)
}
