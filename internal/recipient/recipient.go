// Package recipient maintains the ordered, deduplicated list of destination
// addresses for one drafting session.
package recipient

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyInput is returned when the input is empty after trimming
	ErrEmptyInput = errors.New("recipient: address is empty")
	// ErrInvalidFormat is returned when the input does not look like an email address
	ErrInvalidFormat = errors.New("recipient: invalid address format")
	// ErrDuplicate is returned when the address is already in the set
	ErrDuplicate = errors.New("recipient: address already added")
)

// addressPattern accepts local@domain.tld shapes: no whitespace, no extra "@",
// and at least one dot after the "@". Deliberately loose; deliverability is the
// transport's problem.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Set is an ordered collection of validated, lowercased addresses.
// Insertion order is preserved and significant for display. A Set is intended
// for single-goroutine sequential use; it carries no internal locking.
type Set struct {
	addrs []string
}

// New returns an empty Set
func New() *Set {
	return &Set{}
}

// Add validates raw, normalizes it (trim + lowercase) and appends it to the set.
// It returns ErrEmptyInput, ErrInvalidFormat or ErrDuplicate on rejection; the
// set is unchanged on any error.
func (s *Set) Add(raw string) error {
	addr := strings.ToLower(strings.TrimSpace(raw))
	if addr == "" {
		return ErrEmptyInput
	}
	if !addressPattern.MatchString(addr) {
		return ErrInvalidFormat
	}
	if s.Contains(addr) {
		return ErrDuplicate
	}
	s.addrs = append(s.addrs, addr)
	return nil
}

// Remove deletes addr from the set. Removing a non-member is a no-op.
func (s *Set) Remove(addr string) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	for i, a := range s.addrs {
		if a == addr {
			s.addrs = append(s.addrs[:i], s.addrs[i+1:]...)
			return
		}
	}
}

// Contains reports whether addr is a member (case-insensitive)
func (s *Set) Contains(addr string) bool {
	addr = strings.ToLower(strings.TrimSpace(addr))
	for _, a := range s.addrs {
		if a == addr {
			return true
		}
	}
	return false
}

// Len returns the number of addresses
func (s *Set) Len() int {
	return len(s.addrs)
}

// Addresses returns the members in insertion order. The returned slice is a
// copy; mutating it does not affect the set.
func (s *Set) Addresses() []string {
	out := make([]string, len(s.addrs))
	copy(out, s.addrs)
	return out
}

// Clear empties the set
func (s *Set) Clear() {
	s.addrs = s.addrs[:0]
}

// Valid reports whether a single address passes the same syntactic check Add
// applies, without mutating any set.
func Valid(raw string) bool {
	return addressPattern.MatchString(strings.ToLower(strings.TrimSpace(raw)))
}
