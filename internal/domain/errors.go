package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrBackendDisabled   = errors.New("persistence backend not configured")
	ErrNoSession         = errors.New("sign-in required")
	ErrMalformedEmail    = errors.New("malformed email address")
	ErrDelivery          = errors.New("sign-in link delivery failed")
	ErrInvalidToken      = errors.New("invalid or expired sign-in token")
	ErrUnknownTemplate   = errors.New("unknown template")
	ErrUnknownSection    = errors.New("unknown section")
	ErrCheckoutClosed    = errors.New("checkout is not open")
	ErrMethodLocked      = errors.New("payment method cannot change while a payment is pending")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrNoArtifact        = errors.New("no exported document available")
	ErrUnsupportedPhoto  = errors.New("photo must be an image")
	ErrPhotoTooLarge     = errors.New("photo exceeds maximum size")
	ErrStalePhoto        = errors.New("a newer photo upload superseded this one")
)

// ValidationError carries per-field messages for a rejected draft.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NetworkError wraps a failed call to a remote collaborator.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err came from a remote collaborator.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
