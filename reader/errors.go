package reader

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors callers branch on. They surface through APIError's
// Unwrap, so errors.Is works on anything a Client method returns.
var (
	// ErrLoginRequired means the server no longer recognizes the
	// session. Callers should send the reader to the login flow.
	ErrLoginRequired = errors.New("login required")

	// ErrInsufficientBalance means the reader's coin balance does not
	// cover the chapter price. Callers should offer the coin storefront.
	ErrInsufficientBalance = errors.New("insufficient coin balance")

	// ErrNotFound means the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStillLocked is returned by UnlockChapter when a purchase was
	// accepted but the refetched chapter still has no content.
	ErrStillLocked = errors.New("chapter still locked after purchase")

	// ErrToggleInFlight is returned when an engagement toggle for the
	// same series is already running.
	ErrToggleInFlight = errors.New("toggle already in flight")
)

// APIError is a failure envelope from the platform.
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Unwrap maps well-known status codes to sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrLoginRequired
	case http.StatusPaymentRequired:
		return ErrInsufficientBalance
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
