package checkout

import (
	"errors"
	"fmt"
)

// ErrSubmissionInProgress is returned when Submit is called while an attempt is outstanding
var ErrSubmissionInProgress = errors.New("order submission already in progress")

// ErrEmptyCart matches any EmptyCartError
var ErrEmptyCart = &EmptyCartError{}

// EmptyCartError is returned when the cart has no lines; no network call is made
type EmptyCartError struct{}

func (e *EmptyCartError) Error() string { return "cart is empty" }

func (e *EmptyCartError) Is(target error) bool {
	_, ok := target.(*EmptyCartError)
	return ok
}

// IdentityError is returned when the customer could not be identified.
// LoginTriggered means the provider started a login flow and the attempt was abandoned.
type IdentityError struct {
	LoginTriggered bool
	Err            error
}

func (e *IdentityError) Error() string {
	if e.LoginTriggered {
		return "not authenticated: login required"
	}
	return fmt.Sprintf("identity unavailable: %v", e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// TransportError covers network failures, timeouts and non-success HTTP statuses
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("order sink returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("order sink unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is returned when the sink response is not the expected envelope
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("order sink response unreadable: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RejectedError carries an explicit error status from the sink
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "order rejected"
	}
	return "order rejected: " + e.Message
}

// Retryable reports whether err leaves the cart intact for a user-initiated retry
func Retryable(err error) bool {
	var (
		transportErr *TransportError
		parseErr     *ParseError
		rejectedErr  *RejectedError
	)
	return errors.As(err, &transportErr) || errors.As(err, &parseErr) || errors.As(err, &rejectedErr)
}
