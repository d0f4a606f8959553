package errors

import (
	"fmt"
	"strings"
)

// Attempt records the outcome of a single credential attempt inside a
// failover sequence.
type Attempt struct {
	CredentialID string
	Err          error
}

// NoEligibleCredentialError indicates the key pool produced an empty
// attempt sequence for an organization. This is a configuration problem,
// not an execution failure, and is never retried.
type NoEligibleCredentialError struct {
	OrganizationID string
	Provider       string
}

func (e *NoEligibleCredentialError) Error() string {
	return fmt.Sprintf("no eligible credential for organization %s (provider %s)", e.OrganizationID, e.Provider)
}

// CredentialResolutionError indicates secret decryption or client
// construction failed for one credential. The failing credential is
// skipped without charging a provider-side attempt.
type CredentialResolutionError struct {
	CredentialID string
	Err          error
}

func (e *CredentialResolutionError) Error() string {
	return fmt.Sprintf("credential %s: resolution failed: %v", e.CredentialID, e.Err)
}

func (e *CredentialResolutionError) Unwrap() error { return e.Err }

// ProviderCallError indicates the provider rejected or errored a call made
// with one credential. StatusCode is zero for pure network errors.
type ProviderCallError struct {
	CredentialID string
	StatusCode   int
	Message      string
	Err          error
}

func (e *ProviderCallError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("credential %s: provider call failed (status %d): %s", e.CredentialID, e.StatusCode, msg)
	}
	return fmt.Sprintf("credential %s: provider call failed: %s", e.CredentialID, msg)
}

func (e *ProviderCallError) Unwrap() error { return e.Err }

// AggregatedFailureError is raised when every credential in an attempt
// sequence failed. It carries the full attempt trail; earlier errors are
// never dropped.
type AggregatedFailureError struct {
	Attempts []Attempt
}

func (e *AggregatedFailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all %d credential attempts failed", len(e.Attempts))
	if n := len(e.Attempts); n > 0 {
		fmt.Fprintf(&b, "; last: %v", e.Attempts[n-1].Err)
	}
	return b.String()
}

// Unwrap exposes every attempt error to errors.Is / errors.As.
func (e *AggregatedFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// LastError returns the error of the final attempt, or nil.
func (e *AggregatedFailureError) LastError() error {
	if n := len(e.Attempts); n > 0 {
		return e.Attempts[n-1].Err
	}
	return nil
}

// MalformedResultError indicates the provider reported a long-running
// operation as done but the expected artifact is absent. This is a data
// contract violation, not a transient fault, and is never retried.
type MalformedResultError struct {
	OperationID string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("operation %s: terminal result carries no artifact", e.OperationID)
}

// GatewayUnreachableError indicates the managed gateway path failed at the
// transport level (network error, timeout, or a non-2xx response without a
// provider error envelope). It triggers the direct-path fallback and is
// only surfaced if the direct path also fails.
type GatewayUnreachableError struct {
	Err error
}

func (e *GatewayUnreachableError) Error() string {
	return fmt.Sprintf("managed gateway unreachable: %v", e.Err)
}

func (e *GatewayUnreachableError) Unwrap() error { return e.Err }

// StreamInterruptedError indicates a chat stream failed after at least one
// chunk was already forwarded to the caller. Partial output cannot be
// un-sent, so there is no fallback.
type StreamInterruptedError struct {
	Delivered int
	Err       error
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("stream interrupted after %d chunks: %v", e.Delivered, e.Err)
}

func (e *StreamInterruptedError) Unwrap() error { return e.Err }
