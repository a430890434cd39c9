// Package campaign implements the Campaign Dispatcher (spec §4.9): the
// concurrency-bounded outbound call queue, per-campaign reconciliation
// against carrier status callbacks, and retry/back-off for transient
// dial failures. The actual carrier call placement is an external
// collaborator (spec §1 non-goal: "billing ... the admin UI" and the HTTP
// controllers are out of scope) reached through the CallInitiator
// interface below.
package campaign

import "context"

// CallInitiator places one outbound call leg for a lead and returns the
// carrier-assigned CallID. A non-nil error with Retryable true is retried
// by the dispatcher up to twice with a 2s back-off (spec §4.9: "Retries per
// call: up to 2 on transient errors ... with 2-second back-off").
type CallInitiator interface {
	InitiateCall(ctx context.Context, campaignID, leadID, agentID, phoneNumber string) (callID string, err error)
}

// InitiateError lets a CallInitiator distinguish transient from permanent
// failures without the dispatcher importing carrier-specific error types.
type InitiateError struct {
	Retryable bool
	Err       error
}

func (e *InitiateError) Error() string { return e.Err.Error() }
func (e *InitiateError) Unwrap() error { return e.Err }

// Retryable reports whether err (as returned by a CallInitiator) should be
// retried per spec §4.9. Any error not wrapping *InitiateError is treated
// as non-retryable, matching the spec's "non-retryable errors mark the
// call FAILED" default.
func Retryable(err error) bool {
	ie, ok := err.(*InitiateError)
	return ok && ie.Retryable
}
