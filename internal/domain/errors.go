package domain

import "errors"

// Boundary error taxonomy. Handlers map these to HTTP statuses; services
// wrap them with context via fmt.Errorf("...: %w", Err...).
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("unauthorized")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream gateway error")
	// ErrIntegrity marks a detected invariant violation. It is a bug, not a
	// user error; callers must log it with full context before returning.
	ErrIntegrity = errors.New("integrity violation")
)

// Wallet ledger outcomes.
var (
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)

// Withdrawal preconditions, reported distinctly so clients can render the
// correct recovery guidance.
var (
	ErrBelowMinimum      = errors.New("amount below withdrawal minimum")
	ErrUnverifiedAccount = errors.New("bank account not verified")
	ErrPendingExists     = errors.New("a pending withdrawal already exists")
)

// Ticket issuance outcomes.
var (
	ErrEventFull = errors.New("event is at capacity")
)
