package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller lacks the required role.
	ErrUnauthorized = errors.New("caller is not authorized")
	// ErrInvalidSignature is returned when a signature is malformed or does
	// not recover to the declared owner.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrAlreadyFinalized is returned when a terminal transition is attempted
	// on a legacy that has already been executed or revoked.
	ErrAlreadyFinalized = errors.New("legacy has been executed or revoked")
	// ErrInvalidParameters is returned when the legacy fields violate the
	// per-kind parameter rules.
	ErrInvalidParameters = errors.New("invalid transfer parameters")
	// ErrTransferFailed is returned when the asset ledger rejects the move.
	ErrTransferFailed = errors.New("asset transfer failed")
)

// InvalidParametersError reports which parameter rule a legacy violates.
type InvalidParametersError struct {
	Field  string
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid transfer parameters: %s %s", e.Field, e.Reason)
}

func (e *InvalidParametersError) Unwrap() error {
	return ErrInvalidParameters
}

// TransferFailedError wraps an asset ledger failure. The ledger record is left
// untouched when this is returned.
type TransferFailedError struct {
	Cause error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("asset transfer failed: %v", e.Cause)
}

func (e *TransferFailedError) Unwrap() error {
	return ErrTransferFailed
}
