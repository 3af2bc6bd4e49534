package core

import (
	"errors"
	"fmt"
)

// Error categories. Every operation failure wraps exactly one of these, so
// callers can classify errors with errors.Is without matching specific
// conditions.
var (
	// ErrPrecondition is returned when an operation is attempted against
	// a state it is not allowed in: wrong coin state, wrong caller or a
	// wrong bond.
	ErrPrecondition = errors.New("precondition violation")
	// ErrProofInvalid is returned when a submitted proof does not hold
	// up: signature mismatch, membership check failure or block ordering
	// violation.
	ErrProofInvalid = errors.New("proof invalid")
	// ErrInvariant is returned when an internal resource invariant is
	// broken. These should be unreachable.
	ErrInvariant = errors.New("resource invariant violation")
)

// Specific failures, each wrapping its category.
var (
	ErrUnauthorized   = fmt.Errorf("%w: caller not authorized", ErrPrecondition)
	ErrCoinNotFound   = fmt.Errorf("%w: unknown coin", ErrPrecondition)
	ErrWrongCoinState = fmt.Errorf("%w: coin in wrong state", ErrPrecondition)
	ErrWrongOwner     = fmt.Errorf("%w: caller does not own the claim", ErrPrecondition)
	ErrInvalidBond    = fmt.Errorf("%w: wrong bond amount", ErrPrecondition)
	ErrNoCustodian    = fmt.Errorf("%w: no asset custodian bound", ErrPrecondition)

	ErrTxDecode         = fmt.Errorf("%w: malformed transaction", ErrProofInvalid)
	ErrSlotMismatch     = fmt.Errorf("%w: transaction slot mismatch", ErrProofInvalid)
	ErrBlockOrder       = fmt.Errorf("%w: block numbers out of order", ErrProofInvalid)
	ErrUnknownBlock     = fmt.Errorf("%w: unknown child block", ErrProofInvalid)
	ErrTxNotIncluded    = fmt.Errorf("%w: transaction not included in block", ErrProofInvalid)
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrProofInvalid)

	ErrBondUnderflow = fmt.Errorf("%w: bonded balance underflow", ErrInvariant)
	ErrBlockExists   = fmt.Errorf("%w: child block already recorded", ErrInvariant)
)
