// Package apperr classifies domain failures so transports can render them
// without knowing which package raised them.
package apperr

import "errors"

// Kind is the category of a failure.
type Kind string

const (
	NotFound            Kind = "NOT_FOUND"
	WalletBlocked       Kind = "WALLET_BLOCKED"
	InsufficientBalance Kind = "INSUFFICIENT_BALANCE"
	LimitExceeded       Kind = "LIMIT_EXCEEDED"
	NotApprovedAgent    Kind = "NOT_APPROVED_AGENT"
	AlreadyApproved     Kind = "ALREADY_APPROVED"
	NotAnAgent          Kind = "NOT_AN_AGENT"
	AlreadyExists       Kind = "ALREADY_EXISTS"
	ValidationFailed    Kind = "VALIDATION_FAILED"
	Forbidden           Kind = "FORBIDDEN"
	Conflict            Kind = "CONFLICT"
	Internal            Kind = "INTERNAL"
)

// Error is a classified error. Domain packages declare package-level
// sentinels of this type and compare them with errors.Is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a classified sentinel error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrConflict = New(Conflict, "concurrent update, please retry")
	ErrInternal = New(Internal, "internal error")
)

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Retryable reports whether the caller may safely repeat the operation.
func Retryable(err error) bool {
	return KindOf(err) == Conflict
}

// Detailer is implemented by errors that carry structured details for clients.
type Detailer interface {
	Details() map[string]string
}
