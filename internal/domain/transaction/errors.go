package transaction

import "github.com/mcash/mcash-api/internal/pkg/apperr"

var (
	ErrNotFound           = apperr.New(apperr.NotFound, "transaction not found")
	ErrForbidden          = apperr.New(apperr.Forbidden, "you can only view your own transactions")
	ErrDescriptionTooLong = apperr.New(apperr.ValidationFailed, "description cannot exceed 200 characters")
	ErrInvalidType        = apperr.New(apperr.ValidationFailed, "invalid transaction type")
	ErrInvalidStatus      = apperr.New(apperr.ValidationFailed, "invalid transaction status")
	ErrDuplicateReference = apperr.New(apperr.Conflict, "transaction reference collision, please retry")
)
