package errorhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcash/mcash-api/internal/pkg/apperr"
	"github.com/mcash/mcash-api/internal/pkg/logger"
	"github.com/mcash/mcash-api/internal/pkg/response"
)

var statusByKind = map[apperr.Kind]int{
	apperr.NotFound:            http.StatusNotFound,
	apperr.WalletBlocked:       http.StatusForbidden,
	apperr.InsufficientBalance: http.StatusBadRequest,
	apperr.LimitExceeded:       http.StatusBadRequest,
	apperr.NotApprovedAgent:    http.StatusForbidden,
	apperr.AlreadyApproved:     http.StatusConflict,
	apperr.NotAnAgent:          http.StatusBadRequest,
	apperr.AlreadyExists:       http.StatusConflict,
	apperr.ValidationFailed:    http.StatusUnprocessableEntity,
	apperr.Forbidden:           http.StatusForbidden,
	apperr.Conflict:            http.StatusConflict,
	apperr.Internal:            http.StatusInternalServerError,
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Handle logs err with the request-scoped logger and writes the error envelope.
// Store failures are logged in full but rendered with a generic message.
func Handle(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := Status(err)

	message := err.Error()
	switch kind {
	case apperr.Internal:
		message = "An unexpected error occurred"
	case apperr.Conflict:
		message = apperr.ErrConflict.Message
	}

	var details map[string]string
	var d apperr.Detailer
	if errors.As(err, &d) {
		details = d.Details()
	}

	if status >= http.StatusInternalServerError || kind == apperr.Conflict {
		logger.LogError(ctx, err, "Request error", "error_code", string(kind), "status_code", status)
	} else {
		logger.LogDebug(ctx, "Request rejected", "error_code", string(kind), "status_code", status, "reason", err.Error())
	}

	response.ErrorWithDetails(w, status, string(kind), message, details)
}

// HandlePanic logs a recovered panic with its stack and answers 500.
func HandlePanic(ctx context.Context, w http.ResponseWriter, recovered interface{}, stack string) {
	logger.FromContext(ctx).Error().
		Interface("panic_error", recovered).
		Str("panic_stack", stack).
		Msg("Request panic error")

	response.InternalError(w)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	logger.FromContext(ctx).Warn().
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}
