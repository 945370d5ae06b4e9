package user

import "github.com/mcash/mcash-api/internal/pkg/apperr"

var (
	ErrUserNotFound    = apperr.New(apperr.NotFound, "user not found")
	ErrAgentNotFound   = apperr.New(apperr.NotFound, "agent not found")
	ErrPhoneTaken      = apperr.New(apperr.AlreadyExists, "user already exists")
	ErrNotAnAgent      = apperr.New(apperr.NotAnAgent, "user is not an agent")
	ErrAlreadyApproved = apperr.New(apperr.AlreadyApproved, "agent is already approved")
	ErrInvalidRole     = apperr.New(apperr.ValidationFailed, "invalid role")
	ErrWeakPassword    = apperr.New(apperr.ValidationFailed, "password must be at least 6 characters long")
)
