package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/wibutime/authcore/jwt"
)

// AuditErrorCode defines a public type used by authcore APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUserNotFound      AuditErrorCode = "user_not_found"
	auditErrIncorrectPassword AuditErrorCode = "incorrect_password"
	auditErrDuplicate         AuditErrorCode = "duplicate"
	auditErrValidation        AuditErrorCode = "validation"
	auditErrPasswordPolicy    AuditErrorCode = "password_policy"
	auditErrCodeInvalid       AuditErrorCode = "code_invalid"
	auditErrCodeExpired       AuditErrorCode = "code_expired"
	auditErrCodeNotFound      AuditErrorCode = "code_not_found"
	auditErrProofInvalid      AuditErrorCode = "reset_proof_invalid"
	auditErrDeliveryFailed    AuditErrorCode = "delivery_failed"
	auditErrInvalidToken      AuditErrorCode = "invalid_token"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrInternal          AuditErrorCode = "internal_error"
)

const (
	auditResultSuccess = "SUCCESS"
	auditResultFailure = "FAILURE"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	action AuditAction,
	actor AuditActor,
	success bool,
	userID string,
	message string,
	err error,
) {
	if e == nil || e.audit == nil {
		return
	}

	level := LevelInfo
	result := auditResultSuccess
	if !success {
		level = LevelError
		result = auditResultFailure
	}

	event := AuditEvent{
		Timestamp: time.Now().In(jwt.ReferenceLocation),
		Action:    action,
		Actor:     actor,
		Level:     level,
		UserID:    userID,
		Message:   message,
		Result:    result,
		Public:    actor == ActorUser,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrIncorrectPassword):
		return auditErrIncorrectPassword
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrCodeInvalid):
		return auditErrCodeInvalid
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrCodeNotFound):
		return auditErrCodeNotFound
	case errors.Is(err, ErrResetProofInvalid):
		return auditErrProofInvalid
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
