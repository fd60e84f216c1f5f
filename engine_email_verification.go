package authcore

import (
	"context"
	"errors"

	"github.com/wibutime/authcore/directory"
	"github.com/wibutime/authcore/internal/metrics"
	"github.com/wibutime/authcore/internal/stores"
)

// SendVerificationEmail issues a fresh EMAIL_VERIFY code for the address and
// hands it to the notifier. Any outstanding code on the channel is replaced.
func (e *Engine) SendVerificationEmail(ctx context.Context, email string) error {
	if e == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email)
	if err != nil {
		e.emitAudit(ctx, ActionSendCode, ActorUser, false, "", "verification code request for unknown address", err)
		return err
	}

	code, err := e.codes.Issue(ctx, stores.PurposeEmailVerify, email)
	if err != nil {
		return e.infraError("verification.issue", err)
	}
	e.metricInc(metrics.CodeIssued)

	if err := e.notifier.SendCode(ctx, email, user.Name, stores.PurposeEmailVerify, code); err != nil {
		e.emitAudit(ctx, ActionSendCode, ActorSystem, false, formatUserID(user.ID), "verification code delivery failed", ErrDeliveryFailed)
		return ErrDeliveryFailed
	}

	e.emitAudit(ctx, ActionSendCode, ActorUser, true, formatUserID(user.ID), "verification code sent", nil)
	return nil
}

// VerifyEmail consumes an EMAIL_VERIFY code and, on success, marks the
// address verified.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) error {
	if e == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email)
	if err != nil {
		return err
	}

	if err := e.consumeCode(ctx, ActionVerificationEmail, stores.PurposeEmailVerify, email, code, user.ID); err != nil {
		return err
	}

	if err := e.directory.MarkEmailVerified(ctx, email); err != nil {
		return e.infraError("verification.mark", err)
	}

	e.metricInc(metrics.EmailVerified)
	e.emitAudit(ctx, ActionVerificationEmail, ActorUser, true, formatUserID(user.ID), "email verified", nil)
	return nil
}

func (e *Engine) findUser(ctx context.Context, email string, opts ...directory.FindOption) (*directory.User, error) {
	user, err := e.directory.FindByEmailOrUsername(ctx, email, opts...)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, e.infraError("directory.find", err)
	}
	return user, nil
}

// consumeCode validates a one-time code and maps the store outcome onto the
// engine's sentinel errors, emitting the failure audit trail on the way.
func (e *Engine) consumeCode(ctx context.Context, action AuditAction, purpose stores.Purpose, email, code string, userID int64) error {
	outcome, err := e.codes.Validate(ctx, purpose, email, code)
	if err != nil {
		return e.infraError("codes.validate", err)
	}

	switch outcome {
	case stores.Consumed:
		e.metricInc(metrics.CodeConsumed)
		return nil
	case stores.Invalid:
		e.metricInc(metrics.CodeRejected)
		e.emitAudit(ctx, action, ActorUser, false, formatUserID(userID), "code rejected: mismatch", ErrCodeInvalid)
		return ErrCodeInvalid
	case stores.Expired:
		e.metricInc(metrics.CodeRejected)
		e.emitAudit(ctx, action, ActorUser, false, formatUserID(userID), "code rejected: expired", ErrCodeExpired)
		return ErrCodeExpired
	default:
		e.metricInc(metrics.CodeRejected)
		e.emitAudit(ctx, action, ActorUser, false, formatUserID(userID), "code rejected: no record", ErrCodeNotFound)
		return ErrCodeNotFound
	}
}
