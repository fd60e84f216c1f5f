package authcore

import (
	"context"

	"github.com/wibutime/authcore/directory"
	"github.com/wibutime/authcore/internal/metrics"
	"github.com/wibutime/authcore/internal/stores"
)

// RequestPasswordChange issues a CHANGE_PASSWORD code for the address and
// hands it to the notifier.
func (e *Engine) RequestPasswordChange(ctx context.Context, email string) error {
	if e == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email)
	if err != nil {
		e.emitAudit(ctx, ActionSendCode, ActorUser, false, "", "change code request for unknown address", err)
		return err
	}

	code, err := e.codes.Issue(ctx, stores.PurposeChangePassword, email)
	if err != nil {
		return e.infraError("change.issue", err)
	}
	e.metricInc(metrics.CodeIssued)

	if err := e.notifier.SendCode(ctx, email, user.Name, stores.PurposeChangePassword, code); err != nil {
		e.emitAudit(ctx, ActionSendCode, ActorSystem, false, formatUserID(user.ID), "change code delivery failed", ErrDeliveryFailed)
		return ErrDeliveryFailed
	}

	e.emitAudit(ctx, ActionSendCode, ActorUser, true, formatUserID(user.ID), "change code sent", nil)
	return nil
}

// VerifyChangePasswordCode consumes a CHANGE_PASSWORD code. The commit is a
// separate step: [Engine.ChangePassword] still re-verifies the current
// password before any mutation.
func (e *Engine) VerifyChangePasswordCode(ctx context.Context, email, code string) error {
	if e == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email)
	if err != nil {
		return err
	}

	if err := e.consumeCode(ctx, ActionChangePassword, stores.PurposeChangePassword, email, code, user.ID); err != nil {
		return err
	}

	e.emitAudit(ctx, ActionChangePassword, ActorUser, true, formatUserID(user.ID), "change code verified", nil)
	return nil
}

// ChangePassword verifies the current password against the stored hash and,
// only on a match, writes the new hash. A mismatch fails without mutation.
func (e *Engine) ChangePassword(ctx context.Context, email, oldEncodedPassword, newEncodedPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email, directory.WithPassword())
	if err != nil {
		return err
	}

	if user.PasswordHash == "" || !e.hasher.Verify(oldEncodedPassword, user.PasswordHash) {
		e.emitAudit(ctx, ActionChangePassword, ActorUser, false, formatUserID(user.ID), "change rejected: current password mismatch", ErrIncorrectPassword)
		return ErrIncorrectPassword
	}

	hash, err := e.hashNewPassword(ctx, ActionChangePassword, user.ID, newEncodedPassword)
	if err != nil {
		return err
	}

	if err := e.directory.UpdatePassword(ctx, email, hash); err != nil {
		return e.infraError("change.update", err)
	}

	e.metricInc(metrics.PasswordChanged)
	e.emitAudit(ctx, ActionChangePassword, ActorUser, true, formatUserID(user.ID), "password changed", nil)
	return nil
}
