package authcore

import (
	"context"

	"github.com/wibutime/authcore/internal/metrics"
	"github.com/wibutime/authcore/internal/stores"
	"github.com/wibutime/authcore/password"
)

// ForgotPassword issues a FORGOT_PASSWORD code for the address and hands it
// to the notifier.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email)
	if err != nil {
		e.emitAudit(ctx, ActionSendCode, ActorUser, false, "", "reset code request for unknown address", err)
		return err
	}

	code, err := e.codes.Issue(ctx, stores.PurposeForgotPassword, email)
	if err != nil {
		return e.infraError("reset.issue", err)
	}
	e.metricInc(metrics.CodeIssued)

	if err := e.notifier.SendCode(ctx, email, user.Name, stores.PurposeForgotPassword, code); err != nil {
		e.emitAudit(ctx, ActionSendCode, ActorSystem, false, formatUserID(user.ID), "reset code delivery failed", ErrDeliveryFailed)
		return ErrDeliveryFailed
	}

	e.emitAudit(ctx, ActionSendCode, ActorUser, true, formatUserID(user.ID), "reset code sent", nil)
	return nil
}

// VerifyForgotPasswordCode consumes a FORGOT_PASSWORD code and mints a
// single-use reset-proof token. [Engine.ResetPassword] requires the proof,
// so guessing a code alone never rewrites a credential.
func (e *Engine) VerifyForgotPasswordCode(ctx context.Context, email, code string) (string, error) {
	if e == nil || e.codes == nil {
		return "", ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email)
	if err != nil {
		return "", err
	}

	if err := e.consumeCode(ctx, ActionResetPassword, stores.PurposeForgotPassword, email, code, user.ID); err != nil {
		return "", err
	}

	proof, err := e.codes.IssueProof(ctx, email)
	if err != nil {
		return "", e.infraError("reset.proof", err)
	}

	e.emitAudit(ctx, ActionResetPassword, ActorUser, true, formatUserID(user.ID), "reset code verified, proof issued", nil)
	return proof, nil
}

// ResetPassword consumes the reset-proof token and writes the new credential
// hash. The proof is single-use: replays and mismatches leave the stored
// hash untouched.
func (e *Engine) ResetPassword(ctx context.Context, email, proof, newEncodedPassword string) error {
	if e == nil || e.codes == nil {
		return ErrEngineNotReady
	}
	email = normalizeEmail(email)

	user, err := e.findUser(ctx, email)
	if err != nil {
		return err
	}

	// Policy check precedes proof consumption so a rejected replacement
	// password does not burn the single-use proof.
	if err := e.checkNewPassword(ctx, ActionResetPassword, user.ID, newEncodedPassword); err != nil {
		return err
	}

	outcome, err := e.codes.ConsumeProof(ctx, email, proof)
	if err != nil {
		return e.infraError("reset.consume_proof", err)
	}
	if outcome != stores.Consumed {
		e.emitAudit(ctx, ActionResetPassword, ActorUser, false, formatUserID(user.ID), "reset rejected: proof invalid", ErrResetProofInvalid)
		return ErrResetProofInvalid
	}

	hash, err := e.hasher.Hash(newEncodedPassword)
	if err != nil {
		return e.infraError("password.hash", err)
	}

	if err := e.directory.UpdatePassword(ctx, email, hash); err != nil {
		return e.infraError("reset.update", err)
	}

	e.metricInc(metrics.PasswordReset)
	e.emitAudit(ctx, ActionResetPassword, ActorUser, true, formatUserID(user.ID), "password reset", nil)
	return nil
}

// checkNewPassword applies the transport decode and length policy to a
// replacement credential without hashing it.
func (e *Engine) checkNewPassword(ctx context.Context, action AuditAction, userID int64, encoded string) error {
	plain, err := password.DecodeTransport(encoded)
	if err != nil {
		e.emitAudit(ctx, action, ActorUser, false, formatUserID(userID), "new password rejected: malformed encoding", ErrValidation)
		return ErrValidation
	}
	if len(plain) < e.config.Password.MinLength {
		e.emitAudit(ctx, action, ActorUser, false, formatUserID(userID), "new password rejected: below minimum length", ErrPasswordPolicy)
		return ErrPasswordPolicy
	}
	return nil
}

// hashNewPassword applies checkNewPassword and hashes the replacement.
func (e *Engine) hashNewPassword(ctx context.Context, action AuditAction, userID int64, encoded string) (string, error) {
	if err := e.checkNewPassword(ctx, action, userID, encoded); err != nil {
		return "", err
	}

	hash, err := e.hasher.Hash(encoded)
	if err != nil {
		return "", e.infraError("password.hash", err)
	}
	return hash, nil
}
