package authcore

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/wibutime/authcore/directory"
	"github.com/wibutime/authcore/internal/metrics"
	"github.com/wibutime/authcore/internal/stores"
	"github.com/wibutime/authcore/password"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*directory.User, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrValidation
	}

	provider := input.Provider
	if provider == "" {
		provider = directory.ProviderCredentials
	}

	var hash string
	if provider == directory.ProviderCredentials {
		plain, err := password.DecodeTransport(input.Password)
		if err != nil {
			e.emitAudit(ctx, ActionRegister, ActorUser, false, "", "registration rejected: malformed password encoding", ErrValidation)
			return nil, ErrValidation
		}
		if len(plain) < e.config.Password.MinLength {
			e.emitAudit(ctx, ActionRegister, ActorUser, false, "", "registration rejected: password below minimum length", ErrPasswordPolicy)
			return nil, ErrPasswordPolicy
		}
		hash, err = e.hasher.Hash(input.Password)
		if err != nil {
			return nil, e.infraError("register.hash", err)
		}
	}

	created, err := e.directory.Create(ctx, &directory.User{
		Email:        email,
		Username:     input.Username,
		Name:         input.Name,
		PasswordHash: hash,
		Provider:     provider,
		Image:        input.Image,
	})
	if err != nil {
		if errors.Is(err, directory.ErrDuplicate) {
			e.metricInc(metrics.RegisterFailure)
			e.emitAudit(ctx, ActionRegister, ActorUser, false, "", "registration rejected: account exists", ErrAccountExists)
			return nil, ErrAccountExists
		}
		e.metricInc(metrics.RegisterFailure)
		return nil, e.infraError("register.create", err)
	}

	code, err := e.codes.Issue(ctx, stores.PurposeEmailVerify, email)
	if err != nil {
		// A store fault is not a mail-channel failure; compensate but
		// surface it as unavailability.
		e.compensateRegistration(ctx, created, ErrUnavailable, err)
		return nil, e.infraError("register.issue", err)
	}
	e.metricInc(metrics.CodeIssued)

	if err := e.notifier.SendCode(ctx, email, created.Name, stores.PurposeEmailVerify, code); err != nil {
		e.compensateRegistration(ctx, created, ErrDeliveryFailed, err)
		return nil, ErrDeliveryFailed
	}

	e.metricInc(metrics.RegisterSuccess)
	e.emitAudit(ctx, ActionRegister, ActorUser, true, formatUserID(created.ID), "account registered", nil)
	e.emitAudit(ctx, ActionVerificationEmail, ActorSystem, true, formatUserID(created.ID), "verification code delivered", nil)

	return created.WithoutSecrets(), nil
}

// compensateRegistration unwinds a created account whose verification code
// never reached the user. The user never saw a success, so no partial
// account may survive. reason is the sentinel recorded in the audit trail;
// cause is the underlying fault.
func (e *Engine) compensateRegistration(ctx context.Context, created *directory.User, reason, cause error) {
	e.logger.Error("verification code not delivered, rolling back registration",
		zap.Int64("user_id", created.ID), zap.Error(cause))

	if err := e.directory.Delete(ctx, created.ID); err != nil {
		// The rollback itself failed; surface loudly for operators.
		e.logger.Error("registration rollback failed", zap.Int64("user_id", created.ID), zap.Error(err))
	}

	e.metricInc(metrics.RegisterCompensated)
	e.emitAudit(ctx, ActionVerificationEmail, ActorSystem, false, formatUserID(created.ID),
		"verification code not delivered, registration rolled back", reason)
}
