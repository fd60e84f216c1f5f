package authcore

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wibutime/authcore/directory"
	"github.com/wibutime/authcore/internal/metrics"
	"github.com/wibutime/authcore/internal/stores"
	"github.com/wibutime/authcore/jwt"
	"github.com/wibutime/authcore/password"
)

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config     Config
	directory  directory.Repository
	codes      *stores.CodeStore
	hasher     *password.Hasher
	jwtManager *jwt.Manager
	notifier   Notifier
	audit      *auditDispatcher
	metrics    *metrics.Registry
	logger     *zap.Logger
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() map[string]uint64 {
	if e == nil || e.metrics == nil {
		return map[string]uint64{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(c metrics.Counter) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(c)
}

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// normalizeEmail is applied to every email accepted at the engine boundary,
// so lookups and code-store keys agree with what registration stored.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// infraError logs an infrastructure fault and collapses it into the generic
// unavailability sentinel so callers never branch on backend details.
func (e *Engine) infraError(op string, err error) error {
	e.logger.Error("backend failure", zap.String("op", op), zap.Error(err))
	return ErrUnavailable
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, slug, encodedPassword string) (*LoginResult, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if slug == "" || encodedPassword == "" {
		return nil, ErrValidation
	}
	// Email slugs are normalized; bare username fragments keep their casing.
	if strings.Contains(slug, "@") {
		slug = normalizeEmail(slug)
	}

	user, err := e.directory.FindByEmailOrUsername(ctx, slug,
		directory.WithPassword(), directory.WithRoles())
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			e.metricInc(metrics.LoginFailure)
			e.emitAudit(ctx, ActionLogin, ActorUser, false, "", "login rejected: unknown identifier", ErrUserNotFound)
			return nil, ErrUserNotFound
		}
		return nil, e.infraError("login.find", err)
	}

	if user.PasswordHash == "" || !e.hasher.Verify(encodedPassword, user.PasswordHash) {
		e.metricInc(metrics.LoginFailure)
		e.emitAudit(ctx, ActionLogin, ActorUser, false, formatUserID(user.ID), "login rejected: password mismatch", ErrIncorrectPassword)
		return nil, ErrIncorrectPassword
	}

	pair, err := e.jwtManager.Issue(user.ID, user.Email, user.Name, true)
	if err != nil {
		return nil, e.infraError("login.issue", err)
	}

	e.metricInc(metrics.LoginSuccess)
	e.emitAudit(ctx, ActionLogin, ActorUser, true, formatUserID(user.ID), "login succeeded", nil)

	return &LoginResult{
		User:         user.WithoutSecrets(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

// ValidateAccess parses and validates an access token and returns its subject
// claims. No store lookups are performed.
func (e *Engine) ValidateAccess(tokenStr string) (*AccessClaims, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &AccessClaims{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Name,
	}, nil
}

// ListRoles describes the listroles operation and its observable behavior.
//
// ListRoles may return an error when input validation, dependency calls, or security checks fail.
// ListRoles does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ListRoles(ctx context.Context, nameFilter string) ([]directory.Role, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	roles, err := e.directory.ListRoles(ctx, nameFilter)
	if err != nil {
		return nil, e.infraError("roles.list", err)
	}
	return roles, nil
}
