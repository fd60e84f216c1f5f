package authcore

import (
	"context"

	"github.com/wibutime/authcore/directory"
	"github.com/wibutime/authcore/internal/stores"
)

// RegisterInput defines a public type used by authcore APIs.
//
// RegisterInput instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RegisterInput struct {
	Email    string
	Username string
	Name     string
	// Password is the base64 transport-encoded secret. Leave empty for
	// identities created by an external provider.
	Password string
	// Provider defaults to CREDENTIALS when empty.
	Provider directory.Provider
	Image    string
}

// LoginResult defines a public type used by authcore APIs.
//
// LoginResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginResult struct {
	User         *directory.User
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the absolute access-token expiry in epoch milliseconds.
	ExpiresAt int64
}

// AccessClaims is the subject identity carried by a validated access token.
type AccessClaims struct {
	UserID int64
	Email  string
	Name   string
}

// CodePurpose identifies the flow a one-time code belongs to.
type CodePurpose = stores.Purpose

const (
	// PurposeEmailVerify is an exported constant or variable used by the authentication engine.
	PurposeEmailVerify = stores.PurposeEmailVerify
	// PurposeForgotPassword is an exported constant or variable used by the authentication engine.
	PurposeForgotPassword = stores.PurposeForgotPassword
	// PurposeChangePassword is an exported constant or variable used by the authentication engine.
	PurposeChangePassword = stores.PurposeChangePassword
)

// Notifier delivers a one-time code to the address it was issued for. The
// recipient's display name is passed through for message personalization.
// The engine treats any returned error as a delivery failure; it never
// inspects or renders message content.
type Notifier interface {
	SendCode(ctx context.Context, email, name string, purpose CodePurpose, code string) error
}

// NotifierFunc adapts a function to the [Notifier] interface.
type NotifierFunc func(ctx context.Context, email, name string, purpose CodePurpose, code string) error

// SendCode describes the sendcode operation and its observable behavior.
//
// SendCode may return an error when input validation, dependency calls, or security checks fail.
// SendCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f NotifierFunc) SendCode(ctx context.Context, email, name string, purpose CodePurpose, code string) error {
	return f(ctx, email, name, purpose, code)
}
