package authcore

import "errors"

var (
	// ErrUserNotFound is an exported constant or variable used by the authentication engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrIncorrectPassword is an exported constant or variable used by the authentication engine.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrAccountExists is an exported constant or variable used by the authentication engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrValidation is an exported constant or variable used by the authentication engine.
	ErrValidation = errors.New("invalid request")
	// ErrPasswordPolicy is an exported constant or variable used by the authentication engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrCodeInvalid is an exported constant or variable used by the authentication engine.
	ErrCodeInvalid = errors.New("verification code invalid")
	// ErrCodeExpired is an exported constant or variable used by the authentication engine.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeNotFound is an exported constant or variable used by the authentication engine.
	ErrCodeNotFound = errors.New("verification code not found")
	// ErrResetProofInvalid is an exported constant or variable used by the authentication engine.
	ErrResetProofInvalid = errors.New("reset proof invalid or already used")
	// ErrDeliveryFailed is an exported constant or variable used by the authentication engine.
	ErrDeliveryFailed = errors.New("verification delivery failed")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrUnavailable is an exported constant or variable used by the authentication engine.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
