package authcore

import (
	"bytes"
	"errors"
	"time"

	"github.com/wibutime/authcore/jwt"
	"github.com/wibutime/authcore/password"
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Codes    CodesConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by authcore APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by authcore APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Cost int
	// MinLength applies to the transport-decoded plaintext.
	MinLength int
}

/*
====================================
CODES CONFIG
====================================
*/

// CodesConfig defines a public type used by authcore APIs.
//
// CodesConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CodesConfig struct {
	RedisPrefix string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration: 30m/7d token lifetimes,
// bcrypt cost 10, a 6-character password minimum, and audit plus metrics
// enabled. Callers set the two JWT secrets and pass the result to
// [Builder.WithConfig].
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  jwt.DefaultAccessTTL,
			RefreshTTL: jwt.DefaultRefreshTTL,
		},
		Password: PasswordConfig{
			Cost:      password.DefaultCost,
			MinLength: 6,
		},
		Codes: CodesConfig{
			RedisPrefix: "authcore",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret required")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret required")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be positive")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be positive")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
