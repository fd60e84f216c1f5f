package password

import (
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used when Config.Cost is zero.
	DefaultCost = 10
)

var (
	// ErrEmptySecret is returned by Hash when the supplied secret is empty.
	ErrEmptySecret = errors.New("secret must not be empty")
	// ErrInvalidEncoding is returned by Hash when the supplied secret is not
	// valid transport base64.
	ErrInvalidEncoding = errors.New("secret is not valid transport base64")
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Cost int
}

// Hasher defines a public type used by authcore APIs.
//
// Hasher instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Hasher struct {
	cost int
}

// NewHasher describes the newhasher operation and its observable behavior.
//
// NewHasher may return an error when input validation, dependency calls, or security checks fail.
// NewHasher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewHasher(cfg Config) (*Hasher, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}

	return &Hasher{cost: cost}, nil
}

// DecodeTransport reverses the base64 encoding clients apply to raw secrets
// before transmission. Inputs without valid padding are rejected.
func DecodeTransport(encoded string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", ErrInvalidEncoding
	}
	return string(decoded), nil
}

// Hash describes the hash operation and its observable behavior.
//
// Hash may return an error when input validation, dependency calls, or security checks fail.
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hasher) Hash(encodedSecret string) (string, error) {
	if encodedSecret == "" {
		return "", ErrEmptySecret
	}

	plain, err := DecodeTransport(encodedSecret)
	if err != nil {
		return "", err
	}
	if plain == "" {
		return "", ErrEmptySecret
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify describes the verify operation and its observable behavior.
//
// Verify never returns an error: missing inputs, malformed transport encoding,
// and mismatched secrets all report false.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hasher) Verify(encodedSecret, storedHash string) bool {
	if encodedSecret == "" || storedHash == "" {
		return false
	}

	plain, err := DecodeTransport(encodedSecret)
	if err != nil {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain)) == nil
}
