package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTTL is the access-token lifetime used when Config.AccessTTL is zero.
	DefaultAccessTTL = 30 * time.Minute
	// DefaultRefreshTTL is the refresh-token lifetime used when Config.RefreshTTL is zero.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// ReferenceLocation is the fixed UTC+7 zone all issued expiry timestamps are
// evaluated in.
var ReferenceLocation = time.FixedZone("UTC+7", 7*60*60)

var (
	// ErrTokenInvalid is returned when a token fails signature or claim validation.
	ErrTokenInvalid = errors.New("invalid token")
)

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
}

// Claims carries the signed identity attributes: subject (user id), email, and
// display name, plus the registered expiry and issued-at claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair bundles a freshly signed access token, the absolute access expiry
// in epoch milliseconds, and (when requested) a refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// Manager defines a public type used by authcore APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("access secret required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("refresh secret required")
	}

	return &Manager{config: cfg, now: time.Now}, nil
}

// Issue signs an access token for the given subject and, when withRefresh is
// set, a refresh token under the distinct refresh secret. The returned
// ExpiresAt is now + AccessTTL in epoch milliseconds, evaluated in
// [ReferenceLocation].
func (m *Manager) Issue(userID int64, email, name string, withRefresh bool) (*TokenPair, error) {
	now := m.now().In(ReferenceLocation)
	accessExpiry := now.Add(m.config.AccessTTL)

	access, err := m.sign(userID, email, name, now, accessExpiry, m.config.AccessSecret)
	if err != nil {
		return nil, err
	}

	pair := &TokenPair{
		AccessToken: access,
		ExpiresAt:   accessExpiry.UnixMilli(),
	}

	if withRefresh {
		refresh, err := m.sign(userID, email, name, now, now.Add(m.config.RefreshTTL), m.config.RefreshSecret)
		if err != nil {
			return nil, err
		}
		pair.RefreshToken = refresh
	}

	return pair, nil
}

// ParseAccess validates an access token's signature and expiry and returns its claims.
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.config.AccessSecret)
}

// ParseRefresh validates a refresh token's signature and expiry and returns its claims.
func (m *Manager) ParseRefresh(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, m.config.RefreshSecret)
}

func (m *Manager) sign(userID int64, email, name string, issuedAt, expiresAt time.Time, secret []byte) (string, error) {
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) parse(tokenStr string, secret []byte) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// UserID returns the numeric subject of the claims.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}
