package stores

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Purpose scopes a one-time code to a single account flow. Codes issued for
// one purpose never validate against another.
type Purpose string

const (
	PurposeEmailVerify    Purpose = "EMAIL_VERIFY"
	PurposeForgotPassword Purpose = "FORGOT_PASSWORD"
	PurposeChangePassword Purpose = "CHANGE_PASSWORD"
)

// Outcome is the result of a code validation attempt.
type Outcome int

const (
	// Consumed means the code matched an unexpired record; the record was deleted.
	Consumed Outcome = iota
	// Invalid means a record exists and is unexpired but the code did not match.
	Invalid
	// NotFound means no record exists for the purpose and address.
	NotFound
	// Expired means a record exists but its logical expiry has passed.
	Expired
)

func (o Outcome) String() string {
	switch o {
	case Consumed:
		return "consumed"
	case Invalid:
		return "invalid"
	case NotFound:
		return "not_found"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

const (
	// CodeTTL is the logical lifetime of an issued code.
	CodeTTL = 10 * time.Minute
	// retentionTTL keeps expired records around long enough that validation
	// can still report Expired instead of NotFound.
	retentionTTL = 30 * time.Minute

	codeMin  = 100000
	codeSpan = 900000
)

var (
	ErrStoreUnavailable = errors.New("code store unavailable")
)

// consumeCodeLua atomically performs GET → expiry check → compare → DEL on a
// code record. The record is "code:expiresAtMs". DEL happens only on an
// exact, unexpired match.
// KEYS[1] = record key
// ARGV[1] = provided code
// ARGV[2] = current epoch milliseconds
var consumeCodeLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return 'not_found'
end

local sep = string.find(data, ':', 1, true)
if not sep then
  redis.call('DEL', KEYS[1])
  return 'not_found'
end

local code = string.sub(data, 1, sep - 1)
local expiresAt = tonumber(string.sub(data, sep + 1))

if tonumber(ARGV[2]) > expiresAt then
  return 'expired'
end

if code ~= ARGV[1] then
  return 'invalid'
end

redis.call('DEL', KEYS[1])
return 'consumed'
`)

// CodeStore defines a public type used by authcore APIs.
//
// CodeStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CodeStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewCodeStore describes the newcodestore operation and its observable behavior.
//
// NewCodeStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewCodeStore(redisClient redis.UniversalClient, prefix string) *CodeStore {
	if prefix == "" {
		prefix = "authcore"
	}
	return &CodeStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *CodeStore) key(purpose Purpose, email string) string {
	return s.prefix + ":" + string(purpose) + ":" + strings.ToLower(email)
}

// Issue generates a uniform random 6-digit code for the purpose and address
// and stores it with a 10-minute logical expiry. A single SET replaces any
// prior record, so at most one code per channel is live at a time.
func (s *CodeStore) Issue(ctx context.Context, purpose Purpose, email string) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(CodeTTL).UnixMilli()
	record := code + ":" + strconv.FormatInt(expiresAt, 10)

	if err := s.redis.Set(ctx, s.key(purpose, email), record, retentionTTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return code, nil
}

// Validate checks the provided code against the live record for the purpose
// and address. The compare-and-delete runs as one Lua script; only a Consumed
// outcome removes the record.
func (s *CodeStore) Validate(ctx context.Context, purpose Purpose, email, code string) (Outcome, error) {
	result, err := consumeCodeLua.Run(ctx, s.redis,
		[]string{s.key(purpose, email)},
		code,
		s.now().UnixMilli(),
	).Text()
	if err != nil {
		return NotFound, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch result {
	case "consumed":
		return Consumed, nil
	case "invalid":
		return Invalid, nil
	case "expired":
		return Expired, nil
	case "not_found":
		return NotFound, nil
	default:
		return NotFound, fmt.Errorf("%w: unexpected lua result %q", ErrStoreUnavailable, result)
	}
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(codeMin+n.Int64(), 10), nil
}
