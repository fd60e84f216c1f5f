package stores

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	resetProofPurpose = "RESET_PROOF"

	// ProofTTL is the lifetime of a reset-proof token. Proofs are hard-expired
	// by the Redis TTL: a stale proof is indistinguishable from a missing one.
	ProofTTL = 10 * time.Minute
)

// consumeProofLua atomically compares a reset-proof token and deletes it on
// an exact match.
// KEYS[1] = proof key
// ARGV[1] = provided token
var consumeProofLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return 'not_found'
end
if data ~= ARGV[1] then
  return 'invalid'
end
redis.call('DEL', KEYS[1])
return 'consumed'
`)

func (s *CodeStore) proofKey(email string) string {
	return s.prefix + ":" + resetProofPurpose + ":" + strings.ToLower(email)
}

// IssueProof mints a single-use reset-proof token for the address. A new
// proof replaces any outstanding one.
func (s *CodeStore) IssueProof(ctx context.Context, email string) (string, error) {
	token := uuid.NewString()

	if err := s.redis.Set(ctx, s.proofKey(email), token, ProofTTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return token, nil
}

// ConsumeProof validates and consumes a reset-proof token in one atomic step.
// Only Consumed removes the record; a mismatched token leaves the live proof
// in place.
func (s *CodeStore) ConsumeProof(ctx context.Context, email, token string) (Outcome, error) {
	result, err := consumeProofLua.Run(ctx, s.redis,
		[]string{s.proofKey(email)},
		token,
	).Text()
	if err != nil {
		return NotFound, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch result {
	case "consumed":
		return Consumed, nil
	case "invalid":
		return Invalid, nil
	case "not_found":
		return NotFound, nil
	default:
		return NotFound, fmt.Errorf("%w: unexpected lua result %q", ErrStoreUnavailable, result)
	}
}
