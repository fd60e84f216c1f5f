// Package stores provides Redis-backed, short-lived record stores for
// security-sensitive account flows: one-time verification codes for email
// verification, forgot-password, and change-password channels, plus the
// single-use reset-proof tokens minted after a forgot-password code checks out.
//
// # Design
//
// Each record is a single Redis value under a purpose-scoped key. Writes are
// a single SET (issuing a new code replaces any prior one for the same
// purpose and address); consumption is a single Lua script that compares,
// checks logical expiry, and deletes only on an exact, unexpired match.
// Failed attempts never delete the record. The Redis retention TTL is
// deliberately longer than the logical expiry so an expired record stays
// observable as Expired rather than collapsing into NotFound.
//
// # What this package must NOT do
//
//   - Import authcore or any sibling internal package.
//   - Deliver codes or make authentication decisions.
package stores
