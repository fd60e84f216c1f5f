// Package directory owns the persistent user records behind the engine:
// users with their credential hashes, the roles attached to them, and the
// permissions those roles grant.
//
// # Design
//
// The [Repository] interface is the engine's only view of persistence.
// Lookups take projection options so callers fetch exactly what they need:
// the credential hash and the role/permission graph are loaded only on
// request. The Postgres implementation runs on database/sql with the pgx
// stdlib driver and ships its schema as embedded goose migrations; the
// in-memory implementation backs tests and the wiring example.
//
// # What this package must NOT do
//
//   - Hash or verify passwords.
//   - Import authcore or any sibling internal package.
package directory
