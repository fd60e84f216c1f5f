// Package password implements secret hashing and verification with bcrypt.
//
// # Transport encoding
//
// Clients are expected to base64-encode raw secrets before transmission.
// [Hasher.Hash] and [Hasher.Verify] both apply [DecodeTransport] before
// touching bcrypt, so the decode is symmetric by construction: a secret that
// round-trips through Hash always verifies through Verify.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length after decoding) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply encoded secrets and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords at runtime.
package password
