// Package authcore is an embeddable credential-lifecycle engine: registration
// with compensating rollback, password login with JWT pair issuance, and the
// one-time 6-digit code channels behind email verification, forgot-password,
// and change-password flows.
//
// The engine is transport-agnostic. Callers wire it behind their own gRPC or
// HTTP handlers; authcore owns hashing, code issuance and consumption, token
// signing, directory persistence, auditing, and metrics.
//
// Construction goes through the [Builder]:
//
//	engine, err := authcore.New().
//		WithRedis(redisClient).
//		WithDirectory(repo).
//		WithNotifier(mailer).
//		Build()
//
// All engine methods are safe for concurrent use.
package authcore
