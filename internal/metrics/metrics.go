package metrics

import "sync/atomic"

// Counter identifies one engine counter slot.
type Counter int

const (
	RegisterSuccess Counter = iota
	RegisterFailure
	RegisterCompensated
	LoginSuccess
	LoginFailure
	CodeIssued
	CodeConsumed
	CodeRejected
	EmailVerified
	PasswordReset
	PasswordChanged
	AuditEventsDropped

	counterCount
)

var counterNames = [counterCount]string{
	RegisterSuccess:     "register_success",
	RegisterFailure:     "register_failure",
	RegisterCompensated: "register_compensated",
	LoginSuccess:        "login_success",
	LoginFailure:        "login_failure",
	CodeIssued:          "code_issued",
	CodeConsumed:        "code_consumed",
	CodeRejected:        "code_rejected",
	EmailVerified:       "email_verified",
	PasswordReset:       "password_reset",
	PasswordChanged:     "password_changed",
	AuditEventsDropped:  "audit_events_dropped",
}

func (c Counter) Name() string {
	if c < 0 || c >= counterCount {
		return "unknown"
	}
	return counterNames[c]
}

// paddedUint64 keeps each counter on its own cache line to avoid false
// sharing between hot counters.
type paddedUint64 struct {
	value uint64
	_     [56]byte
}

// Registry defines a public type used by authcore APIs.
//
// Registry instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Registry struct {
	counters [counterCount]paddedUint64
}

// NewRegistry describes the newregistry operation and its observable behavior.
//
// NewRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRegistry() *Registry {
	return &Registry{}
}

// Inc atomically increments the counter. Out-of-range counters are ignored.
func (r *Registry) Inc(c Counter) {
	if r == nil || c < 0 || c >= counterCount {
		return
	}
	atomic.AddUint64(&r.counters[c].value, 1)
}

// Add atomically adds delta to the counter. Out-of-range counters are ignored.
func (r *Registry) Add(c Counter, delta uint64) {
	if r == nil || c < 0 || c >= counterCount {
		return
	}
	atomic.AddUint64(&r.counters[c].value, delta)
}

// Value returns the current count for the counter.
func (r *Registry) Value(c Counter) uint64 {
	if r == nil || c < 0 || c >= counterCount {
		return 0
	}
	return atomic.LoadUint64(&r.counters[c].value)
}

// Snapshot returns a point-in-time copy of all counters keyed by name.
// Individual reads are atomic; the snapshot as a whole is not.
func (r *Registry) Snapshot() map[string]uint64 {
	snapshot := make(map[string]uint64, counterCount)
	for c := Counter(0); c < counterCount; c++ {
		snapshot[counterNames[c]] = r.Value(c)
	}
	return snapshot
}
