package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditActor defines a public type used by authcore APIs.
//
// AuditActor instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditActor string

const (
	// ActorUser is an exported constant or variable used by the authentication engine.
	ActorUser AuditActor = "USER"
	// ActorSystem is an exported constant or variable used by the authentication engine.
	ActorSystem AuditActor = "SYSTEM"
)

// AuditLevel defines a public type used by authcore APIs.
//
// AuditLevel instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditLevel string

const (
	// LevelInfo is an exported constant or variable used by the authentication engine.
	LevelInfo AuditLevel = "INFO"
	// LevelError is an exported constant or variable used by the authentication engine.
	LevelError AuditLevel = "ERROR"
)

// AuditAction defines a public type used by authcore APIs.
//
// AuditAction instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditAction string

const (
	// ActionRegister is an exported constant or variable used by the authentication engine.
	ActionRegister AuditAction = "REGISTER"
	// ActionLogin is an exported constant or variable used by the authentication engine.
	ActionLogin AuditAction = "LOGIN"
	// ActionSendCode is an exported constant or variable used by the authentication engine.
	ActionSendCode AuditAction = "SEND_CODE"
	// ActionVerificationEmail is an exported constant or variable used by the authentication engine.
	ActionVerificationEmail AuditAction = "VERIFICATION_EMAIL"
	// ActionResetPassword is an exported constant or variable used by the authentication engine.
	ActionResetPassword AuditAction = "RESET_PASSWORD"
	// ActionChangePassword is an exported constant or variable used by the authentication engine.
	ActionChangePassword AuditAction = "CHANGE_PASSWORD"
)

// AuditEvent is one structured audit record. Timestamps are evaluated in the
// engine's fixed UTC+7 reference zone.
type AuditEvent struct {
	Timestamp time.Time   `json:"log_date"`
	Action    AuditAction `json:"auth_action"`
	Actor     AuditActor  `json:"actor"`
	Level     AuditLevel  `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Message   string      `json:"message"`
	Result    string      `json:"result"`
	Public    bool        `json:"public"`
	Error     string      `json:"error_message,omitempty"`
}

// AuditSink receives audit events from the engine's async dispatcher.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink defines a public type used by authcore APIs.
//
// NoOpSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NoOpSink struct{}

// Emit describes the emit operation and its observable behavior.
//
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink defines a public type used by authcore APIs.
//
// ChannelSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink describes the newchannelsink operation and its observable behavior.
//
// NewChannelSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events describes the events operation and its observable behavior.
//
// Events does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink defines a public type used by authcore APIs.
//
// JSONWriterSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
//
// NewJSONWriterSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
