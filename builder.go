package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wibutime/authcore/directory"
	"github.com/wibutime/authcore/internal/metrics"
	"github.com/wibutime/authcore/internal/stores"
	"github.com/wibutime/authcore/jwt"
	"github.com/wibutime/authcore/password"
)

// Builder defines a public type used by authcore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory directory.Repository
	notifier  Notifier
	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory describes the withdirectory operation and its observable behavior.
//
// WithDirectory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDirectory(repo directory.Repository) *Builder {
	b.directory = repo
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("directory repository required")
	}
	if b.notifier == nil {
		return nil, errors.New("notifier required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		directory: b.directory,
		notifier:  b.notifier,
		codes:     stores.NewCodeStore(b.redis, cfg.Codes.RedisPrefix),
	}

	engine.logger = b.logger
	if engine.logger == nil {
		engine.logger = zap.NewNop()
	}

	if cfg.Metrics.Enabled {
		engine.metrics = metrics.NewRegistry()
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, engine.logger, engine.metrics)

	hasher, err := password.NewHasher(password.Config{
		Cost: cfg.Password.Cost,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
