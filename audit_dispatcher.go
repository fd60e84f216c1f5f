package authcore

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wibutime/authcore/internal/metrics"
)

// auditDispatcher decouples workflow latency from sink latency: events are
// queued on a buffered channel and forwarded by a single worker goroutine.
// With DropIfFull set, a full buffer drops the event, bumps the
// audit_events_dropped counter, and warns once through the engine logger;
// without it, Emit blocks until the queue accepts or the caller's context
// is done.
type auditDispatcher struct {
	sink    AuditSink
	logger  *zap.Logger
	metrics *metrics.Registry

	queue chan AuditEvent
	quit  chan struct{}

	dropIfFull bool
	dropped    atomic.Uint64
	stopped    atomic.Bool

	worker   sync.WaitGroup
	stopOnce sync.Once
	dropWarn sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *zap.Logger, reg *metrics.Registry) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &auditDispatcher{
		sink:       sink,
		logger:     logger,
		metrics:    reg,
		queue:      make(chan AuditEvent, cfg.BufferSize),
		quit:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
	}

	d.worker.Add(1)
	go d.forward()

	return d
}

func (d *auditDispatcher) forward() {
	defer d.worker.Done()

	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			// Workflows stopped emitting once stopped flipped; flush what
			// they managed to queue before that.
			for {
				select {
				case event := <-d.queue:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues the event for asynchronous delivery. Events emitted after
// Close are discarded.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.stopped.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.quit:
		default:
			d.recordDrop(event)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

func (d *auditDispatcher) recordDrop(event AuditEvent) {
	d.dropped.Add(1)
	d.metrics.Inc(metrics.AuditEventsDropped)

	// Warn once; subsequent drops are visible through the counter.
	d.dropWarn.Do(func() {
		d.logger.Warn("audit buffer full, dropping events",
			zap.String("auth_action", string(event.Action)))
	})
}

// Close stops accepting events, drains the queue into the sink, and waits
// for the worker to exit. Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.quit)
		d.worker.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
