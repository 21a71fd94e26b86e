package core

import (
	"context"
	"log/slog"
	"time"

	"marinecore/pkg/domain"

	"github.com/google/uuid"
)

// AuditStatus is the outcome recorded for an audited operation.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one service call.
type AuditEntry struct {
	RequestID  string            `json:"request_id"`
	Operation  string            `json:"operation"`
	Entity     domain.EntityType `json:"entity"`
	EntityID   uint64            `json:"entity_id,omitempty"`
	Status     AuditStatus       `json:"status"`
	ErrorKind  domain.ErrorKind  `json:"error_kind,omitempty"`
	Error      string            `json:"error,omitempty"`
	Duration   time.Duration     `json:"duration"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// AuditRecorder receives an entry for every service call.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes and latency.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation error, if any.
type TraceSpan interface {
	End(err error)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// Option configures the observability hooks of a service.
type Option func(*observer)

// WithLogger sets the structured logger. A nil logger keeps the default,
// which discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *observer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(rec AuditRecorder) Option {
	return func(o *observer) {
		if rec != nil {
			o.audit = rec
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(o *observer) {
		if rec != nil {
			o.metrics = rec
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *observer) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

type observer struct {
	logger  *slog.Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

func newObserver(opts []Option) observer {
	o := observer{
		logger:  slog.New(slog.DiscardHandler),
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// run wraps fn with a span, a metrics observation, an audit entry and a log
// line. fn returns the id of the record it touched, or zero for listings.
func (o observer) run(ctx context.Context, op string, entity domain.EntityType, fn func(ctx context.Context) (uint64, error)) error {
	ctx, span := o.tracer.Start(ctx, op)
	started := o.now()
	id, err := fn(ctx)
	elapsed := o.now().Sub(started)
	span.End(err)
	o.metrics.Observe(ctx, op, err == nil, elapsed)

	entry := AuditEntry{
		RequestID:  uuid.NewString(),
		Operation:  op,
		Entity:     entity,
		EntityID:   id,
		Status:     AuditStatusSuccess,
		Duration:   elapsed,
		OccurredAt: started.UTC(),
	}
	attrs := []any{"operation", op, "request_id", entry.RequestID}
	if id != 0 {
		attrs = append(attrs, "entity_id", id)
	}
	switch ce, isCall := domain.AsCallError(err); {
	case err == nil:
		o.logger.DebugContext(ctx, "call succeeded", append(attrs, "duration", elapsed)...)
	case isCall:
		entry.Status, entry.ErrorKind, entry.Error = AuditStatusError, ce.Kind, err.Error()
		o.logger.WarnContext(ctx, "call rejected", append(attrs, "error_kind", string(ce.Kind), "error", err)...)
	default:
		entry.Status, entry.Error = AuditStatusError, err.Error()
		o.logger.ErrorContext(ctx, "call failed", append(attrs, "error", err)...)
	}
	o.audit.Record(ctx, entry)
	return err
}
