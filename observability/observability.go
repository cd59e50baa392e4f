// Package observability defines the tracing/metrics/logging facade used
// throughout nodeflow-core, trimmed from
// leofalp-aigo/providers/observability/observability.go down to the pieces
// the engine and editor actually exercise. A nil Provider is valid
// everywhere and behaves as a no-op, so callers never need to nil-check
// before using one.
package observability

import "context"

// Provider is the facade the engine and the editor store accept for
// observability. Pass nil to get silent no-op behavior.
type Provider interface {
	Tracer
	Metrics
	Logger
}

// Tracer starts spans around units of work (a node compute, a batch commit).
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span represents one traced unit of work.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	SetStatus(code StatusCode, description string)
	RecordError(err error)
}

// StatusCode is the terminal status of a Span.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// Metrics exposes counters and histograms, e.g. nodes-evaluated and
// evaluation-duration.
type Metrics interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// Counter is a monotonically increasing metric.
type Counter interface {
	Add(ctx context.Context, delta int64, attrs ...Attribute)
}

// Histogram records a distribution of observed values.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Logger provides leveled structured logging.
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute is a structured key-value pair attached to a log entry, span, or
// metric observation.
type Attribute struct {
	Key   string
	Value any
}

// String builds a string Attribute.
func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// Int builds an integer Attribute.
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }

// Float64 builds a float64 Attribute.
func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

// Bool builds a boolean Attribute.
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

// Err builds an error Attribute, rendering nil as an empty string.
func Err(err error) Attribute {
	if err == nil {
		return Attribute{Key: "error", Value: ""}
	}
	return Attribute{Key: "error", Value: err.Error()}
}

// noop satisfies Provider by discarding everything. It backs nil-Provider
// calls through the package-level helpers below.
type noop struct{}

func (noop) StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}
func (noop) Counter(name string) Counter     { return noopCounter{} }
func (noop) Histogram(name string) Histogram { return noopHistogram{} }
func (noop) Debug(ctx context.Context, msg string, attrs ...Attribute) {}
func (noop) Info(ctx context.Context, msg string, attrs ...Attribute)  {}
func (noop) Warn(ctx context.Context, msg string, attrs ...Attribute)  {}
func (noop) Error(ctx context.Context, msg string, attrs ...Attribute) {}

type noopSpan struct{}

func (noopSpan) End()                                   {}
func (noopSpan) SetAttributes(attrs ...Attribute)       {}
func (noopSpan) SetStatus(code StatusCode, desc string) {}
func (noopSpan) RecordError(err error)                  {}

type noopCounter struct{}

func (noopCounter) Add(ctx context.Context, delta int64, attrs ...Attribute) {}

type noopHistogram struct{}

func (noopHistogram) Record(ctx context.Context, value float64, attrs ...Attribute) {}

// NoOp is a Provider that discards everything.
var NoOp Provider = noop{}

// Or returns p if non-nil, otherwise NoOp. Every component that accepts a
// Provider should wrap its stored field with Or so callers may pass nil.
func Or(p Provider) Provider {
	if p == nil {
		return NoOp
	}
	return p
}
