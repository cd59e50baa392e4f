// Package slogobs implements observability.Provider on top of the standard
// library's log/slog, grounded on
// leofalp-aigo/providers/observability/slogobs. Callers opt in by passing it
// to editor.WithObserver or engine.New; cmd/nodeflowctl passes no provider
// and runs with the no-op one.
package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nodeflow-dev/nodeflow-core/observability"
)

// Observer implements observability.Provider by routing every call through
// a *slog.Logger.
type Observer struct {
	logger  *slog.Logger
	metrics *metricsStore
}

var _ observability.Provider = (*Observer)(nil)

// New wraps logger (or slog.Default() if nil) as an observability.Provider.
func New(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger, metrics: newMetricsStore()}
}

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &span{name: name, start: time.Now(), logger: o.logger}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "span start", toSlogAttrs(name, attrs)...)
	return ctx, span
}

type span struct {
	name   string
	start  time.Time
	logger *slog.Logger
	mu     sync.Mutex
	attrs  []observability.Attribute
}

func (s *span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs := append([]slog.Attr{slog.Duration("duration", time.Since(s.start))}, toSlogAttrs(s.name, s.attrs)...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "span end", attrs...)
}

func (s *span) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *span) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := "unset"
	switch code {
	case observability.StatusOK:
		status = "ok"
	case observability.StatusError:
		status = "error"
	}
	s.attrs = append(s.attrs, observability.String("status", status))
	if description != "" {
		s.attrs = append(s.attrs, observability.String("status_description", description))
	}
}

func (s *span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.Err(err))
	s.logger.LogAttrs(context.Background(), slog.LevelError, "span error", toSlogAttrs(s.name, []observability.Attribute{observability.Err(err)})...)
}

func toSlogAttrs(spanName string, attrs []observability.Attribute) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs)+1)
	if spanName != "" {
		out = append(out, slog.String("span", spanName))
	}
	for _, a := range attrs {
		out = append(out, slog.Any(a.Key, a.Value))
	}
	return out
}

func (o *Observer) Counter(name string) observability.Counter     { return o.metrics.counter(name, o.logger) }
func (o *Observer) Histogram(name string) observability.Histogram { return o.metrics.histogram(name, o.logger) }

type metricsStore struct {
	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{counters: make(map[string]*counter), histograms: make(map[string]*histogram)}
}

func (m *metricsStore) counter(name string, logger *slog.Logger) *counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c := &counter{name: name, logger: logger}
	m.counters[name] = c
	return c
}

func (m *metricsStore) histogram(name string, logger *slog.Logger) *histogram {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histograms[name]; ok {
		return h
	}
	h := &histogram{name: name, logger: logger}
	m.histograms[name] = h
	return h
}

type counter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *counter) Add(ctx context.Context, delta int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += delta
	total := c.value
	c.mu.Unlock()
	c.logger.LogAttrs(ctx, slog.LevelDebug, "counter", slog.String("metric", c.name), slog.Int64("delta", delta), slog.Int64("total", total))
}

type histogram struct {
	name   string
	logger *slog.Logger
}

func (h *histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.logger.LogAttrs(ctx, slog.LevelDebug, "histogram", slog.String("metric", h.name), slog.Float64("value", value))
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlogAttrs("", attrs)...)
}
func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlogAttrs("", attrs)...)
}
func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlogAttrs("", attrs)...)
}
func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlogAttrs("", attrs)...)
}
