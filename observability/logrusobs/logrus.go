// Package logrusobs implements observability.Provider on top of
// sirupsen/logrus, an alternate backend for deployments that already
// centralize logging through logrus hooks/formatters.
package logrusobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nodeflow-dev/nodeflow-core/observability"
)

// Observer implements observability.Provider by routing every call through
// a *logrus.Logger.
type Observer struct {
	logger  *logrus.Logger
	metrics *metricsStore
}

var _ observability.Provider = (*Observer)(nil)

// New wraps logger (or logrus.StandardLogger() if nil) as an
// observability.Provider.
func New(logger *logrus.Logger) *Observer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Observer{logger: logger, metrics: newMetricsStore()}
}

func fields(attrs []observability.Attribute) logrus.Fields {
	f := make(logrus.Fields, len(attrs))
	for _, a := range attrs {
		f[a.Key] = a.Value
	}
	return f
}

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	o.logger.WithFields(fields(attrs)).WithField("span", name).Debug("span start")
	return ctx, &span{name: name, start: time.Now(), logger: o.logger}
}

type span struct {
	name   string
	start  time.Time
	logger *logrus.Logger
	mu     sync.Mutex
	attrs  []observability.Attribute
}

func (s *span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.WithFields(fields(s.attrs)).
		WithField("span", s.name).
		WithField("duration", time.Since(s.start)).
		Debug("span end")
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
	s.logger.WithFields(fields(s.attrs)).WithField("span", s.name).WithError(err).Error("span error")
}

func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.counter(name, o.logger)
}
func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.histogram(name, o.logger)
}

type metricsStore struct {
	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

func newMetricsStore() *metricsStore {
	return &metricsStore{counters: make(map[string]*counter), histograms: make(map[string]*histogram)}
}

func (m *metricsStore) counter(name string, logger *logrus.Logger) *counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c
	}
	c := &counter{name: name, logger: logger}
	m.counters[name] = c
	return c
}

func (m *metricsStore) histogram(name string, logger *logrus.Logger) *histogram {
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
	logger *logrus.Logger
	mu     sync.Mutex
	value  int64
}

func (c *counter) Add(ctx context.Context, delta int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += delta
	total := c.value
	c.mu.Unlock()
	c.logger.WithFields(fields(attrs)).WithField("metric", c.name).WithField("total", total).Debug("counter")
}

type histogram struct {
	name   string
	logger *logrus.Logger
}

func (h *histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	h.logger.WithFields(fields(attrs)).WithField("metric", h.name).WithField("value", value).Debug("histogram")
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.WithFields(fields(attrs)).Debug(msg)
}
func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.WithFields(fields(attrs)).Info(msg)
}
func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.WithFields(fields(attrs)).Warn(msg)
}
func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.WithFields(fields(attrs)).Error(msg)
}
