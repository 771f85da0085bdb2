// internal/infra/metrics/metrics.go
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"student_schedule_bot/internal/domain/reminder"
)

// Metrics holds the reminder lifecycle collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	scheduled        *prometheus.CounterVec
	rejected         *prometheus.CounterVec
	cancelled        prometheus.Counter
	cancelFailures   prometheus.Counter
	delivered        *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	pending          prometheus.Gauge
	exports          prometheus.Counter
	imports          *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		scheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Reminders accepted by the notification queue",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_rejected_total",
			Help: "Reminders the notification queue declined",
		}, []string{"kind"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_cancelled_total",
			Help: "Reminders cancelled before firing",
		}),
		cancelFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_cancel_failures_total",
			Help: "Cancellation requests that failed",
		}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_delivered_total",
			Help: "Reminders delivered to the owner",
		}, []string{"kind"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_delivery_failures_total",
			Help: "Due reminders that could not be delivered",
		}, []string{"kind"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminders_pending",
			Help: "Reminders waiting in the notification queue",
		}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calendar_exports_total",
			Help: "Calendar documents produced",
		}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calendar_imported_records_total",
			Help: "Records created from imported calendar documents",
		}, []string{"kind"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	registry.MustRegister(m.scheduled, m.rejected, m.cancelled, m.cancelFailures,
		m.delivered, m.deliveryFailures, m.pending, m.exports, m.imports, m.requestDuration)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) RecordDelivery(kind reminder.Kind, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.deliveryFailures.WithLabelValues(string(kind)).Inc()
		return
	}
	m.delivered.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) SetPending(n int64) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

func (m *Metrics) RecordExport() {
	if m == nil {
		return
	}
	m.exports.Inc()
}

func (m *Metrics) RecordImport(classes, assignments int) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(string(reminder.KindClass)).Add(float64(classes))
	m.imports.WithLabelValues(string(reminder.KindAssignment)).Add(float64(assignments))
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}

// instrumentedScheduler counts every schedule and cancel outcome.
type instrumentedScheduler struct {
	next    reminder.Scheduler
	metrics *Metrics
}

// InstrumentScheduler wraps s so its outcomes show up on m.
func InstrumentScheduler(s reminder.Scheduler, m *Metrics) reminder.Scheduler {
	if m == nil {
		return s
	}
	return &instrumentedScheduler{next: s, metrics: m}
}

func (s *instrumentedScheduler) ScheduleAt(ctx context.Context, p reminder.Payload, at time.Time) (string, error) {
	id, err := s.next.ScheduleAt(ctx, p, at)
	if err != nil {
		s.metrics.rejected.WithLabelValues(string(p.Kind)).Inc()
		return "", err
	}
	s.metrics.scheduled.WithLabelValues(string(p.Kind)).Inc()
	return id, nil
}

func (s *instrumentedScheduler) Cancel(ctx context.Context, id string) error {
	if err := s.next.Cancel(ctx, id); err != nil {
		s.metrics.cancelFailures.Inc()
		return err
	}
	s.metrics.cancelled.Inc()
	return nil
}
