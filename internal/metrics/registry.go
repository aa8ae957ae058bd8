package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "being"

// Registry holds the crisis engine's Prometheus collectors. A nil *Registry
// is valid and records nothing.
type Registry struct {
	SessionsCreated       *prometheus.CounterVec
	SessionsActive        prometheus.Gauge
	SessionsTerminated    *prometheus.CounterVec
	SessionsEscalated     prometheus.Counter
	AdmissionDenied       *prometheus.CounterVec
	OperationsTotal       *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
	PerformanceViolations *prometheus.CounterVec
	Detections            *prometheus.CounterVec
	DetectionDuration     prometheus.Histogram
	AuditEntries          *prometheus.CounterVec
	AuditBufferDepth      prometheus.Gauge
}

// NewRegistry creates the collectors and registers them with reg.
func NewRegistry(reg prometheus.Registerer) (*Registry, error) {
	r := &Registry{
		SessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "sessions_created_total",
			Help:      "Crisis sessions created, by severity",
		}, []string{"severity"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "sessions_active",
			Help:      "Crisis sessions currently active",
		}),
		SessionsTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "sessions_terminated_total",
			Help:      "Crisis sessions terminated, by terminal state",
		}, []string{"state"}),
		SessionsEscalated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "sessions_escalated_total",
			Help:      "Sessions promoted to automatic escalation during execution",
		}),
		AdmissionDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "admission_denied_total",
			Help:      "Admission checks denied, by reason code",
		}, []string{"reason"}),
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "operations_total",
			Help:      "Crisis operations executed",
		}, []string{"operation", "result"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "operation_duration_seconds",
			Help:      "End-to-end crisis operation latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1},
		}, []string{"operation"}),
		PerformanceViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "performance_violations_total",
			Help:      "Operations that exceeded their performance budget",
		}, []string{"operation"}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "evaluations_total",
			Help:      "Crisis detection evaluations, by outcome",
		}, []string{"outcome", "severity"}),
		DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "duration_seconds",
			Help:      "Crisis detection latency",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		AuditEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Audit entries by outcome (persisted, retried, dropped)",
		}, []string{"outcome"}),
		AuditBufferDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "buffer_depth",
			Help:      "Audit entries waiting to be persisted",
		}),
	}

	for _, c := range []prometheus.Collector{
		r.SessionsCreated, r.SessionsActive, r.SessionsTerminated, r.SessionsEscalated,
		r.AdmissionDenied, r.OperationsTotal, r.OperationDuration, r.PerformanceViolations,
		r.Detections, r.DetectionDuration, r.AuditEntries, r.AuditBufferDepth,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) SessionCreated(severity string) {
	if r == nil {
		return
	}
	r.SessionsCreated.WithLabelValues(severity).Inc()
	r.SessionsActive.Inc()
}

func (r *Registry) SessionTerminated(state string) {
	if r == nil {
		return
	}
	r.SessionsTerminated.WithLabelValues(state).Inc()
	r.SessionsActive.Dec()
}

func (r *Registry) SessionRestored() {
	if r == nil {
		return
	}
	r.SessionsActive.Inc()
}

func (r *Registry) SessionEscalated() {
	if r == nil {
		return
	}
	r.SessionsEscalated.Inc()
}

func (r *Registry) Denied(reason string) {
	if r == nil {
		return
	}
	r.AdmissionDenied.WithLabelValues(reason).Inc()
}

func (r *Registry) Operation(operation string, success bool, d time.Duration) {
	if r == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	r.OperationsTotal.WithLabelValues(operation, result).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (r *Registry) PerformanceViolation(operation string) {
	if r == nil {
		return
	}
	r.PerformanceViolations.WithLabelValues(operation).Inc()
}

func (r *Registry) Detection(outcome, severity string, d time.Duration) {
	if r == nil {
		return
	}
	r.Detections.WithLabelValues(outcome, severity).Inc()
	r.DetectionDuration.Observe(d.Seconds())
}

func (r *Registry) Audit(outcome string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.AuditEntries.WithLabelValues(outcome).Add(float64(n))
}

func (r *Registry) AuditBuffer(depth int) {
	if r == nil {
		return
	}
	r.AuditBufferDepth.Set(float64(depth))
}
