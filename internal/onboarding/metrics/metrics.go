package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the onboarding pipeline.
type Metrics struct {
	EnrollmentsTotal     prometheus.Counter
	VerificationsTotal   *prometheus.CounterVec
	VerificationFailures *prometheus.CounterVec
	ScanEventsTotal      *prometheus.CounterVec
	ScanOverridesTotal   prometheus.Counter
	ProvisioningTotal    *prometheus.CounterVec
	AdvanceLatency       prometheus.Histogram
	RecordsAtStage       *prometheus.GaugeVec
}

// New registers and returns onboarding metrics collectors.
func New() *Metrics {
	return &Metrics{
		EnrollmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "induct_enrollments_total",
			Help: "Total number of personnel records enrolled into the pipeline",
		}),
		VerificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "induct_stage_verifications_total",
			Help: "Total number of successful stage verifications, labeled by stage",
		}, []string{"stage"}),
		VerificationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "induct_stage_verification_failures_total",
			Help: "Total number of rejected stage verifications, labeled by stage and reason",
		}, []string{"stage", "reason"}),
		ScanEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "induct_scan_events_total",
			Help: "Total number of decoded scan events, labeled by outcome",
		}, []string{"outcome"}),
		ScanOverridesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "induct_scan_overrides_total",
			Help: "Total number of admin overrides of the terminal-stage scan requirement",
		}),
		ProvisioningTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "induct_provisioning_attempts_total",
			Help: "Total number of provisioning attempts, labeled by result",
		}, []string{"result"}),
		AdvanceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "induct_advance_latency_seconds",
			Help:    "Latency of stage advance operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RecordsAtStage: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "induct_records_at_stage",
			Help: "Current number of records sitting at each pipeline stage",
		}, []string{"stage"}),
	}
}

func (m *Metrics) IncrementEnrollments() {
	m.EnrollmentsTotal.Inc()
}

func (m *Metrics) IncrementVerifications(stage int) {
	m.VerificationsTotal.WithLabelValues(strconv.Itoa(stage)).Inc()
}

func (m *Metrics) IncrementVerificationFailures(stage int, reason string) {
	m.VerificationFailures.WithLabelValues(strconv.Itoa(stage), reason).Inc()
}

func (m *Metrics) IncrementScanEvents(outcome string) {
	m.ScanEventsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementScanOverrides() {
	m.ScanOverridesTotal.Inc()
}

func (m *Metrics) IncrementProvisioning(result string) {
	m.ProvisioningTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAdvanceLatency(d time.Duration) {
	m.AdvanceLatency.Observe(d.Seconds())
}

func (m *Metrics) SetRecordsAtStage(stage, count int) {
	m.RecordsAtStage.WithLabelValues(strconv.Itoa(stage)).Set(float64(count))
}
