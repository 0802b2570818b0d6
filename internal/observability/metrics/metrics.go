package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the lead-intake pipeline.
type IntakeMetrics struct {
	submissionsTotal *prometheus.CounterVec
	spamVerdicts     *prometheus.CounterVec
	emailSends       *prometheus.CounterVec
	tasksTotal       *prometheus.CounterVec
	storeFailures    *prometheus.CounterVec
	intakeLatency    *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nevloh",
			Name:      "submissions_total",
			Help:      "Contact form submissions by source and outcome",
		}, []string{"source", "outcome"}),
		spamVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nevloh",
			Name:      "spam_verdicts_total",
			Help:      "Non-clean spam gate verdicts",
		}, []string{"kind", "reason"}),
		emailSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nevloh",
			Name:      "email_sends_total",
			Help:      "Transactional email attempts by kind and status",
		}, []string{"kind", "status"}),
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nevloh",
			Name:      "tasks_total",
			Help:      "Best-effort side-effect tasks by outcome",
		}, []string{"task", "status"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nevloh",
			Name:      "store_failures_total",
			Help:      "Lead store writes that failed after the lead reached operations",
		}, []string{"operation"}),
		intakeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nevloh",
			Name:      "intake_latency_seconds",
			Help:      "Latency of lead intake requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.spamVerdicts, m.emailSends, m.tasksTotal, m.storeFailures, m.intakeLatency)
	return m
}

func (m *IntakeMetrics) ObserveSubmission(source, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *IntakeMetrics) ObserveSpamVerdict(kind, reason string) {
	if m == nil {
		return
	}
	m.spamVerdicts.WithLabelValues(kind, reason).Inc()
}

func (m *IntakeMetrics) ObserveEmailSend(kind, status string) {
	if m == nil {
		return
	}
	m.emailSends.WithLabelValues(kind, status).Inc()
}

// ObserveTask satisfies tasks.Observer.
func (m *IntakeMetrics) ObserveTask(name, status string) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(name, status).Inc()
}

func (m *IntakeMetrics) ObserveStoreFailure(operation string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(operation).Inc()
}

func (m *IntakeMetrics) ObserveIntakeLatency(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.intakeLatency.WithLabelValues(outcome).Observe(seconds)
}
