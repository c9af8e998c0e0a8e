package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 统计流水线运行情况
type Metrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	records  prometheus.Gauge
	groups   *prometheus.GaugeVec
}

// NewMetrics 在 reg 上注册流水线指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrostats_pipeline_runs_total",
				Help: "Total number of pipeline runs by status.",
			},
			[]string{"status"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agrostats_pipeline_duration_seconds",
				Help:    "Duration of fetch, normalize and aggregate.",
				Buckets: prometheus.DefBuckets,
			},
		),
		records: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "agrostats_dataset_records",
				Help: "Number of records in the last loaded dataset.",
			},
		),
		groups: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agrostats_report_rows",
				Help: "Number of rows in each derived table.",
			},
			[]string{"table"},
		),
	}
}

func (m *Metrics) observe(r *Report, seconds float64, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(seconds)
	if err != nil {
		m.runs.WithLabelValues("error").Inc()
		return
	}
	m.runs.WithLabelValues("ok").Inc()
	m.records.Set(float64(r.Records))
	m.groups.WithLabelValues("yearly").Set(float64(len(r.Yearly)))
	m.groups.WithLabelValues("averages").Set(float64(len(r.Averages)))
}
