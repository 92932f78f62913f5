package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "resume_builder"

var (
	aiCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "生成式 AI 调用次数，按操作与结果区分。",
		},
		[]string{"operation", "outcome"},
	)

	aiCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "call_duration_seconds",
			Help:      "生成式 AI 调用耗时（秒）。",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"operation"},
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "pdf_total",
			Help:      "PDF 导出结果计数。",
		},
		[]string{"template", "outcome"},
	)
)

// ObserveAICall records one upstream model call.
func ObserveAICall(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	aiCallsTotal.WithLabelValues(operation, outcome).Inc()
	aiCallDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveExport records the outcome of a paper export ("ok", "mismatch", "error").
func ObserveExport(templateID, outcome string) {
	exportsTotal.WithLabelValues(templateID, outcome).Inc()
}
