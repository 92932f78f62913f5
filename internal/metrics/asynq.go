package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "runs_total",
			Help:      "后台任务执行次数；outcome 为 ok、retry 或 dropped（不再重试）。",
		},
		[]string{"task_type", "outcome"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "run_duration_seconds",
			Help:      "单次任务执行耗时（秒）。",
			Buckets:   []float64{.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"task_type"},
	)
)

// taskOutcome 区分会被重试的失败与 SkipRetry 失败。
func taskOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, asynq.SkipRetry):
		return "dropped"
	default:
		return "retry"
	}
}

// AsynqMetricsMiddleware 记录每次任务执行的耗时与结果。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(task.Type()).Observe(time.Since(start).Seconds())
			taskRuns.WithLabelValues(task.Type(), taskOutcome(err)).Inc()
			return err
		})
	}
}
