package generate

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/coursegen/course"
)

// pipelineMetrics counts generation runs. Instruments come from the
// global meter provider, so they are no-ops until telemetry is wired up.
type pipelineMetrics struct {
	runs      metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	canceled  metric.Int64Counter
}

func newPipelineMetrics() *pipelineMetrics {
	meter := otel.Meter("github.com/kbukum/coursegen/generate")
	runs, _ := meter.Int64Counter("coursegen.runs.started",
		metric.WithDescription("Course generation runs started"))
	completed, _ := meter.Int64Counter("coursegen.runs.completed",
		metric.WithDescription("Course generation runs completed"))
	failed, _ := meter.Int64Counter("coursegen.runs.failed",
		metric.WithDescription("Course generation runs ended by a stage failure"))
	canceled, _ := meter.Int64Counter("coursegen.runs.canceled",
		metric.WithDescription("Course generation runs abandoned by the caller"))
	return &pipelineMetrics{runs: runs, completed: completed, failed: failed, canceled: canceled}
}

func (m *pipelineMetrics) runStarted(ctx context.Context) {
	m.runs.Add(ctx, 1)
}

func (m *pipelineMetrics) runCompleted(ctx context.Context) {
	m.completed.Add(ctx, 1)
}

func (m *pipelineMetrics) runFailed(ctx context.Context, step course.Step) {
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("step", string(step))))
}

func (m *pipelineMetrics) runCanceled(ctx context.Context) {
	// The counter outlives the canceled request context.
	m.canceled.Add(context.WithoutCancel(ctx), 1)
}
