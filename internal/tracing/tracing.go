// Package tracing initializes OpenTelemetry tracing and custom metrics
// for the decision core.
package tracing

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Global tracer for the application
	Tracer trace.Tracer

	// Global meter for custom metrics
	Meter metric.Meter

	// Custom metrics
	TicksProcessed   metric.Int64Counter
	PlansAdopted     metric.Int64Counter
	PlansRejected    metric.Int64Counter
	AgentsActive     metric.Int64UpDownCounter
	DecisionLatency  metric.Float64Histogram
	PlanRequestTime  metric.Float64Histogram
)

// Init initializes OpenTelemetry tracing and metrics and returns a
// shutdown function.
func Init(ctx context.Context, serviceName, otelEndpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
			attribute.String("environment", "development"),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	Tracer = otel.Tracer(serviceName)
	Meter = otel.Meter(serviceName)

	if err := initMetrics(); err != nil {
		return nil, err
	}

	log.Printf("[Tracing] Initialized with endpoint %s", otelEndpoint)

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return traceProvider.Shutdown(shutdownCtx)
	}, nil
}

// initMetrics creates all custom metrics
func initMetrics() error {
	var err error

	TicksProcessed, err = Meter.Int64Counter(
		"cortex.ticks.processed",
		metric.WithDescription("Number of simulation ticks processed"),
	)
	if err != nil {
		return err
	}

	PlansAdopted, err = Meter.Int64Counter(
		"cortex.plans.adopted",
		metric.WithDescription("Number of background plans adopted by arbiters"),
	)
	if err != nil {
		return err
	}

	PlansRejected, err = Meter.Int64Counter(
		"cortex.plans.rejected",
		metric.WithDescription("Number of background plans rejected or failed"),
	)
	if err != nil {
		return err
	}

	AgentsActive, err = Meter.Int64UpDownCounter(
		"cortex.agents.active",
		metric.WithDescription("Number of agents currently simulated"),
	)
	if err != nil {
		return err
	}

	DecisionLatency, err = Meter.Float64Histogram(
		"cortex.decision.latency",
		metric.WithDescription("Arbiter decision latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	PlanRequestTime, err = Meter.Float64Histogram(
		"cortex.plan.request_time",
		metric.WithDescription("Reasoning-backend request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// The record helpers are nil-safe so callers work whether or not Init
// has run.

// RecordTicks adds processed simulation ticks.
func RecordTicks(n int64) {
	if TicksProcessed != nil {
		TicksProcessed.Add(context.Background(), n)
	}
}

// RecordPlanAdopted counts one background plan adopted by an arbiter.
func RecordPlanAdopted() {
	if PlansAdopted != nil {
		PlansAdopted.Add(context.Background(), 1)
	}
}

// RecordPlanRejected counts one background plan that failed, timed out,
// or came back empty.
func RecordPlanRejected() {
	if PlansRejected != nil {
		PlansRejected.Add(context.Background(), 1)
	}
}

// AddActiveAgents moves the active-agent gauge by delta.
func AddActiveAgents(delta int64) {
	if AgentsActive != nil {
		AgentsActive.Add(context.Background(), delta)
	}
}

// RecordDecisionLatency records one arbiter update in milliseconds.
func RecordDecisionLatency(ms float64) {
	if DecisionLatency != nil {
		DecisionLatency.Record(context.Background(), ms)
	}
}

// RecordPlanRequestTime records one backend round trip in milliseconds.
func RecordPlanRequestTime(ms float64) {
	if PlanRequestTime != nil {
		PlanRequestTime.Record(context.Background(), ms)
	}
}
