// Package tracing provides OpenTelemetry-based tracing infrastructure for
// rule execution. It supports stdout and OTLP exporters and exposes
// domain-specific span helpers for rule, group, and effect execution.
package tracing

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the name used for the rentfall tracer.
	TracerName = "github.com/rentfall/rentfall"

	// Version is the semantic version of the tracer.
	Version = "1.0.0"
)

// ExporterType defines the type of trace exporter.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled      bool         // Whether tracing is enabled
	ExporterType ExporterType // Type of exporter to use
	OTLPEndpoint string       // OTLP collector endpoint (for OTLP exporter)
	ServiceName  string       // Service name for traces
	Environment  string       // Deployment environment (development, production)
	SampleRate   float64      // Sampling rate (0.0 to 1.0)
	Output       io.Writer    // Output for stdout exporter (defaults to os.Stdout)
}

// DefaultConfig returns sensible default tracing configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		ExporterType: ExporterNone,
		ServiceName:  "rentfall",
		Environment:  "development",
		SampleRate:   1.0,
	}
}

// Tracer wraps an OpenTelemetry tracer with domain-specific functionality.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	config   Config
}

// global is the package-level default tracer.
var (
	global     *Tracer
	globalOnce sync.Once
)

// Init initializes the global tracer with the provided configuration.
func Init(ctx context.Context, cfg Config) (*Tracer, error) {
	var err error
	globalOnce.Do(func() {
		global, err = New(ctx, cfg)
	})
	return global, err
}

// Default returns the global tracer, or a no-op tracer if not initialized.
func Default() *Tracer {
	if global == nil {
		return &Tracer{
			tracer: otel.Tracer(TracerName),
			config: DefaultConfig(),
		}
	}
	return global
}

// New creates a new Tracer with the provided configuration.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: cfg,
		}, nil
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	// Create resource without merging with Default() to avoid schema URL
	// conflicts between semconv versions.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(Version)),
		provider: provider,
		config:   cfg,
	}, nil
}

// createExporter creates the appropriate exporter based on configuration.
func createExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		opts := []stdouttrace.Option{
			stdouttrace.WithPrettyPrint(),
		}
		if cfg.Output != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Output))
		}
		return stdouttrace.New(opts...)

	case ExporterOTLP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithInsecure(),
		}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}
}

// Shutdown gracefully shuts down the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start starts a new span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// --- Domain-specific span helpers ---

// RuleSpan represents a single rule execution span.
type RuleSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartRuleSpan starts a span for one rule execution.
func (t *Tracer) StartRuleSpan(ctx context.Context, ruleID, actor string, day int) (context.Context, *RuleSpan) {
	ctx, span := t.tracer.Start(ctx, "rule.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("rule.id", ruleID),
			attribute.String("rule.actor", actor),
			attribute.Int("rule.day", day),
		),
	)
	return ctx, &RuleSpan{span: span, ctx: ctx}
}

// SetRejected marks the execution as stopped by validation.
func (rs *RuleSpan) SetRejected(reason string) {
	rs.span.SetAttributes(attribute.String("rule.rejected_reason", reason))
}

// SetEffectCounts sets the effect result counts.
func (rs *RuleSpan) SetEffectCounts(total, errored int) {
	rs.span.SetAttributes(
		attribute.Int("rule.effects.total", total),
		attribute.Int("rule.effects.errored", errored),
	)
}

// End ends the rule span with success status.
func (rs *RuleSpan) End() {
	rs.span.SetStatus(codes.Ok, "rule executed")
	rs.span.End()
}

// EndWithError ends the rule span with error status.
func (rs *RuleSpan) EndWithError(err error) {
	rs.span.RecordError(err)
	rs.span.SetStatus(codes.Error, err.Error())
	rs.span.End()
}

// GroupSpan represents a rule-group execution span.
type GroupSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartGroupSpan starts a span for a group execution.
func (t *Tracer) StartGroupSpan(ctx context.Context, group string) (context.Context, *GroupSpan) {
	ctx, span := t.tracer.Start(ctx, "group.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("group.name", group)),
	)
	return ctx, &GroupSpan{span: span, ctx: ctx}
}

// SetCounts sets the executed/total counts for the group.
func (gs *GroupSpan) SetCounts(executed, total int) {
	gs.span.SetAttributes(
		attribute.Int("group.executed", executed),
		attribute.Int("group.total", total),
	)
}

// End ends the group span with success status.
func (gs *GroupSpan) End() {
	gs.span.SetStatus(codes.Ok, "group executed")
	gs.span.End()
}

// EffectSpan represents a single effect execution span.
type EffectSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartEffectSpan starts a span for one effect within a rule.
func (t *Tracer) StartEffectSpan(ctx context.Context, effectType string, index int) (context.Context, *EffectSpan) {
	ctx, span := t.tracer.Start(ctx, "effect.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("effect.type", effectType),
			attribute.Int("effect.index", index),
		),
	)
	return ctx, &EffectSpan{span: span, ctx: ctx}
}

// End ends the effect span with success status.
func (es *EffectSpan) End() {
	es.span.SetStatus(codes.Ok, "effect executed")
	es.span.End()
}

// EndWithError ends the effect span with error status.
func (es *EffectSpan) EndWithError(err error) {
	es.span.RecordError(err)
	es.span.SetStatus(codes.Error, err.Error())
	es.span.End()
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
}
