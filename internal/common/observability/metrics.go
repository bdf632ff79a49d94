package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Observability exposes the engine's otel instruments through the Prometheus registry.
type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	transitions     otelmetric.Int64Counter
	requestDuration otelmetric.Float64Histogram
	voiceRules      otelmetric.Int64Counter
}

// New builds the meter provider. On exporter failure it returns an Observability
// whose Record methods are no-ops.
func New(serviceName string, log *zap.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", zap.Error(err))
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	transitions, _ := meter.Int64Counter(
		"lifecycle.transitions",
		otelmetric.WithDescription("Recommendation lifecycle transitions"),
	)

	requestDuration, _ := meter.Float64Histogram(
		"recommendation.duration",
		otelmetric.WithDescription("Time from request start to resolution"),
		otelmetric.WithUnit("ms"),
	)

	voiceRules, _ := meter.Int64Counter(
		"voice.rules",
		otelmetric.WithDescription("Voice transcripts by matched rule"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		transitions:     transitions,
		requestDuration: requestDuration,
		voiceRules:      voiceRules,
	}
}

func (o *Observability) RecordTransition(ctx context.Context, from, to string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (o *Observability) RecordRequestDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o == nil || o.requestDuration == nil {
		return
	}
	o.requestDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordVoiceRule(ctx context.Context, rule string) {
	if o == nil || o.voiceRules == nil {
		return
	}
	o.voiceRules.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("rule", rule)))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
