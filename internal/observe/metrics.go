// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/spacegirl-bot/spacegirl"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SynthesisDuration tracks TTS provider request latency.
	SynthesisDuration metric.Float64Histogram

	// SynthesisRequests counts synthesis attempts. Use with attributes:
	//   attribute.String("voice", ...), attribute.String("status", ...)
	SynthesisRequests metric.Int64Counter

	// SynthesisErrors counts synthesis failures. Use with attribute:
	//   attribute.String("kind", ...)
	SynthesisErrors metric.Int64Counter

	// PlaybackStarted counts artifacts handed to a voice connection.
	PlaybackStarted metric.Int64Counter

	// PlaybackErrors counts playback completions that reported an error.
	PlaybackErrors metric.Int64Counter

	// QueueDepth tracks queued artifacts across all guilds and voices.
	QueueDepth metric.Int64UpDownCounter

	// ActiveVoiceConnections tracks live voice-channel connections.
	ActiveVoiceConnections metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// provider round-trips.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("spacegirl.synthesis.duration",
		metric.WithDescription("Latency of TTS provider requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisRequests, err = m.Int64Counter("spacegirl.synthesis.requests",
		metric.WithDescription("Total synthesis attempts by voice and status."),
	); err != nil {
		return nil, err
	}
	if met.SynthesisErrors, err = m.Int64Counter("spacegirl.synthesis.errors",
		metric.WithDescription("Total synthesis failures by kind."),
	); err != nil {
		return nil, err
	}
	if met.PlaybackStarted, err = m.Int64Counter("spacegirl.playback.started",
		metric.WithDescription("Total artifacts handed to a voice connection."),
	); err != nil {
		return nil, err
	}
	if met.PlaybackErrors, err = m.Int64Counter("spacegirl.playback.errors",
		metric.WithDescription("Total playback completions that reported an error."),
	); err != nil {
		return nil, err
	}
	if met.QueueDepth, err = m.Int64UpDownCounter("spacegirl.queue.depth",
		metric.WithDescription("Queued artifacts across all guilds and voices."),
	); err != nil {
		return nil, err
	}
	if met.ActiveVoiceConnections, err = m.Int64UpDownCounter("spacegirl.voice.connections",
		metric.WithDescription("Number of live voice-channel connections."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordSynthesis records one synthesis attempt with the standard attribute
// set.
func (m *Metrics) RecordSynthesis(ctx context.Context, voice, status string, seconds float64) {
	m.SynthesisDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("voice", voice)),
	)
	m.SynthesisRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("voice", voice),
			attribute.String("status", status),
		),
	)
}

// RecordSynthesisError records a synthesis failure by kind.
func (m *Metrics) RecordSynthesisError(ctx context.Context, kind string) {
	m.SynthesisErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
