package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// VariantsResolved counts resolved variants
	VariantsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftgraph_variants_resolved_total",
			Help: "Total number of (scope, shift) variants resolved",
		},
		[]string{"scope", "result"}, // result: valid, invalid
	)

	// VariantDuration measures the resolution time of a single variant in seconds
	VariantDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shiftgraph_variant_duration_seconds",
			Help:    "Resolution duration of a single variant in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		},
		[]string{"scope"},
	)

	// ResolutionDuration measures a full validation pass in seconds
	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shiftgraph_resolution_duration_seconds",
			Help:    "Duration of a full validation pass in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
		},
	)

	// VariantsAliased counts variants deduplicated onto another execution
	VariantsAliased = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftgraph_variants_aliased_total",
			Help: "Total number of variants aliased to an identical execution",
		},
		[]string{"scope"},
	)

	// ValidationErrors counts validation errors by kind
	ValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftgraph_validation_errors_total",
			Help: "Total number of validation errors",
		},
		[]string{"kind"},
	)

	// Warnings counts non-fatal fallbacks such as unknown shift targets
	Warnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftgraph_warnings_total",
			Help: "Total number of non-fatal resolution warnings",
		},
		[]string{"kind"},
	)
)

// RecordVariant records the outcome of one variant
func RecordVariant(scope string, valid bool, duration float64) {
	result := "valid"
	if !valid {
		result = "invalid"
	}

	VariantsResolved.WithLabelValues(scope, result).Inc()
	VariantDuration.WithLabelValues(scope).Observe(duration)
}

// RecordResolution records the duration of a validation pass
func RecordResolution(duration float64) {
	ResolutionDuration.Observe(duration)
}

// RecordAliases records aliased variants for a scope
func RecordAliases(scope string, count int) {
	VariantsAliased.WithLabelValues(scope).Add(float64(count))
}

// RecordValidationError records a validation error
func RecordValidationError(kind string) {
	ValidationErrors.WithLabelValues(kind).Inc()
}

// RecordWarning records a warning
func RecordWarning(kind string) {
	Warnings.WithLabelValues(kind).Inc()
}
