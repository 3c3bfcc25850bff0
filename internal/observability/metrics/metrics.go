package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "billing_"

	resultSuccess = "success"
	resultError   = "error"

	cacheHit  = "hit"
	cacheMiss = "miss"
)

var (
	registerOnce sync.Once

	invoiceGenerateTotal   *prometheus.CounterVec
	invoiceGenerateLatency *prometheus.HistogramVec
	invoiceFinalizeTotal   *prometheus.CounterVec
	invoiceFinalizeLatency *prometheus.HistogramVec
	invoiceExportTotal     *prometheus.CounterVec
	invoiceExportLatency   *prometheus.HistogramVec

	gyvatukasCalculationTotal *prometheus.CounterVec
	gyvatukasCacheLookups     *prometheus.CounterVec
	gyvatukasCacheErrors      *prometheus.CounterVec

	tariffUnsupportedType *prometheus.CounterVec
)

// Init registers billing metrics and DB-backed gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		invoiceGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_generate_total",
				Help: "Total invoice generate operations by result",
			},
			[]string{"result"},
		)
		invoiceGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_generate_latency_seconds",
				Help:    "Invoice generate latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		invoiceFinalizeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_finalize_total",
				Help: "Total invoice finalize operations by result",
			},
			[]string{"result"},
		)
		invoiceFinalizeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_finalize_latency_seconds",
				Help:    "Invoice finalize latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		invoiceExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_export_total",
				Help: "Total invoice export operations by format and result",
			},
			[]string{"format", "result"},
		)
		invoiceExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "invoice_export_latency_seconds",
				Help:    "Invoice export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		gyvatukasCalculationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "gyvatukas_calculation_total",
				Help: "Total circulation calculations by season and result",
			},
			[]string{"type", "result"},
		)
		gyvatukasCacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "gyvatukas_cache_lookups_total",
				Help: "Circulation cache lookups by outcome",
			},
			[]string{"result"},
		)
		gyvatukasCacheErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "gyvatukas_cache_errors_total",
				Help: "Circulation cache failures by operation",
			},
			[]string{"op"},
		)

		tariffUnsupportedType = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tariff_unsupported_type_total",
				Help: "Cost calculations skipped because the tariff type has no strategy",
			},
			[]string{"type"},
		)

		prometheus.MustRegister(
			invoiceGenerateTotal,
			invoiceGenerateLatency,
			invoiceFinalizeTotal,
			invoiceFinalizeLatency,
			invoiceExportTotal,
			invoiceExportLatency,
			gyvatukasCalculationTotal,
			gyvatukasCacheLookups,
			gyvatukasCacheErrors,
			tariffUnsupportedType,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveInvoiceGenerate records generate latency and result.
func ObserveInvoiceGenerate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if invoiceGenerateTotal != nil {
		invoiceGenerateTotal.WithLabelValues(result).Inc()
	}
	if invoiceGenerateLatency != nil {
		invoiceGenerateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveInvoiceFinalize records finalize latency and result.
func ObserveInvoiceFinalize(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if invoiceFinalizeTotal != nil {
		invoiceFinalizeTotal.WithLabelValues(result).Inc()
	}
	if invoiceFinalizeLatency != nil {
		invoiceFinalizeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveInvoiceExport records export latency and result.
func ObserveInvoiceExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if invoiceExportTotal != nil {
		invoiceExportTotal.WithLabelValues(format, result).Inc()
	}
	if invoiceExportLatency != nil {
		invoiceExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncGyvatukasCalculation counts a circulation calculation.
func IncGyvatukasCalculation(calcType, result string) {
	if calcType == "" {
		calcType = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if gyvatukasCalculationTotal != nil {
		gyvatukasCalculationTotal.WithLabelValues(calcType, result).Inc()
	}
}

// IncGyvatukasCacheLookup counts a cache hit or miss.
func IncGyvatukasCacheLookup(hit bool) {
	result := cacheMiss
	if hit {
		result = cacheHit
	}
	if gyvatukasCacheLookups != nil {
		gyvatukasCacheLookups.WithLabelValues(result).Inc()
	}
}

// IncGyvatukasCacheError counts a cache failure for op.
func IncGyvatukasCacheError(op string) {
	if op == "" {
		op = "unknown"
	}
	if gyvatukasCacheErrors != nil {
		gyvatukasCacheErrors.WithLabelValues(op).Inc()
	}
}

// IncTariffUnsupportedType counts a tariff type with no registered strategy.
func IncTariffUnsupportedType(tariffType string) {
	if tariffType == "" {
		tariffType = "empty"
	}
	if tariffUnsupportedType != nil {
		tariffUnsupportedType.WithLabelValues(tariffType).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
