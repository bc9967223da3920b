// Package metrics provides Prometheus metrics for the kabaddi feature pipeline.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a pipeline run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         *prometheus.Registry

	// Source metrics
	filesLoaded   *prometheus.CounterVec
	filesSkipped  *prometheus.CounterVec
	recordsLoaded *prometheus.CounterVec
	itemsSkipped  *prometheus.CounterVec

	// Table metrics
	tableRows *prometheus.GaugeVec

	// Stage metrics
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	lastRunUnix   prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kabaddi",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		customLabels:     make(map[string]string),
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.filesLoaded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "season_files_loaded_total",
		Help:        "Season JSON files parsed successfully",
		ConstLabels: labels,
	}, []string{"entity"})

	m.filesSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "season_files_skipped_total",
		Help:        "Season JSON files skipped by reason (missing, malformed, no_data)",
		ConstLabels: labels,
	}, []string{"entity", "reason"})

	m.recordsLoaded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stat_records_loaded_total",
		Help:        "Statistic records extracted from season files",
		ConstLabels: labels,
	}, []string{"entity"})

	m.itemsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "items_skipped_total",
		Help:        "Individual entries or rows dropped during loading and cleaning",
		ConstLabels: labels,
	}, []string{"component", "reason"})

	m.tableRows = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "table_rows",
		Help:        "Row count of each output table in the last run",
		ConstLabels: labels,
	}, []string{"table"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_duration_seconds",
		Help:        "Duration of each pipeline stage",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"stage"})

	m.stageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_errors_total",
		Help:        "Errors by stage and type",
		ConstLabels: labels,
	}, []string{"stage", "type"})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last run finished",
		ConstLabels: labels,
	})
}

// Registry returns the registry the manager's metrics live in.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFileLoaded counts a parsed season file.
func RecordFileLoaded(entity string) {
	globalManager.filesLoaded.WithLabelValues(entity).Inc()
}

// RecordFileSkipped counts a skipped season file.
func RecordFileSkipped(entity, reason string) {
	globalManager.filesSkipped.WithLabelValues(entity, reason).Inc()
}

// RecordRecordsLoaded adds n extracted records.
func RecordRecordsLoaded(entity string, n int) {
	globalManager.recordsLoaded.WithLabelValues(entity).Add(float64(n))
}

// RecordItemSkipped counts a dropped entry or row.
func RecordItemSkipped(component, reason string) {
	globalManager.itemsSkipped.WithLabelValues(component, reason).Inc()
}

// UpdateTableRows sets the row count of an output table.
func UpdateTableRows(table string, rows int) {
	globalManager.tableRows.WithLabelValues(table).Set(float64(rows))
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordStageError counts a stage error.
func RecordStageError(stage, errorType string) {
	globalManager.stageErrors.WithLabelValues(stage, errorType).Inc()
}

// MarkRunFinished stamps the last run time.
func MarkRunFinished(t time.Time) {
	globalManager.lastRunUnix.Set(float64(t.Unix()))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the global registry in the text exposition format,
// suitable for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return nil
}
