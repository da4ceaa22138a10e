// Package metrics records run counters on an owned Prometheus registry and
// exports them in the node-exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rewired-gh/outlierscope/internal/models"
)

const namespace = "outlierscope"

// Metrics holds all Prometheus metrics of a run
type Metrics struct {
	registry *prometheus.Registry

	// Detection metrics
	Items     *prometheus.CounterVec
	Outliers  *prometheus.CounterVec
	Threshold *prometheus.GaugeVec

	// Analysis metrics
	AnalysisResults  *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
}

// New creates the run metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Items: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Content items normalized, by platform.",
		}, []string{"platform"}),
		Outliers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outliers_total",
			Help:      "Outliers detected, by platform.",
		}, []string{"platform"}),
		Threshold: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threshold_value",
			Help:      "Engagement rate threshold of the last detection pass.",
		}, []string{"platform"}),
		AnalysisResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_results_total",
			Help:      "Video analysis results, by platform and status.",
		}, []string{"platform", "status"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analyzing one video, by analysis path.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"path"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDetection records one detection pass.
func (m *Metrics) ObserveDetection(platform string, batch *models.OutlierBatch) {
	m.Items.WithLabelValues(platform).Add(float64(batch.Total))
	m.Outliers.WithLabelValues(platform).Add(float64(len(batch.Outliers)))
	m.Threshold.WithLabelValues(platform).Set(batch.Threshold)
}

// ObserveAnalysis records the results of an analysis run.
func (m *Metrics) ObserveAnalysis(platform string, results []models.VideoAnalysisResult) {
	for _, r := range results {
		m.AnalysisResults.WithLabelValues(platform, string(r.Status)).Inc()
		if r.Status == models.StatusSkipped {
			continue
		}
		path := r.Path
		if path == "" {
			path = "none"
		}
		m.AnalysisDuration.WithLabelValues(path).Observe(r.Duration.Seconds())
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
