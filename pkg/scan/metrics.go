package scan

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for the planning and read path.
type Metrics struct {
	ManifestsRead prometheus.Counter
	FilesPlanned  prometheus.Counter
	RowGroupsRead prometheus.Counter
	RecordsRead   prometheus.Counter
	PlanDuration  prometheus.Histogram
}

// NewMetrics creates and registers all scan metrics with the provided
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	manifestsRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iceberg_scan_manifests_read_total",
		Help: "Total manifests read during scan planning",
	})

	filesPlanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iceberg_scan_files_planned_total",
		Help: "Total data files produced by scan planning",
	})

	rowGroupsRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iceberg_scan_row_groups_read_total",
		Help: "Total row groups bound and read",
	})

	recordsRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "iceberg_scan_records_read_total",
		Help: "Total logical records assembled",
	})

	planDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "iceberg_scan_plan_duration_seconds",
		Help:    "Time spent planning a scan",
		Buckets: prometheus.DefBuckets,
	})

	reg.MustRegister(manifestsRead, filesPlanned, rowGroupsRead, recordsRead, planDuration)

	return &Metrics{
		ManifestsRead: manifestsRead,
		FilesPlanned:  filesPlanned,
		RowGroupsRead: rowGroupsRead,
		RecordsRead:   recordsRead,
		PlanDuration:  planDuration,
	}
}
