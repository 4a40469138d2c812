package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	maintenanceOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_maintenance_runs_total",
			Help: "Total number of maintenance runs by outcome",
		},
		[]string{"status"},
	)

	maintenanceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stakeindexor_maintenance_duration_seconds",
			Help:    "Duration of maintenance runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	maintenanceLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stakeindexor_maintenance_last_run_timestamp",
			Help: "Unix timestamp of last maintenance run",
		},
	)

	walCheckpoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_wal_checkpoint_total",
			Help: "Total number of WAL checkpoint operations",
		},
		[]string{"mode"},
	)

	dbSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stakeindexor_db_size_bytes",
			Help: "Database file size in bytes, WAL included",
		},
	)
)

func maintenanceFinished(start time.Time, err error) {
	maintenanceDuration.Observe(time.Since(start).Seconds())
	maintenanceLastRun.Set(float64(time.Now().UTC().Unix()))

	status := "success"
	if err != nil {
		status = "error"
	}
	maintenanceOutcomes.WithLabelValues(status).Inc()
}

func WALCheckpointInc(mode string) {
	walCheckpoints.WithLabelValues(mode).Inc()
}

func DBSizeLog(sizeBytes int64) {
	dbSize.Set(float64(sizeBytes))
}
