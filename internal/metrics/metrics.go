package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync progress metrics
	ChainHead = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakeindexor_chain_head_block",
			Help: "Head block reported by the ledger for the configured finality",
		},
		[]string{"chain_id"},
	)

	LastSyncedBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakeindexor_last_synced_block",
			Help: "Checkpoint: highest block whose events are fully applied",
		},
		[]string{"chain_id"},
	)

	BlocksBehind = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakeindexor_blocks_behind_head",
			Help: "Head block minus last synced block",
		},
		[]string{"chain_id"},
	)

	Passes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_sync_passes_total",
			Help: "Synchronization passes by result",
		},
		[]string{"chain_id", "result"},
	)

	ChunksCommitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_chunks_committed_total",
			Help: "Chunks applied cleanly and checkpointed",
		},
		[]string{"chain_id"},
	)

	ChunksFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_chunks_failed_total",
			Help: "Chunks left uncommitted because an event failed",
		},
		[]string{"chain_id"},
	)

	ChunkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stakeindexor_chunk_duration_seconds",
			Help:    "Time taken to fetch, decode and apply one chunk",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain_id"},
	)

	Events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_events_total",
			Help: "Decoded staking events by name and apply outcome",
		},
		[]string{"event", "outcome"},
	)

	TimestampLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_block_timestamp_lookups_total",
			Help: "Block timestamp lookups by cache result",
		},
		[]string{"result"},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stakeindexor_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakeindexor_errors_total",
			Help: "Total number of errors by component and severity",
		},
		[]string{"component", "severity"},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakeindexor_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stakeindexor_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stakeindexor_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func chainLabel(chainID uint64) string {
	return strconv.FormatUint(chainID, 10)
}

// SyncProgressSet records head, checkpoint and the lag between them.
func SyncProgressSet(chainID, head, lastSynced uint64) {
	label := chainLabel(chainID)
	ChainHead.WithLabelValues(label).Set(float64(head))
	LastSyncedBlock.WithLabelValues(label).Set(float64(lastSynced))

	behind := uint64(0)
	if head > lastSynced {
		behind = head - lastSynced
	}
	BlocksBehind.WithLabelValues(label).Set(float64(behind))
}

func PassInc(chainID uint64, result string) {
	Passes.WithLabelValues(chainLabel(chainID), result).Inc()
}

func ChunkCommittedInc(chainID uint64) {
	ChunksCommitted.WithLabelValues(chainLabel(chainID)).Inc()
}

func ChunkFailedInc(chainID uint64) {
	ChunksFailed.WithLabelValues(chainLabel(chainID)).Inc()
}

func ChunkDurationLog(chainID uint64, duration time.Duration) {
	ChunkDuration.WithLabelValues(chainLabel(chainID)).Observe(duration.Seconds())
}

func EventInc(event, outcome string) {
	Events.WithLabelValues(event, outcome).Inc()
}

func TimestampLookupInc(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	TimestampLookups.WithLabelValues(result).Inc()
}

func ErrorsInc(component, severity string) {
	Errors.WithLabelValues(component, severity).Inc()
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())
	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
