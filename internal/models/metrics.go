package models

import "time"

// SystemMetrics is a lightweight aggregate of runtime and cache stats
// for operator endpoints.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	ReportsSubmitted         uint64    `json:"reports_submitted"`
	ReportsApproved          uint64    `json:"reports_approved"`
	ReconcileRuns            uint64    `json:"reconcile_runs"`
	ReconcileFixes           uint64    `json:"reconcile_fixes"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
