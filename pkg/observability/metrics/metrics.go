package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/SankarSivan/Healthcare/pkg/common/models"
)

var (
	datasetRowsRead        atomic.Int64
	datasetRecordsLoaded   atomic.Int64
	datasetRecordsDiscard  atomic.Int64
	datasetLoadedAt        atomic.Int64
	datasetReloads         atomic.Int64
	datasetReloadFailures  atomic.Int64
	dashboardsComputed     atomic.Int64
	dashboardCacheHits     atomic.Int64
	dashboardCacheMisses   atomic.Int64
	dashboardCacheErrors   atomic.Int64
	httpRequests           atomic.Int64
	importedRecordsWritten atomic.Int64
)

// ObserveLoad records the outcome of the latest successful dataset load.
func ObserveLoad(stats models.LoadStats) {
	datasetRowsRead.Store(int64(stats.Rows))
	datasetRecordsLoaded.Store(int64(stats.Loaded))
	datasetRecordsDiscard.Store(int64(stats.Discarded))
	datasetLoadedAt.Store(stats.LoadedAt.Unix())
	datasetReloads.Add(1)
}

func ObserveReloadFailure() {
	datasetReloadFailures.Add(1)
}

func ObserveDashboard() {
	dashboardsComputed.Add(1)
}

func ObserveCache(hit bool) {
	if hit {
		dashboardCacheHits.Add(1)
		return
	}
	dashboardCacheMisses.Add(1)
}

func ObserveCacheError() {
	dashboardCacheErrors.Add(1)
}

func ObserveRequest() {
	httpRequests.Add(1)
}

// ObserveImportEvent counts the rows written by an import announced on the
// dataset events topic. Event data arrives JSON-decoded, so numbers are float64.
func ObserveImportEvent(data map[string]interface{}) {
	switch written := data["written"].(type) {
	case float64:
		if written > 0 {
			importedRecordsWritten.Add(int64(written))
		}
	case int:
		if written > 0 {
			importedRecordsWritten.Add(int64(written))
		}
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeMetric(w, "healthcare_dataset_rows_read", "gauge", "Number of source rows read by the latest dataset load.", datasetRowsRead.Load())
	writeMetric(w, "healthcare_dataset_records_loaded", "gauge", "Number of admission records in the current snapshot.", datasetRecordsLoaded.Load())
	writeMetric(w, "healthcare_dataset_records_discarded", "gauge", "Number of rows discarded by the latest dataset load.", datasetRecordsDiscard.Load())
	writeMetric(w, "healthcare_dataset_loaded_timestamp_seconds", "gauge", "Unix time of the latest successful dataset load.", datasetLoadedAt.Load())
	writeMetric(w, "healthcare_dataset_reloads_total", "counter", "Number of successful dataset loads.", datasetReloads.Load())
	writeMetric(w, "healthcare_dataset_reload_failures_total", "counter", "Number of failed dataset loads.", datasetReloadFailures.Load())
	writeMetric(w, "healthcare_dashboards_computed_total", "counter", "Number of dashboards computed from the snapshot.", dashboardsComputed.Load())
	writeMetric(w, "healthcare_dashboard_cache_hits_total", "counter", "Number of dashboards served from cache.", dashboardCacheHits.Load())
	writeMetric(w, "healthcare_dashboard_cache_misses_total", "counter", "Number of dashboard cache misses.", dashboardCacheMisses.Load())
	writeMetric(w, "healthcare_dashboard_cache_errors_total", "counter", "Number of dashboard cache errors bypassed.", dashboardCacheErrors.Load())
	writeMetric(w, "healthcare_http_requests_total", "counter", "Number of HTTP requests served.", httpRequests.Load())
	writeMetric(w, "healthcare_import_records_written_total", "counter", "Number of admission records written by announced imports.", importedRecordsWritten.Load())
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n", name, value)
}
