package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/common/models"
)

func TestWritePrometheusReportsLoad(t *testing.T) {
	ObserveLoad(models.LoadStats{Rows: 12, Loaded: 10, Discarded: 2, LoadedAt: time.Unix(1700000000, 0)})

	rec := httptest.NewRecorder()
	WritePrometheus(rec)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	for _, line := range []string{
		"healthcare_dataset_rows_read 12\n",
		"healthcare_dataset_records_loaded 10\n",
		"healthcare_dataset_records_discarded 2\n",
		"healthcare_dataset_loaded_timestamp_seconds 1700000000\n",
		"# TYPE healthcare_dashboard_cache_hits_total counter\n",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected %q in output:\n%s", line, body)
		}
	}
}

func TestObserveCacheSplitsHitsAndMisses(t *testing.T) {
	hits, misses := dashboardCacheHits.Load(), dashboardCacheMisses.Load()
	ObserveCache(true)
	ObserveCache(false)
	ObserveCache(false)
	if got := dashboardCacheHits.Load() - hits; got != 1 {
		t.Fatalf("expected 1 hit, got %d", got)
	}
	if got := dashboardCacheMisses.Load() - misses; got != 2 {
		t.Fatalf("expected 2 misses, got %d", got)
	}
}

func TestObserveImportEventCountsWrittenRows(t *testing.T) {
	before := importedRecordsWritten.Load()
	ObserveImportEvent(map[string]interface{}{"written": float64(40), "job_id": "a"})
	ObserveImportEvent(map[string]interface{}{"written": 2})
	ObserveImportEvent(map[string]interface{}{"written": "7"})
	ObserveImportEvent(nil)
	if got := importedRecordsWritten.Load() - before; got != 42 {
		t.Fatalf("expected 42 written rows, got %d", got)
	}

	rec := httptest.NewRecorder()
	WritePrometheus(rec)
	if !strings.Contains(rec.Body.String(), "healthcare_import_records_written_total ") {
		t.Fatalf("missing import counter:\n%s", rec.Body.String())
	}
}
