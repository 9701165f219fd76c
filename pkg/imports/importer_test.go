package imports

import (
	"testing"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
)

func TestNewImporterOptions(t *testing.T) {
	imp := NewImporter(nil)
	if imp.batchSize != DefaultBatchSize || imp.table != admissions.DefaultTable || imp.replace {
		t.Fatalf("unexpected defaults %+v", imp)
	}

	imp = NewImporter(nil, WithBatchSize(50), WithTable("admissions_2024"), WithReplace(true), nil)
	if imp.batchSize != 50 || imp.table != "admissions_2024" || !imp.replace {
		t.Fatalf("options not applied %+v", imp)
	}

	imp = NewImporter(nil, WithBatchSize(0), WithTable(""))
	if imp.batchSize != DefaultBatchSize || imp.table != admissions.DefaultTable {
		t.Fatal("expected zero values to keep defaults")
	}
}

func TestToRowsKeepsRecordOrder(t *testing.T) {
	admit := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	amount := 120.5
	records := []admissions.Record{
		{PatientID: "P1", Doctor: "Dr. Rao", AdmitDate: &admit, BillingAmount: &amount},
		{PatientID: "P2", Ward: "ICU"},
	}
	rows := toRows(records)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].PatientID != "P1" || rows[0].BillingAmount == nil || *rows[0].BillingAmount != 120.5 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Ward != "ICU" || rows[1].ID != 0 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	if toRows(nil) == nil {
		t.Fatal("expected non-nil rows")
	}
}

func TestSummary(t *testing.T) {
	got := summary(models.LoadStats{Source: "csv:data.csv", Rows: 10, Loaded: 9, Discarded: 1}, 9, true)
	if got["written"] != 9 || got["replaced"] != true || got["discarded"] != 1 || got["source"] != "csv:data.csv" {
		t.Fatalf("unexpected summary %v", got)
	}
}

func TestJobTableName(t *testing.T) {
	if (Job{}).TableName() != "import_jobs" {
		t.Fatal("unexpected table name")
	}
}
