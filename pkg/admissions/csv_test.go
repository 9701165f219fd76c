package admissions

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

const sampleCSV = `Patient_ID,Doctor,Admit_Date,Discharge_Date,Diagnosis,Test,Bed_Occupancy,Billing_Amount,Feedback
P1,Dr. Rao,2024-01-05,2024-01-08,Flu,Blood Test,General,1200.50,5
P2,Dr. Iyer,2024-02-10,2024-02-09,Cold,X-Ray,ICU,300,4
P3,Dr. Rao,not-a-date,2024-03-01,Flu,MRI,Private,-10,9
P4,Dr. Khan,2024-03-02,2024-03-04,,CT Scan,ICU,"1,500",3.0
`

func TestDecodeCoercesAndDiscards(t *testing.T) {
	records, stats, err := Decode(strings.NewReader(sampleCSV), DefaultSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Rows != 4 || stats.Loaded != 3 || stats.Discarded != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.PatientID != "P1" || first.Ward != "General" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.BillingAmount == nil || *first.BillingAmount != 1200.5 {
		t.Fatalf("expected billing 1200.5, got %v", first.BillingAmount)
	}
	if days, ok := first.StayDays(); !ok || days != 3 {
		t.Fatalf("expected 3 stay days, got %d (%v)", days, ok)
	}

	third := records[1]
	if third.AdmitDate != nil {
		t.Fatalf("expected malformed admit date to be missing, got %v", third.AdmitDate)
	}
	if third.BillingAmount != nil {
		t.Fatal("expected negative billing to be missing")
	}
	if third.Feedback != nil {
		t.Fatal("expected out-of-range feedback to be missing")
	}

	fourth := records[2]
	if fourth.BillingAmount == nil || *fourth.BillingAmount != 1500 {
		t.Fatalf("expected billing 1500, got %v", fourth.BillingAmount)
	}
	if fourth.Feedback == nil || *fourth.Feedback != 3 {
		t.Fatalf("expected feedback 3, got %v", fourth.Feedback)
	}
	if fourth.Diagnosis != "" {
		t.Fatalf("expected empty diagnosis, got %q", fourth.Diagnosis)
	}
}

func TestDecodeRejectsUnknownHeader(t *testing.T) {
	_, _, err := Decode(strings.NewReader("a,b,c\n1,2,3\n"), DefaultSchema())
	if err == nil {
		t.Fatal("expected error for header without known columns")
	}
}

func TestDecodeRejectsEmptyInput(t *testing.T) {
	if _, _, err := Decode(strings.NewReader(""), DefaultSchema()); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}

func TestCSVSourceUsesOpener(t *testing.T) {
	var opened string
	src := NewCSVSource("s3://bucket/data.csv", DefaultSchema(), WithOpener(func(ctx context.Context, path string) (io.ReadCloser, error) {
		opened = path
		return io.NopCloser(strings.NewReader(sampleCSV)), nil
	}))

	records, stats, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opened != "s3://bucket/data.csv" {
		t.Fatalf("opener not used, got %q", opened)
	}
	if len(records) != 3 || stats.Source != "csv:s3://bucket/data.csv" {
		t.Fatalf("unexpected load result: %d records, stats %+v", len(records), stats)
	}
}

func TestCSVSourceWrapsOpenError(t *testing.T) {
	boom := errors.New("boom")
	src := NewCSVSource("missing.csv", DefaultSchema(), WithOpener(func(ctx context.Context, path string) (io.ReadCloser, error) {
		return nil, boom
	}))
	if _, _, err := src.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped open error, got %v", err)
	}
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, err := splitS3URI("s3://hospital-data/exports/2024/admissions.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "hospital-data" || key != "exports/2024/admissions.csv" {
		t.Fatalf("unexpected split %q %q", bucket, key)
	}
	if _, _, err := splitS3URI("s3://only-bucket"); err == nil {
		t.Fatal("expected error for uri without key")
	}
}

func TestRecordFieldAndProject(t *testing.T) {
	records, _, err := Decode(strings.NewReader(sampleCSV), DefaultSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := records[0]
	if got := r.Field(ColumnAdmitDate); got != "2024-01-05" {
		t.Fatalf("expected formatted date, got %q", got)
	}
	if got := r.Field(ColumnBilling); got != "1200.50" {
		t.Fatalf("expected formatted billing, got %q", got)
	}

	row := records[1].Project([]string{ColumnAdmitDate, ColumnFeedback, ColumnDoctor})
	if row[ColumnAdmitDate] != nil || row[ColumnFeedback] != nil {
		t.Fatalf("expected missing values to project as nil, got %v", row)
	}
	if row[ColumnDoctor] != "Dr. Rao" {
		t.Fatalf("unexpected doctor %v", row[ColumnDoctor])
	}
}
