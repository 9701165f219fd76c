package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/SankarSivan/Healthcare/pkg/analytics/filter"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
)

type fakeSource struct {
	records []admissions.Record
	err     error
	loads   int
	queries []admissions.Criteria
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(ctx context.Context) ([]admissions.Record, models.LoadStats, error) {
	f.loads++
	if f.err != nil {
		return nil, models.LoadStats{}, f.err
	}
	return f.records, models.LoadStats{Source: "fake", Rows: len(f.records), Loaded: len(f.records), LoadedAt: time.Now()}, nil
}

type fakeQuerySource struct {
	fakeSource
}

func (f *fakeQuerySource) Query(ctx context.Context, c admissions.Criteria) ([]admissions.Record, models.LoadStats, error) {
	f.queries = append(f.queries, c)
	out := filter.Apply(f.records, filter.Filter{Year: c.Year, Ward: c.Ward, Doctor: c.Doctor})
	return out, models.LoadStats{Loaded: len(out)}, nil
}

func (f *fakeQuerySource) Count(ctx context.Context, c admissions.Criteria) (int64, error) {
	out := filter.Apply(f.records, filter.Filter{Year: c.Year, Ward: c.Ward, Doctor: c.Doctor})
	return int64(len(out)), nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return false, c.err
	}
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	p.types = append(p.types, eventType)
	return nil
}

func record(patient, doctor, ward, admit string, billing float64) admissions.Record {
	t, err := time.Parse(admissions.DateLayout, admit)
	if err != nil {
		panic(err)
	}
	amount := billing
	return admissions.Record{
		PatientID:     patient,
		Doctor:        doctor,
		Ward:          ward,
		AdmitDate:     &t,
		Diagnosis:     "Flu",
		Test:          "CBC",
		BillingAmount: &amount,
	}
}

func fixture() []admissions.Record {
	return []admissions.Record{
		record("P1", "Dr. Rao", "ICU", "2023-03-01", 100),
		record("P2", "Dr. Rao", "General", "2024-01-10", 200),
		record("P3", "Dr. Iyer", "ICU", "2024-05-20", 300),
	}
}

func loadedService(t *testing.T, source admissions.Source, opts ...Option) *Service {
	t.Helper()
	svc := NewService(source, opts...)
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return svc
}

func TestNoDatasetBeforeLoad(t *testing.T) {
	svc := NewService(&fakeSource{})
	if _, err := svc.Dashboard(context.Background(), filter.Filter{}); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
	if _, err := svc.Options(); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
}

func TestDashboardFiltersSnapshot(t *testing.T) {
	svc := loadedService(t, &fakeSource{records: fixture()})

	view, err := svc.Dashboard(context.Background(), filter.Filter{Year: 2024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.TotalRecords != 3 || view.FilteredRecords != 2 {
		t.Fatalf("unexpected counts %d/%d", view.FilteredRecords, view.TotalRecords)
	}
	if view.Dashboard.KPIs.TotalBilling != 500 {
		t.Fatalf("expected billing 500, got %v", view.Dashboard.KPIs.TotalBilling)
	}

	view, err = svc.Dashboard(context.Background(), filter.Filter{Doctor: "Dr. Nobody"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.FilteredRecords != 0 || view.Dashboard.KPIs.Records != 0 || len(view.Dashboard.Diagnoses) != 0 {
		t.Fatalf("expected empty dashboard, got %+v", view.Dashboard.KPIs)
	}
}

func TestReloadFailureKeepsSnapshot(t *testing.T) {
	source := &fakeSource{records: fixture()}
	svc := loadedService(t, source)
	before, _ := svc.Snapshot()

	source.err = errors.New("file missing")
	if _, err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	after, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("expected snapshot to survive, got %v", err)
	}
	if after.Version != before.Version {
		t.Fatalf("expected version %s, got %s", before.Version, after.Version)
	}
}

func TestReloadChangesVersionAndPublishes(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := loadedService(t, &fakeSource{records: fixture()}, WithPublisher(publisher))
	first, _ := svc.Snapshot()
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	second, _ := svc.Snapshot()
	if first.Version == second.Version {
		t.Fatal("expected a new version after reload")
	}
	if len(publisher.types) != 2 || publisher.types[0] != models.EventDatasetReloaded {
		t.Fatalf("unexpected events %v", publisher.types)
	}
}

func TestDashboardUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc := loadedService(t, &fakeSource{records: fixture()}, WithCache(cache))

	first, err := svc.Dashboard(context.Background(), filter.Filter{Ward: "ICU"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.entries) != 1 {
		t.Fatalf("expected 1 cache entry, got %d", len(cache.entries))
	}
	second, err := svc.Dashboard(context.Background(), filter.Filter{Ward: "ICU"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Fatal("expected cached dashboard on second call")
	}

	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, err := svc.Dashboard(context.Background(), filter.Filter{Ward: "ICU"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.entries) != 2 {
		t.Fatalf("expected a new entry for the new version, got %d", len(cache.entries))
	}
}

func TestDashboardBypassesFailingCache(t *testing.T) {
	cache := newMemoryCache()
	cache.err = errors.New("redis down")
	svc := loadedService(t, &fakeSource{records: fixture()}, WithCache(cache))

	view, err := svc.Dashboard(context.Background(), filter.Filter{})
	if err != nil {
		t.Fatalf("expected cache errors to be bypassed, got %v", err)
	}
	if view.FilteredRecords != 3 {
		t.Fatalf("expected 3 records, got %d", view.FilteredRecords)
	}
}

func TestPushDownQueriesSource(t *testing.T) {
	source := &fakeQuerySource{fakeSource{records: fixture()}}
	svc := loadedService(t, source, WithPushDown())

	kpis, err := svc.KPIs(context.Background(), filter.Filter{Doctor: "Dr. Rao", Year: 2024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kpis.Records != 1 {
		t.Fatalf("expected 1 record, got %d", kpis.Records)
	}
	if len(source.queries) != 1 || source.queries[0] != (admissions.Criteria{Year: 2024, Doctor: "Dr. Rao"}) {
		t.Fatalf("unexpected queries %+v", source.queries)
	}

	if _, err := svc.KPIs(context.Background(), filter.Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(source.queries) != 1 {
		t.Fatal("expected empty filter to use the snapshot")
	}
}

func TestPushDownDashboardReadsLiveTotals(t *testing.T) {
	source := &fakeQuerySource{fakeSource{records: fixture()}}
	cache := newMemoryCache()
	svc := loadedService(t, source, WithPushDown(), WithCache(cache))

	// Rows written after the last reload.
	source.records = append(source.records,
		record("P4", "Dr. Rao", "ICU", "2024-07-01", 50),
		record("P5", "Dr. Rao", "ICU", "2024-08-01", 60),
	)

	f := filter.Filter{Doctor: "Dr. Rao"}
	view, err := svc.Dashboard(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.FilteredRecords != 4 || view.TotalRecords != 5 {
		t.Fatalf("expected 4 of 5 records, got %d of %d", view.FilteredRecords, view.TotalRecords)
	}

	source.records = append(source.records, record("P6", "Dr. Rao", "General", "2024-09-01", 70))
	view, err = svc.Dashboard(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.FilteredRecords != 5 || view.TotalRecords != 6 {
		t.Fatalf("expected 5 of 6 records, got %d of %d", view.FilteredRecords, view.TotalRecords)
	}
	if cache.gets != 0 || len(cache.entries) != 0 {
		t.Fatalf("expected live views to skip the cache, gets=%d entries=%d", cache.gets, len(cache.entries))
	}

	if _, err := svc.Dashboard(context.Background(), filter.Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.entries) != 1 {
		t.Fatalf("expected unfiltered view to be cached, got %d entries", len(cache.entries))
	}
}

func TestRecordsPreview(t *testing.T) {
	svc := loadedService(t, &fakeSource{records: fixture()})

	preview, err := svc.Records(context.Background(), "select patient_id, billing_amount where ward = ICU", filter.Filter{Year: 2024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.Filtered != 1 || len(preview.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d/%d", len(preview.Rows), preview.Filtered)
	}
	if preview.Rows[0]["patient_id"] != "P3" || preview.Rows[0]["billing_amount"] != 300.0 {
		t.Fatalf("unexpected row %v", preview.Rows[0])
	}
	if preview.Filter != (filter.Filter{Year: 2024, Ward: "ICU"}) {
		t.Fatalf("unexpected merged filter %+v", preview.Filter)
	}

	preview, err = svc.Records(context.Background(), "", filter.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preview.Columns) != len(admissions.Columns) || preview.Filtered != 3 {
		t.Fatalf("unexpected default preview %+v", preview)
	}

	if _, err := svc.Records(context.Background(), "select nope", filter.Filter{}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestRecordsDefaultLimit(t *testing.T) {
	records := make([]admissions.Record, 0, 8)
	for i := 0; i < 8; i++ {
		records = append(records, record("P", "Dr. Rao", "ICU", "2024-01-01", 1))
	}
	svc := loadedService(t, &fakeSource{records: records})
	preview, err := svc.Records(context.Background(), "select patient_id", filter.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preview.Rows) != PreviewLimit || preview.Filtered != 8 {
		t.Fatalf("expected %d of 8 rows, got %d of %d", PreviewLimit, len(preview.Rows), preview.Filtered)
	}
}

func TestExportWritesCSV(t *testing.T) {
	svc := loadedService(t, &fakeSource{records: fixture()})

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), "select patient_id, admit_date, billing_amount where doctor = 'Dr. Rao'", filter.Filter{}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "patient_id,admit_date,billing_amount\nP1,2023-03-01,100.00\nP2,2024-01-10,200.00\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}

	buf.Reset()
	if err := svc.Export(context.Background(), "select patient_id limit 1", filter.Filter{}, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 2 {
		t.Fatalf("expected header and 1 row, got %d lines", lines)
	}
}
