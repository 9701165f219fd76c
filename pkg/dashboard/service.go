// Package dashboard serves filtered dashboards over an immutable snapshot of
// the admissions dataset.
package dashboard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/SankarSivan/Healthcare/pkg/analytics/aggregate"
	"github.com/SankarSivan/Healthcare/pkg/analytics/dsl"
	"github.com/SankarSivan/Healthcare/pkg/analytics/filter"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
	"github.com/SankarSivan/Healthcare/pkg/observability/metrics"
	"github.com/google/uuid"
)

// PreviewLimit is the number of rows returned by Records when the query sets
// no limit.
const PreviewLimit = 5

var (
	ErrNoDataset    = errors.New("dataset not loaded")
	ErrInvalidQuery = errors.New("invalid query")
)

// Cache stores computed dashboards. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

// Snapshot is one loaded version of the dataset. It is never mutated after
// construction.
type Snapshot struct {
	Version string
	Records []admissions.Record
	Options filter.Options
	Stats   models.LoadStats
}

type View struct {
	Version         string              `json:"version"`
	Filter          filter.Filter       `json:"filter"`
	TotalRecords    int                 `json:"total_records"`
	FilteredRecords int                 `json:"filtered_records"`
	GeneratedAt     time.Time           `json:"generated_at"`
	Dashboard       aggregate.Dashboard `json:"dashboard"`
}

type Preview struct {
	Version  string                   `json:"version"`
	Filter   filter.Filter            `json:"filter"`
	Columns  []string                 `json:"columns"`
	Filtered int                      `json:"filtered_records"`
	Rows     []map[string]interface{} `json:"rows"`
}

type Service struct {
	source    admissions.Source
	cache     Cache
	publisher Publisher
	pushDown  bool

	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewService(source admissions.Source, opts ...Option) *Service {
	svc := &Service{source: source}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Reload reads the source and swaps in a new snapshot. On failure the
// previous snapshot stays in place.
func (s *Service) Reload(ctx context.Context) (models.LoadStats, error) {
	records, stats, err := s.source.Load(ctx)
	if err != nil {
		metrics.ObserveReloadFailure()
		return models.LoadStats{}, fmt.Errorf("load %s: %w", s.source.Name(), err)
	}

	stats.Version = uuid.New().String()
	snapshot := &Snapshot{
		Version: stats.Version,
		Records: records,
		Options: filter.BuildOptions(records),
		Stats:   stats,
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	metrics.ObserveLoad(stats)
	logger.Log.WithFields(map[string]interface{}{
		"source":    stats.Source,
		"version":   stats.Version,
		"rows":      stats.Rows,
		"loaded":    stats.Loaded,
		"discarded": stats.Discarded,
	}).Info("Dataset loaded")

	if s.publisher != nil {
		if err := s.publisher.PublishEvent(ctx, models.EventDatasetReloaded, "dashboard-service", stats.EventData()); err != nil {
			logger.Log.WithError(err).Warn("Failed to publish reload event")
		}
	}
	return stats, nil
}

func (s *Service) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrNoDataset
	}
	return s.snapshot, nil
}

func (s *Service) Options() (filter.Options, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return filter.Options{}, err
	}
	return snapshot.Options, nil
}

// Dashboard computes the full dashboard for f, consulting the cache first.
// Cache failures are logged and bypassed.
func (s *Service) Dashboard(ctx context.Context, f filter.Filter) (View, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return View{}, err
	}

	// Pushed-down filters read live rows, which the snapshot version does not track.
	qs, live := s.pushDownSource(f)
	key := snapshot.Version + "|" + f.Key()
	if s.cache != nil && !live {
		var cached View
		found, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.ObserveCacheError()
			logger.Log.WithError(err).WithField("key", key).Warn("Dashboard cache read failed")
		case found:
			metrics.ObserveCache(true)
			return cached, nil
		default:
			metrics.ObserveCache(false)
		}
	}

	records, err := s.subset(ctx, snapshot, f)
	if err != nil {
		return View{}, err
	}
	total := len(snapshot.Records)
	if live {
		n, err := qs.Count(ctx, admissions.Criteria{})
		if err != nil {
			return View{}, fmt.Errorf("count %s: %w", qs.Name(), err)
		}
		total = int(n)
	}
	view := View{
		Version:         snapshot.Version,
		Filter:          f,
		TotalRecords:    total,
		FilteredRecords: len(records),
		GeneratedAt:     time.Now().UTC(),
		Dashboard:       aggregate.Build(records),
	}
	metrics.ObserveDashboard()

	if s.cache != nil && !live {
		if err := s.cache.Set(ctx, key, view); err != nil {
			metrics.ObserveCacheError()
			logger.Log.WithError(err).WithField("key", key).Warn("Dashboard cache write failed")
		}
	}
	return view, nil
}

func (s *Service) KPIs(ctx context.Context, f filter.Filter) (aggregate.KPIs, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return aggregate.KPIs{}, err
	}
	records, err := s.subset(ctx, snapshot, f)
	if err != nil {
		return aggregate.KPIs{}, err
	}
	return aggregate.ComputeKPIs(records), nil
}

// Records runs a record query over the subset selected by f. Filters in the
// query take precedence over f.
func (s *Service) Records(ctx context.Context, query string, f filter.Filter) (Preview, error) {
	parsed, f, err := parseQuery(query, f)
	if err != nil {
		return Preview{}, err
	}
	snapshot, err := s.Snapshot()
	if err != nil {
		return Preview{}, err
	}
	records, err := s.subset(ctx, snapshot, f)
	if err != nil {
		return Preview{}, err
	}

	limit := parsed.Limit
	if limit <= 0 {
		limit = PreviewLimit
	}
	shown := records
	if len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([]map[string]interface{}, 0, len(shown))
	for _, r := range shown {
		rows = append(rows, r.Project(parsed.SelectFields))
	}

	return Preview{
		Version:  snapshot.Version,
		Filter:   f,
		Columns:  parsed.SelectFields,
		Filtered: len(records),
		Rows:     rows,
	}, nil
}

// Export writes the rows selected by query and f as CSV. Without a limit in
// the query every matching row is written.
func (s *Service) Export(ctx context.Context, query string, f filter.Filter, w io.Writer) error {
	parsed, f, err := parseQuery(query, f)
	if err != nil {
		return err
	}
	snapshot, err := s.Snapshot()
	if err != nil {
		return err
	}
	records, err := s.subset(ctx, snapshot, f)
	if err != nil {
		return err
	}
	if parsed.Limit > 0 && len(records) > parsed.Limit {
		records = records[:parsed.Limit]
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(parsed.SelectFields); err != nil {
		return err
	}
	row := make([]string, len(parsed.SelectFields))
	for _, r := range records {
		for i, column := range parsed.SelectFields {
			row[i] = r.Field(column)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// subset selects the records for f, pushing the filter down to the source
// when enabled and supported.
func (s *Service) subset(ctx context.Context, snapshot *Snapshot, f filter.Filter) ([]admissions.Record, error) {
	if qs, live := s.pushDownSource(f); live {
		records, _, err := qs.Query(ctx, f.Criteria())
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", qs.Name(), err)
		}
		return records, nil
	}
	return filter.Apply(snapshot.Records, f), nil
}

func (s *Service) pushDownSource(f filter.Filter) (admissions.QuerySource, bool) {
	qs, ok := s.source.(admissions.QuerySource)
	return qs, ok && s.pushDown && !f.IsEmpty()
}

func parseQuery(query string, f filter.Filter) (dsl.Query, filter.Filter, error) {
	if strings.TrimSpace(query) == "" {
		query = "select *"
	}
	parsed, err := dsl.Parse(query)
	if err != nil {
		return dsl.Query{}, filter.Filter{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	qf, err := parsed.Filter()
	if err != nil {
		return dsl.Query{}, filter.Filter{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return parsed, f.Merge(qf), nil
}

type Option func(*Service)

func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithPublisher announces every successful reload.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithPushDown evaluates filters in the source instead of the snapshot when
// the source supports queries.
func WithPushDown() Option {
	return func(s *Service) {
		s.pushDown = true
	}
}
