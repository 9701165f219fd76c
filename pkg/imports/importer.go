// Package imports copies a dataset file into the SQL admissions table.
package imports

import (
	"context"
	"fmt"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultBatchSize = 500

type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Importer struct {
	db        *gorm.DB
	repo      *Repository
	table     string
	batchSize int
	replace   bool
	publisher Publisher
}

type Option func(*Importer)

func WithBatchSize(size int) Option {
	return func(i *Importer) {
		if size > 0 {
			i.batchSize = size
		}
	}
}

func WithTable(table string) Option {
	return func(i *Importer) {
		if table != "" {
			i.table = table
		}
	}
}

// WithReplace deletes the existing admissions before writing.
func WithReplace(replace bool) Option {
	return func(i *Importer) {
		i.replace = replace
	}
}

// WithPublisher announces completed imports as dataset.imported events.
func WithPublisher(publisher Publisher) Option {
	return func(i *Importer) {
		i.publisher = publisher
	}
}

func NewImporter(db *gorm.DB, opts ...Option) *Importer {
	imp := &Importer{
		db:        db,
		repo:      NewRepository(db),
		table:     admissions.DefaultTable,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(imp)
		}
	}
	return imp
}

func (i *Importer) Repository() *Repository {
	return i.repo
}

// Run loads source and writes its records in one transaction. The job row
// is left in the failed state when any step fails.
func (i *Importer) Run(ctx context.Context, source admissions.Source) (*Job, error) {
	job := &Job{Source: source.Name(), Target: i.table, Status: StatusQueued}
	if err := i.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	started := time.Now().UTC()
	job.Status, job.StartedAt = StatusRunning, &started
	if err := i.repo.Update(ctx, job.ID, map[string]interface{}{"status": StatusRunning, "started_at": started}); err != nil {
		return job, fmt.Errorf("start import job: %w", err)
	}

	records, stats, err := source.Load(ctx)
	if err != nil {
		return job, i.fail(ctx, job, fmt.Errorf("load %s: %w", source.Name(), err))
	}

	rows := toRows(records)
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if i.replace {
			if err := tx.Table(i.table).Where("1 = 1").Delete(&admissions.Row{}).Error; err != nil {
				return fmt.Errorf("clear %s: %w", i.table, err)
			}
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Table(i.table).CreateInBatches(&rows, i.batchSize).Error
	})
	if err != nil {
		return job, i.fail(ctx, job, fmt.Errorf("write %s: %w", i.table, err))
	}

	completed := time.Now().UTC()
	job.Status = StatusCompleted
	job.Rows, job.Written, job.Discarded = stats.Rows, len(rows), stats.Discarded
	job.Summary = summary(stats, len(rows), i.replace)
	job.CompletedAt = &completed
	if err := i.repo.Update(ctx, job.ID, map[string]interface{}{
		"status":       job.Status,
		"rows":         job.Rows,
		"written":      job.Written,
		"discarded":    job.Discarded,
		"summary":      job.Summary,
		"completed_at": completed,
	}); err != nil {
		return job, fmt.Errorf("complete import job: %w", err)
	}

	logger.Component("importer").WithFields(map[string]interface{}{
		"job_id":    job.ID.String(),
		"source":    job.Source,
		"table":     i.table,
		"written":   job.Written,
		"discarded": job.Discarded,
	}).Info("Dataset imported")

	if i.publisher != nil {
		data := lo.Assign(map[string]interface{}(job.Summary), map[string]interface{}{"job_id": job.ID.String()})
		if err := i.publisher.PublishEvent(ctx, models.EventDatasetImported, "dataset-import", data); err != nil {
			logger.Component("importer").WithError(err).Warn("Failed to publish import event")
		}
	}
	return job, nil
}

func (i *Importer) fail(ctx context.Context, job *Job, cause error) error {
	job.Status = StatusFailed
	job.ErrorMessage = cause.Error()
	if err := i.repo.Update(ctx, job.ID, map[string]interface{}{
		"status":        StatusFailed,
		"error_message": job.ErrorMessage,
		"completed_at":  time.Now().UTC(),
	}); err != nil {
		logger.Component("importer").WithError(err).WithField("job_id", job.ID.String()).Error("Failed to record import failure")
	}
	return cause
}

func toRows(records []admissions.Record) []admissions.Row {
	return lo.Map(records, func(r admissions.Record, _ int) admissions.Row {
		return admissions.RowFromRecord(r)
	})
}

func summary(stats models.LoadStats, written int, replaced bool) datatypes.JSONMap {
	out := datatypes.JSONMap(stats.EventData())
	out["written"] = written
	out["replaced"] = replaced
	return out
}
