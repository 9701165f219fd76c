package imports

import (
	"context"
	"errors"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrNotFound = errors.New("import job not found")

// Job records one run of a dataset import.
type Job struct {
	ID           uuid.UUID         `gorm:"primaryKey;column:id;type:char(36)" json:"id"`
	Source       string            `gorm:"column:source;size:512" json:"source"`
	Target       string            `gorm:"column:target;size:128" json:"target"`
	Status       string            `gorm:"column:status;size:16;index" json:"status"`
	Rows         int               `gorm:"column:rows" json:"rows"`
	Written      int               `gorm:"column:written" json:"written"`
	Discarded    int               `gorm:"column:discarded" json:"discarded"`
	Summary      datatypes.JSONMap `gorm:"column:summary" json:"summary,omitempty"`
	ErrorMessage string            `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time         `gorm:"column:created_at" json:"created_at"`
	StartedAt    *time.Time        `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time        `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Job) TableName() string {
	return "import_jobs"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates the job table and the admissions table.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Job{}, &admissions.Row{})
}

func (r *Repository) Create(ctx context.Context, job *Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	var job Job
	result := r.db.WithContext(ctx).First(&job, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &job, result.Error
}

func (r *Repository) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []Job
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
