package admissions

import (
	"context"
	"fmt"

	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/database"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
)

// Source loads the full admissions dataset.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Record, models.LoadStats, error)
}

// QuerySource can evaluate filter criteria itself. Count reports how many
// valid records match c without reading them.
type QuerySource interface {
	Source
	Query(ctx context.Context, c Criteria) ([]Record, models.LoadStats, error)
	Count(ctx context.Context, c Criteria) (int64, error)
}

func NewSource(cfg *config.Config) (Source, error) {
	switch cfg.DatasetSource {
	case config.SourceCSV:
		schema, err := LoadSchema(cfg.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("load schema %s: %w", cfg.SchemaPath, err)
		}
		return NewCSVSource(cfg.DatasetPath, schema), nil
	case config.SourceMySQL, config.SourcePostgres:
		db, err := database.Open(cfg.DatasetSource)
		if err != nil {
			return nil, err
		}
		return NewSQLSource(db, cfg.DatasetTable, cfg.DatasetSource), nil
	default:
		return nil, fmt.Errorf("unsupported dataset source %q", cfg.DatasetSource)
	}
}
