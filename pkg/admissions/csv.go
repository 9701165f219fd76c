package admissions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/common/models"
)

// Opener returns the raw dataset stream for a path.
type Opener func(ctx context.Context, path string) (io.ReadCloser, error)

type CSVSource struct {
	path   string
	schema Schema
	open   Opener
}

type CSVOption func(*CSVSource)

// WithOpener replaces the default file/S3 opener.
func WithOpener(open Opener) CSVOption {
	return func(s *CSVSource) {
		s.open = open
	}
}

func NewCSVSource(path string, schema Schema, opts ...CSVOption) *CSVSource {
	src := &CSVSource{path: path, schema: schema, open: openPath}
	for _, opt := range opts {
		if opt != nil {
			opt(src)
		}
	}
	return src
}

func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

func (s *CSVSource) Load(ctx context.Context) ([]Record, models.LoadStats, error) {
	rc, err := s.open(ctx, s.path)
	if err != nil {
		return nil, models.LoadStats{}, fmt.Errorf("open dataset %s: %w", s.path, err)
	}
	defer rc.Close()

	records, stats, err := Decode(rc, s.schema)
	if err != nil {
		return nil, stats, fmt.Errorf("decode dataset %s: %w", s.path, err)
	}
	stats.Source = s.Name()
	return records, stats, nil
}

// Decode reads a CSV stream with a header row. Rows that cannot be parsed or
// violate record invariants are counted as discarded.
func Decode(r io.Reader, schema Schema) ([]Record, models.LoadStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	stats := models.LoadStats{}
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, errors.New("dataset is empty")
		}
		return nil, stats, err
	}
	index := schema.Resolve(header)
	if len(index) == 0 {
		return nil, stats, fmt.Errorf("no known columns in header %v", header)
	}

	records := make([]Record, 0, 256)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Log.WithError(err).WithField("line", parseErr.Line).Debug("Skipping malformed row")
				stats.Discarded++
				continue
			}
			return nil, stats, err
		}

		record := decodeRow(row, index)
		if !valid(record) {
			stats.Discarded++
			continue
		}
		records = append(records, record)
	}

	stats.Loaded = len(records)
	stats.LoadedAt = time.Now().UTC()
	return records, stats, nil
}

func decodeRow(row []string, index map[string]int) Record {
	get := func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return Record{
		PatientID:     get(ColumnPatientID),
		Doctor:        get(ColumnDoctor),
		AdmitDate:     parseDate(get(ColumnAdmitDate)),
		DischargeDate: parseDate(get(ColumnDischargeDate)),
		Diagnosis:     get(ColumnDiagnosis),
		Test:          get(ColumnTest),
		Ward:          get(ColumnWard),
		BillingAmount: parseAmount(get(ColumnBilling)),
		Feedback:      parseFeedback(get(ColumnFeedback)),
	}
}

func openPath(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, s3Scheme) {
		return openS3(ctx, path)
	}
	return os.Open(filepath.Clean(path))
}
