package admissions

import (
	"context"
	"fmt"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/common/models"
	"gorm.io/gorm"
)

const DefaultTable = "admissions"

// Row is the relational shape of a Record.
type Row struct {
	ID            uint       `gorm:"primaryKey;column:id"`
	PatientID     string     `gorm:"column:patient_id;size:64;index"`
	Doctor        string     `gorm:"column:doctor;size:128;index"`
	AdmitDate     *time.Time `gorm:"column:admit_date;type:date;index"`
	DischargeDate *time.Time `gorm:"column:discharge_date;type:date"`
	Diagnosis     string     `gorm:"column:diagnosis;size:128"`
	Test          string     `gorm:"column:test;size:128"`
	Ward          string     `gorm:"column:bed_occupancy;size:64;index"`
	BillingAmount *float64   `gorm:"column:billing_amount;type:decimal(14,2)"`
	Feedback      *int       `gorm:"column:feedback"`
}

func (Row) TableName() string {
	return DefaultTable
}

func RowFromRecord(r Record) Row {
	return Row{
		PatientID:     r.PatientID,
		Doctor:        r.Doctor,
		AdmitDate:     r.AdmitDate,
		DischargeDate: r.DischargeDate,
		Diagnosis:     r.Diagnosis,
		Test:          r.Test,
		Ward:          r.Ward,
		BillingAmount: r.BillingAmount,
		Feedback:      r.Feedback,
	}
}

// Record applies the same coercion rules as the CSV decoder. ok is false
// when the row must be discarded.
func (row Row) Record() (Record, bool) {
	record := Record{
		PatientID:     row.PatientID,
		Doctor:        row.Doctor,
		AdmitDate:     utcDate(row.AdmitDate),
		DischargeDate: utcDate(row.DischargeDate),
		Diagnosis:     row.Diagnosis,
		Test:          row.Test,
		Ward:          row.Ward,
	}
	if row.BillingAmount != nil {
		record.BillingAmount = checkAmount(*row.BillingAmount)
	}
	if row.Feedback != nil {
		record.Feedback = checkFeedback(*row.Feedback)
	}
	return record, valid(record)
}

// Criteria is the push-down form of the dashboard filters. Zero values match
// everything.
type Criteria struct {
	Year   int
	Ward   string
	Doctor string
}

type Condition struct {
	Query string
	Args  []interface{}
}

// Conditions renders the criteria as parameterized WHERE fragments. The year
// predicate is a half-open date range so it is portable across dialects.
func (c Criteria) Conditions() []Condition {
	conditions := make([]Condition, 0, 3)
	if c.Year != 0 {
		from := time.Date(c.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		conditions = append(conditions, Condition{
			Query: "admit_date >= ? AND admit_date < ?",
			Args:  []interface{}{from, from.AddDate(1, 0, 0)},
		})
	}
	if c.Ward != "" {
		conditions = append(conditions, Condition{Query: "bed_occupancy = ?", Args: []interface{}{c.Ward}})
	}
	if c.Doctor != "" {
		conditions = append(conditions, Condition{Query: "doctor = ?", Args: []interface{}{c.Doctor}})
	}
	return conditions
}

const validStay = "(admit_date IS NULL OR discharge_date IS NULL OR DATE(discharge_date) >= DATE(admit_date))"

type SQLSource struct {
	db      *gorm.DB
	table   string
	dialect string
}

func NewSQLSource(db *gorm.DB, table, dialect string) *SQLSource {
	if table == "" {
		table = DefaultTable
	}
	return &SQLSource{db: db, table: table, dialect: dialect}
}

func (s *SQLSource) Name() string {
	return fmt.Sprintf("%s:%s", s.dialect, s.table)
}

func (s *SQLSource) Load(ctx context.Context) ([]Record, models.LoadStats, error) {
	return s.Query(ctx, Criteria{})
}

// Query reads the rows matching c. The result is ordered by admission date.
func (s *SQLSource) Query(ctx context.Context, c Criteria) ([]Record, models.LoadStats, error) {
	tx := s.db.WithContext(ctx).Table(s.table)
	for _, cond := range c.Conditions() {
		tx = tx.Where(cond.Query, cond.Args...)
	}

	var rows []Row
	if err := tx.Order("admit_date ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, models.LoadStats{}, fmt.Errorf("query %s: %w", s.table, err)
	}

	stats := models.LoadStats{Source: s.Name(), Rows: len(rows)}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		record, ok := row.Record()
		if !ok {
			stats.Discarded++
			continue
		}
		records = append(records, record)
	}
	stats.Loaded = len(records)
	stats.LoadedAt = time.Now().UTC()
	return records, stats, nil
}

// Count applies the same discard rule as Query in SQL.
func (s *SQLSource) Count(ctx context.Context, c Criteria) (int64, error) {
	tx := s.db.WithContext(ctx).Table(s.table).Where(validStay)
	for _, cond := range c.Conditions() {
		tx = tx.Where(cond.Query, cond.Args...)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", s.table, err)
	}
	return n, nil
}

func utcDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &u
}
