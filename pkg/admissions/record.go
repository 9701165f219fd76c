package admissions

import (
	"strconv"
	"time"
)

// Canonical column names. They match the column names of the source
// dataset and of the SQL table.
const (
	ColumnPatientID     = "patient_id"
	ColumnDoctor        = "doctor"
	ColumnAdmitDate     = "admit_date"
	ColumnDischargeDate = "discharge_date"
	ColumnDiagnosis     = "diagnosis"
	ColumnTest          = "test"
	ColumnWard          = "bed_occupancy"
	ColumnBilling       = "billing_amount"
	ColumnFeedback      = "feedback"
)

const (
	MinFeedback = 1
	MaxFeedback = 5

	DateLayout = "2006-01-02"
)

// Columns lists every record column in dataset order.
var Columns = []string{
	ColumnPatientID,
	ColumnDoctor,
	ColumnAdmitDate,
	ColumnDischargeDate,
	ColumnDiagnosis,
	ColumnTest,
	ColumnWard,
	ColumnBilling,
	ColumnFeedback,
}

// Record is one hospital visit. Pointer fields are nil when the source value
// was missing or could not be coerced.
type Record struct {
	PatientID     string     `json:"patient_id"`
	Doctor        string     `json:"doctor"`
	AdmitDate     *time.Time `json:"admit_date"`
	DischargeDate *time.Time `json:"discharge_date"`
	Diagnosis     string     `json:"diagnosis"`
	Test          string     `json:"test"`
	Ward          string     `json:"bed_occupancy"`
	BillingAmount *float64   `json:"billing_amount"`
	Feedback      *int       `json:"feedback"`
}

// IsColumn reports whether name is a canonical record column.
func IsColumn(name string) bool {
	for _, column := range Columns {
		if column == name {
			return true
		}
	}
	return false
}

// Field renders a single column as text. Missing values render as "".
func (r Record) Field(column string) string {
	switch column {
	case ColumnPatientID:
		return r.PatientID
	case ColumnDoctor:
		return r.Doctor
	case ColumnAdmitDate:
		return formatDate(r.AdmitDate)
	case ColumnDischargeDate:
		return formatDate(r.DischargeDate)
	case ColumnDiagnosis:
		return r.Diagnosis
	case ColumnTest:
		return r.Test
	case ColumnWard:
		return r.Ward
	case ColumnBilling:
		if r.BillingAmount == nil {
			return ""
		}
		return strconv.FormatFloat(*r.BillingAmount, 'f', 2, 64)
	case ColumnFeedback:
		if r.Feedback == nil {
			return ""
		}
		return strconv.Itoa(*r.Feedback)
	default:
		return ""
	}
}

// Project returns the selected columns as a map, keeping missing values as nil.
func (r Record) Project(columns []string) map[string]interface{} {
	row := make(map[string]interface{}, len(columns))
	for _, column := range columns {
		switch column {
		case ColumnAdmitDate:
			row[column] = dateValue(r.AdmitDate)
		case ColumnDischargeDate:
			row[column] = dateValue(r.DischargeDate)
		case ColumnBilling:
			if r.BillingAmount != nil {
				row[column] = *r.BillingAmount
			} else {
				row[column] = nil
			}
		case ColumnFeedback:
			if r.Feedback != nil {
				row[column] = *r.Feedback
			} else {
				row[column] = nil
			}
		default:
			row[column] = r.Field(column)
		}
	}
	return row
}

// AdmitYear returns the calendar year of admission, or 0 when unknown.
func (r Record) AdmitYear() int {
	if r.AdmitDate == nil {
		return 0
	}
	return r.AdmitDate.Year()
}

// StayDays is the whole number of days between admission and discharge.
func (r Record) StayDays() (int, bool) {
	if r.AdmitDate == nil || r.DischargeDate == nil {
		return 0, false
	}
	return int(r.DischargeDate.Sub(*r.AdmitDate).Hours() / 24), true
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

func dateValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}
