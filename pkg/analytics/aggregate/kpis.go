// Package aggregate computes the dashboard summaries over a record subset.
// Every function is pure and returns empty, non-nil slices for empty input.
package aggregate

import (
	"math"
	"time"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Unknown is the bucket for records with a missing category.
const Unknown = "Unknown"

type KPIs struct {
	Records         int     `json:"records"`
	Patients        int     `json:"patients"`
	Doctors         int     `json:"doctors"`
	Diagnoses       int     `json:"diagnoses"`
	Tests           int     `json:"tests"`
	Wards           int     `json:"wards"`
	BilledRecords   int     `json:"billed_records"`
	TotalBilling    float64 `json:"total_billing"`
	AverageBilling  float64 `json:"average_billing"`
	DaysCoverage    int     `json:"days_coverage"`
	AverageStayDays float64 `json:"average_stay_days"`
}

func ComputeKPIs(records []admissions.Record) KPIs {
	kpis := KPIs{
		Records:   len(records),
		Patients:  distinctCount(records, admissions.ColumnPatientID),
		Doctors:   distinctCount(records, admissions.ColumnDoctor),
		Diagnoses: distinctCount(records, admissions.ColumnDiagnosis),
		Tests:     distinctCount(records, admissions.ColumnTest),
		Wards:     distinctCount(records, admissions.ColumnWard),
	}

	total := decimal.Zero
	var firstAdmit, lastDischarge *time.Time
	stayTotal, stays := 0, 0
	for _, r := range records {
		if r.BillingAmount != nil {
			total = total.Add(decimal.NewFromFloat(*r.BillingAmount))
			kpis.BilledRecords++
		}
		if r.AdmitDate != nil && (firstAdmit == nil || r.AdmitDate.Before(*firstAdmit)) {
			firstAdmit = r.AdmitDate
		}
		if r.DischargeDate != nil && (lastDischarge == nil || r.DischargeDate.After(*lastDischarge)) {
			lastDischarge = r.DischargeDate
		}
		if days, ok := r.StayDays(); ok && days >= 0 {
			stayTotal += days
			stays++
		}
	}

	kpis.TotalBilling = total.InexactFloat64()
	if kpis.BilledRecords > 0 {
		kpis.AverageBilling = total.Div(decimal.NewFromInt(int64(kpis.BilledRecords))).InexactFloat64()
	}
	if firstAdmit != nil && lastDischarge != nil {
		kpis.DaysCoverage = int(math.Max(0, lastDischarge.Sub(*firstAdmit).Hours()/24))
	}
	if stays > 0 {
		kpis.AverageStayDays = float64(stayTotal) / float64(stays)
	}
	return kpis
}

// distinctCount counts the distinct non-missing values of column.
func distinctCount(records []admissions.Record, column string) int {
	return len(lo.Uniq(lo.FilterMap(records, func(r admissions.Record, _ int) (string, bool) {
		v := r.Field(column)
		return v, v != ""
	})))
}

func category(r admissions.Record, column string) string {
	if v := r.Field(column); v != "" {
		return v
	}
	return Unknown
}
