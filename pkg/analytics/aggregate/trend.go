package aggregate

import (
	"sort"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

type MonthlyPoint struct {
	Month      string  `json:"month"`
	Admissions int     `json:"admissions"`
	Patients   int     `json:"patients"`
	Billing    float64 `json:"billing"`
}

// MonthlyTrend groups records by admission month. Records without an
// admission date are not part of any month.
func MonthlyTrend(records []admissions.Record) []MonthlyPoint {
	type bucket struct {
		admissions int
		billing    decimal.Decimal
		patients   map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	for _, r := range records {
		if r.AdmitDate == nil {
			continue
		}
		month := r.AdmitDate.Format(monthLayout)
		b, ok := buckets[month]
		if !ok {
			b = &bucket{billing: decimal.Zero, patients: make(map[string]struct{})}
			buckets[month] = b
		}
		b.admissions++
		if r.BillingAmount != nil {
			b.billing = b.billing.Add(decimal.NewFromFloat(*r.BillingAmount))
		}
		if r.PatientID != "" {
			b.patients[r.PatientID] = struct{}{}
		}
	}

	points := make([]MonthlyPoint, 0, len(buckets))
	for month, b := range buckets {
		points = append(points, MonthlyPoint{
			Month:      month,
			Admissions: b.admissions,
			Patients:   len(b.patients),
			Billing:    b.billing.InexactFloat64(),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Month < points[j].Month
	})
	return points
}

type CategoryPoint struct {
	Month    string `json:"month"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryTrend counts records per admission month and value of column
// (diagnosis or test), ordered by month, then count desc, then category.
func CategoryTrend(records []admissions.Record, column string) []CategoryPoint {
	type key struct{ month, category string }
	counts := make(map[key]int)
	for _, r := range records {
		if r.AdmitDate == nil {
			continue
		}
		counts[key{r.AdmitDate.Format(monthLayout), category(r, column)}]++
	}

	points := make([]CategoryPoint, 0, len(counts))
	for k, count := range counts {
		points = append(points, CategoryPoint{Month: k.month, Category: k.category, Count: count})
	}
	sort.Slice(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	return points
}

type FlowPoint struct {
	Date       string `json:"date"`
	Admissions int    `json:"admissions"`
	Discharges int    `json:"discharges"`
}

// AdmissionFlow counts admissions and discharges per calendar day. A day
// appears when it has at least one of either.
func AdmissionFlow(records []admissions.Record) []FlowPoint {
	days := make(map[string]*FlowPoint)
	day := func(date string) *FlowPoint {
		p, ok := days[date]
		if !ok {
			p = &FlowPoint{Date: date}
			days[date] = p
		}
		return p
	}
	for _, r := range records {
		if r.AdmitDate != nil {
			day(r.AdmitDate.Format(admissions.DateLayout)).Admissions++
		}
		if r.DischargeDate != nil {
			day(r.DischargeDate.Format(admissions.DateLayout)).Discharges++
		}
	}

	points := make([]FlowPoint, 0, len(days))
	for _, p := range days {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}
