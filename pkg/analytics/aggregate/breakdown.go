package aggregate

import (
	"sort"
	"strconv"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Breakdown counts records per value of column, count desc then key asc.
// The counts always sum to len(records).
func Breakdown(records []admissions.Record, column string) []Count {
	counts := lo.CountValuesBy(records, func(r admissions.Record) string {
		return category(r, column)
	})
	out := make([]Count, 0, len(counts))
	for key, n := range counts {
		out = append(out, Count{Key: key, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// FeedbackDistribution reports every score from 1 to 5 in order, followed by
// an Unknown bucket when some records have no score. No records, no buckets.
func FeedbackDistribution(records []admissions.Record) []Count {
	if len(records) == 0 {
		return []Count{}
	}
	scores := make([]int, admissions.MaxFeedback+1)
	unknown := 0
	for _, r := range records {
		if r.Feedback == nil || *r.Feedback < admissions.MinFeedback || *r.Feedback > admissions.MaxFeedback {
			unknown++
			continue
		}
		scores[*r.Feedback]++
	}

	out := make([]Count, 0, admissions.MaxFeedback+1)
	for score := admissions.MinFeedback; score <= admissions.MaxFeedback; score++ {
		out = append(out, Count{Key: strconv.Itoa(score), Count: scores[score]})
	}
	if unknown > 0 {
		out = append(out, Count{Key: Unknown, Count: unknown})
	}
	return out
}

type DoctorStats struct {
	Doctor          string  `json:"doctor"`
	Admissions      int     `json:"admissions"`
	AverageBilling  float64 `json:"average_billing"`
	AverageFeedback float64 `json:"average_feedback"`
	FeedbackCount   int     `json:"feedback_count"`
}

// DoctorPerformance summarizes each doctor's records, ordered by name.
func DoctorPerformance(records []admissions.Record) []DoctorStats {
	type acc struct {
		admissions, billed, rated int
		billing                   decimal.Decimal
		feedback                  int
	}
	byDoctor := make(map[string]*acc)
	for _, r := range records {
		doctor := category(r, admissions.ColumnDoctor)
		a, ok := byDoctor[doctor]
		if !ok {
			a = &acc{billing: decimal.Zero}
			byDoctor[doctor] = a
		}
		a.admissions++
		if r.BillingAmount != nil {
			a.billing = a.billing.Add(decimal.NewFromFloat(*r.BillingAmount))
			a.billed++
		}
		if r.Feedback != nil {
			a.feedback += *r.Feedback
			a.rated++
		}
	}

	out := make([]DoctorStats, 0, len(byDoctor))
	for doctor, a := range byDoctor {
		stats := DoctorStats{Doctor: doctor, Admissions: a.admissions, FeedbackCount: a.rated}
		if a.billed > 0 {
			stats.AverageBilling = a.billing.Div(decimal.NewFromInt(int64(a.billed))).InexactFloat64()
		}
		if a.rated > 0 {
			stats.AverageFeedback = float64(a.feedback) / float64(a.rated)
		}
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Doctor < out[j].Doctor
	})
	return out
}

// DoctorFeedbackRanking orders rated doctors by mean feedback, best first.
func DoctorFeedbackRanking(records []admissions.Record) []DoctorStats {
	out := lo.Filter(DoctorPerformance(records), func(s DoctorStats, _ int) bool {
		return s.FeedbackCount > 0
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageFeedback > out[j].AverageFeedback
	})
	return out
}

type PairCount struct {
	Doctor string `json:"doctor"`
	Test   string `json:"test"`
	Count  int    `json:"count"`
}

func DoctorTestPatterns(records []admissions.Record) []PairCount {
	type key struct{ doctor, test string }
	counts := make(map[key]int)
	for _, r := range records {
		counts[key{category(r, admissions.ColumnDoctor), category(r, admissions.ColumnTest)}]++
	}

	out := make([]PairCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, PairCount{Doctor: k.doctor, Test: k.test, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Doctor != b.Doctor {
			return a.Doctor < b.Doctor
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Test < b.Test
	})
	return out
}

type BillingTotal struct {
	Label     string  `json:"label"`
	Diagnosis string  `json:"diagnosis"`
	Test      string  `json:"test"`
	Billing   float64 `json:"billing"`
}

// TopBilling sums billing per diagnosis and test pair and returns the n
// largest. n <= 0 returns every pair.
func TopBilling(records []admissions.Record, n int) []BillingTotal {
	type key struct{ diagnosis, test string }
	sums := make(map[key]decimal.Decimal)
	for _, r := range records {
		if r.BillingAmount == nil {
			continue
		}
		k := key{category(r, admissions.ColumnDiagnosis), category(r, admissions.ColumnTest)}
		sums[k] = sums[k].Add(decimal.NewFromFloat(*r.BillingAmount))
	}

	type ranked struct {
		total BillingTotal
		sum   decimal.Decimal
	}
	all := make([]ranked, 0, len(sums))
	for k, sum := range sums {
		all = append(all, ranked{
			total: BillingTotal{
				Label:     k.diagnosis + " - " + k.test,
				Diagnosis: k.diagnosis,
				Test:      k.test,
				Billing:   sum.InexactFloat64(),
			},
			sum: sum,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if c := all[i].sum.Cmp(all[j].sum); c != 0 {
			return c > 0
		}
		return all[i].total.Label < all[j].total.Label
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return lo.Map(all, func(r ranked, _ int) BillingTotal {
		return r.total
	})
}
