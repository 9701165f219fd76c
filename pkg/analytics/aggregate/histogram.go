package aggregate

import (
	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/samber/lo"
)

// DefaultBins is the number of bins of the dashboard histograms.
const DefaultBins = 10

// Bin covers [Lower, Upper). The last bin of a histogram also includes Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram splits values into equal-width bins between their minimum and
// maximum. When every value is equal the range is widened by 0.5 on each side.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return []Bin{}
	}
	low, high := lo.Min(values), lo.Max(values)
	if low == high {
		low, high = low-0.5, high+0.5
	}
	width := (high - low) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = low + float64(i)*width
		out[i].Upper = low + float64(i+1)*width
	}
	out[bins-1].Upper = high

	for _, v := range values {
		i := int((v - low) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// LengthOfStayHistogram bins the stay in days of records with both dates.
func LengthOfStayHistogram(records []admissions.Record) []Bin {
	stays := lo.FilterMap(records, func(r admissions.Record, _ int) (float64, bool) {
		days, ok := r.StayDays()
		return float64(days), ok && days >= 0
	})
	return Histogram(stays, DefaultBins)
}

func BillingHistogram(records []admissions.Record) []Bin {
	amounts := lo.FilterMap(records, func(r admissions.Record, _ int) (float64, bool) {
		if r.BillingAmount == nil {
			return 0, false
		}
		return *r.BillingAmount, true
	})
	return Histogram(amounts, DefaultBins)
}
