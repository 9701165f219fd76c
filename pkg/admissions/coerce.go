package admissions

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func parseAmount(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return checkAmount(value)
}

func checkAmount(value float64) *float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return nil
	}
	return &value
}

// parseFeedback accepts integral scores, including "4.0" as written by
// spreadsheet exports.
func parseFeedback(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value != math.Trunc(value) {
		return nil
	}
	return checkFeedback(int(value))
}

func checkFeedback(score int) *int {
	if score < MinFeedback || score > MaxFeedback {
		return nil
	}
	return &score
}

// valid reports whether the record satisfies the dataset invariants that
// cannot be repaired by dropping a single value.
func valid(r Record) bool {
	if r.AdmitDate != nil && r.DischargeDate != nil && r.DischargeDate.Before(*r.AdmitDate) {
		return false
	}
	return true
}
