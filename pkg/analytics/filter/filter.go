// Package filter selects the subset of admissions a dashboard is computed over.
package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/samber/lo"
)

// All is the option value that disables a predicate.
const All = "All"

// Filter holds up to three equality predicates. Zero values are absent.
type Filter struct {
	Year   int    `json:"year,omitempty"`
	Ward   string `json:"ward,omitempty"`
	Doctor string `json:"doctor,omitempty"`
}

func (f Filter) IsEmpty() bool {
	return f.Year == 0 && f.Ward == "" && f.Doctor == ""
}

// Matches applies every present predicate. A record without an admission
// date never matches a year predicate.
func (f Filter) Matches(r admissions.Record) bool {
	if f.Year != 0 && r.AdmitYear() != f.Year {
		return false
	}
	if f.Ward != "" && r.Ward != f.Ward {
		return false
	}
	if f.Doctor != "" && r.Doctor != f.Doctor {
		return false
	}
	return true
}

// Merge returns f with every predicate present in other overriding it.
func (f Filter) Merge(other Filter) Filter {
	if other.Year != 0 {
		f.Year = other.Year
	}
	if other.Ward != "" {
		f.Ward = other.Ward
	}
	if other.Doctor != "" {
		f.Doctor = other.Doctor
	}
	return f
}

func (f Filter) Criteria() admissions.Criteria {
	return admissions.Criteria{Year: f.Year, Ward: f.Ward, Doctor: f.Doctor}
}

// Key is a stable, unambiguous encoding used in cache keys.
func (f Filter) Key() string {
	return fmt.Sprintf("y=%d|w=%s|d=%s", f.Year, url.QueryEscape(f.Ward), url.QueryEscape(f.Doctor))
}

// Apply returns the records matching f. The result is never nil.
func Apply(records []admissions.Record, f Filter) []admissions.Record {
	if f.IsEmpty() {
		out := make([]admissions.Record, len(records))
		copy(out, records)
		return out
	}
	return lo.Filter(records, func(r admissions.Record, _ int) bool {
		return f.Matches(r)
	})
}

// Parse reads year, ward (or bed_occupancy) and doctor from query values.
// Empty values and the All sentinel leave the predicate absent.
func Parse(values url.Values) (Filter, error) {
	var f Filter
	if raw := selected(values.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year <= 0 {
			return Filter{}, fmt.Errorf("invalid year %q", raw)
		}
		f.Year = year
	}
	f.Ward = selected(values.Get("ward"))
	if f.Ward == "" {
		f.Ward = selected(values.Get(admissions.ColumnWard))
	}
	f.Doctor = selected(values.Get("doctor"))
	return f, nil
}

func selected(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, All) {
		return ""
	}
	return raw
}

// Options are the selectable values of each filter.
type Options struct {
	Years   []int    `json:"years"`
	Wards   []string `json:"wards"`
	Doctors []string `json:"doctors"`
}

func BuildOptions(records []admissions.Record) Options {
	years := lo.Uniq(lo.FilterMap(records, func(r admissions.Record, _ int) (int, bool) {
		year := r.AdmitYear()
		return year, year != 0
	}))
	wards := distinct(records, func(r admissions.Record) string { return r.Ward })
	doctors := distinct(records, func(r admissions.Record) string { return r.Doctor })

	sort.Ints(years)
	return Options{Years: years, Wards: wards, Doctors: doctors}
}

func distinct(records []admissions.Record, key func(admissions.Record) string) []string {
	values := lo.Uniq(lo.FilterMap(records, func(r admissions.Record, _ int) (string, bool) {
		v := key(r)
		return v, v != ""
	}))
	sort.Strings(values)
	return values
}
