package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/SankarSivan/Healthcare/pkg/analytics/filter"
)

type Clause struct {
	Field    string
	Operator string
	Value    string
}

type Query struct {
	SelectFields []string
	Filters      []Clause
	Limit        int
}

var (
	selectRegex = regexp.MustCompile(`(?i)^select\s+(.+?)(?:\s+where\s|\s+limit\s|$)`)
	whereRegex  = regexp.MustCompile(`(?i)\swhere\s+(.+?)(?:\s+limit\s+\d+)?$`)
	limitRegex  = regexp.MustCompile(`(?i)\slimit\s+(\d+)$`)
	clauseRegex = regexp.MustCompile(`^([a-zA-Z_]+)\s*(!=|>=|<=|=|>|<)\s*(.+)$`)
)

// filterFields maps accepted where-clause fields to filter predicates.
var filterFields = map[string]string{
	"year":                  "year",
	"ward":                  "ward",
	admissions.ColumnWard:   "ward",
	admissions.ColumnDoctor: "doctor",
}

// Parse reads `select <cols> [where <field> = <value> [and ...]] [limit N]`.
// Keywords are case-insensitive; quoted values keep their case and spaces.
func Parse(input string) (Query, error) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(strings.ToLower(input), "select") {
		return Query{}, fmt.Errorf("query must start with select")
	}

	var query Query

	selectMatch := selectRegex.FindStringSubmatch(input)
	if len(selectMatch) < 2 {
		return Query{}, fmt.Errorf("missing select fields")
	}
	for _, field := range strings.Split(selectMatch[1], ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		if field == "*" {
			query.SelectFields = append([]string(nil), admissions.Columns...)
			break
		}
		if !admissions.IsColumn(field) {
			return Query{}, fmt.Errorf("unknown column %q", field)
		}
		query.SelectFields = append(query.SelectFields, field)
	}

	if whereMatch := whereRegex.FindStringSubmatch(input); len(whereMatch) >= 2 {
		for _, part := range splitConjunction(whereMatch[1]) {
			match := clauseRegex.FindStringSubmatch(strings.TrimSpace(part))
			if len(match) < 4 {
				return Query{}, fmt.Errorf("invalid condition %q", part)
			}
			field := strings.ToLower(match[1])
			if _, ok := filterFields[field]; !ok {
				return Query{}, fmt.Errorf("cannot filter on %q", field)
			}
			if match[2] != "=" {
				return Query{}, fmt.Errorf("unsupported operator %q", match[2])
			}
			query.Filters = append(query.Filters, Clause{
				Field:    filterFields[field],
				Operator: match[2],
				Value:    unquote(strings.TrimSpace(match[3])),
			})
		}
	}

	if limitMatch := limitRegex.FindStringSubmatch(input); len(limitMatch) >= 2 {
		limit, err := strconv.Atoi(limitMatch[1])
		if err != nil {
			return Query{}, fmt.Errorf("invalid limit %q", limitMatch[1])
		}
		query.Limit = limit
	}

	if len(query.SelectFields) == 0 {
		return Query{}, fmt.Errorf("at least one field must be selected")
	}

	return query, nil
}

// Filter folds the where clauses into a dashboard filter.
func (q Query) Filter() (filter.Filter, error) {
	var f filter.Filter
	for _, clause := range q.Filters {
		switch clause.Field {
		case "year":
			year, err := strconv.Atoi(clause.Value)
			if err != nil || year <= 0 {
				return filter.Filter{}, fmt.Errorf("invalid year %q", clause.Value)
			}
			f.Year = year
		case "ward":
			f.Ward = clause.Value
		case "doctor":
			f.Doctor = clause.Value
		}
	}
	return f, nil
}

const conjunction = " and "

// splitConjunction splits on the keyword "and" outside quoted values.
func splitConjunction(input string) []string {
	var parts []string
	var quote rune
	start := 0
	for i, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ' ' && len(input)-i >= len(conjunction) && strings.EqualFold(input[i:i+len(conjunction)], conjunction):
			parts = append(parts, input[start:i])
			start = i + len(conjunction)
		}
	}
	return append(parts, input[start:])
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '\'' || first == '"') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}
