package admissions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema maps dataset headers onto canonical columns. Each canonical column
// always matches its own name; Aliases adds alternatives.
type Schema struct {
	Aliases map[string][]string `yaml:"aliases" json:"aliases"`
}

func LoadSchema(path string) (Schema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultSchema(), err
	}
	var schema Schema
	if err := yaml.Unmarshal(content, &schema); err != nil {
		return Schema{}, err
	}
	for column := range schema.Aliases {
		if !IsColumn(column) {
			return Schema{}, fmt.Errorf("schema: unknown column %q", column)
		}
	}
	return schema, nil
}

func DefaultSchema() Schema {
	return Schema{Aliases: map[string][]string{
		ColumnPatientID:     {"patientid", "patient"},
		ColumnAdmitDate:     {"admission_date", "admit"},
		ColumnDischargeDate: {"discharge"},
		ColumnWard:          {"ward", "ward_type"},
		ColumnBilling:       {"billing", "bill_amount"},
		ColumnFeedback:      {"feedback_score"},
	}}
}

// Resolve returns the header index of every canonical column present.
func (s Schema) Resolve(header []string) map[string]int {
	lookup := make(map[string]string)
	for _, column := range Columns {
		lookup[column] = column
		for _, alias := range s.Aliases[column] {
			lookup[normalizeHeader(alias)] = column
		}
	}

	index := make(map[string]int)
	for i, name := range header {
		column, ok := lookup[normalizeHeader(name)]
		if !ok {
			continue
		}
		if _, seen := index[column]; !seen {
			index[column] = i
		}
	}
	return index
}

func normalizeHeader(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	name = strings.ToLower(name)
	return strings.Join(strings.Fields(name), "_")
}
