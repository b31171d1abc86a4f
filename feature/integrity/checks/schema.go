package checks

import (
	"fmt"
	"sort"
	"sync"

	"sapataria/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SchemaReport is the result of comparing the mapped models with the live tables.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "missing", "error"
}

// CheckSchema verifies that every column of every model exists in its table.
// The models are the source of truth; extra columns in the database are ignored.
func CheckSchema(db *gorm.DB, models ...any) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Matched: true,
		Tables:  make(map[string]TableReport, len(models)),
		Errors:  []string{},
	}
	cache := &sync.Map{}

	for _, model := range models {
		sch, err := schema.Parse(model, cache, db.NamingStrategy)
		if err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}

		actual, err := database.GetTableColumns(db, sch.Table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", sch.Table, err))
			report.Tables[sch.Table] = TableReport{MissingColumns: []string{}, Status: "error"}
			report.Matched = false
			continue
		}

		present := make(map[string]bool, len(actual))
		for _, col := range actual {
			present[col.Field] = true
		}

		tbl := TableReport{MissingColumns: []string{}, Status: "ok"}
		if len(actual) == 0 {
			tbl.Status = "missing"
			report.Matched = false
		}
		for _, name := range sch.DBNames {
			if !present[name] {
				tbl.MissingColumns = append(tbl.MissingColumns, name)
			}
		}
		if len(tbl.MissingColumns) > 0 {
			sort.Strings(tbl.MissingColumns)
			if tbl.Status == "ok" {
				tbl.Status = "error"
			}
			report.Matched = false
		}
		report.Tables[sch.Table] = tbl
	}

	return report, nil
}
