package checks

import (
	"fmt"
	"strings"

	"profile-ingest/core/database"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// SchemaReport strictly types the result of a schema integrity check.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema verifies the database schema using the GORM models as the source of
// truth. Columns declared with an explicit type are also type checked.
func CheckSchema(db *gorm.DB, models ...any) (*SchemaReport, error) {
	if db == nil {
		return nil, eris.New("database connection is nil")
	}

	report := &SchemaReport{
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}

	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, eris.Wrapf(err, "checks: parse model %T", model)
		}
		table := stmt.Schema.Table

		actualCols, err := database.GetTableColumns(db, table)
		if err == nil && len(actualCols) == 0 {
			err = eris.New("table does not exist")
		}
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
			report.Matched = false
			continue
		}

		actual := make(map[string]database.ColumnInfo, len(actualCols))
		for _, col := range actualCols {
			actual[col.Field] = col
		}

		tblReport := TableReport{
			MissingColumns: []string{},
			TypeMismatches: []string{},
			Status:         "ok",
		}
		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}

			col, ok := actual[strings.ToLower(field.DBName)]
			if !ok {
				tblReport.MissingColumns = append(tblReport.MissingColumns, field.DBName)
				tblReport.Status = "error"
				report.Matched = false
				continue
			}

			// Soft check: only columns with an explicit type tag.
			expType := strings.ToLower(field.TagSettings["TYPE"])
			if expType != "" && !strings.Contains(col.Type, expType) {
				tblReport.TypeMismatches = append(tblReport.TypeMismatches,
					fmt.Sprintf("%s: expected %s, got %s", field.DBName, expType, col.Type))
				tblReport.Status = "error"
				report.Matched = false
			}
		}

		report.Tables[table] = tblReport
	}

	return report, nil
}
