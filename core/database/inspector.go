package database

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string
	Extra   string
}

// GetTableColumns retrieves the column definitions for a given table.
// Field and Type are lowercased.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo

	switch db.Dialector.Name() {
	case DriverSQLite:
		type sqliteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string `gorm:"column:dflt_value"`
			Pk         int
		}
		var sqliteCols []sqliteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, eris.Wrapf(err, "database: failed to get columns for table %s", tableName)
		}
		for _, col := range sqliteCols {
			columns = append(columns, ColumnInfo{
				Field:   col.Name,
				Type:    col.Type,
				Default: col.DefaultVal,
			})
		}

	case DriverPostgres:
		type pgColumn struct {
			ColumnName    string
			DataType      string
			IsNullable    string
			ColumnDefault *string
		}
		var pgCols []pgColumn
		err := db.Raw(`SELECT column_name, data_type, is_nullable, column_default
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position`, tableName).Scan(&pgCols).Error
		if err != nil {
			return nil, eris.Wrapf(err, "database: failed to get columns for table %s", tableName)
		}
		for _, col := range pgCols {
			columns = append(columns, ColumnInfo{
				Field:   col.ColumnName,
				Type:    col.DataType,
				Null:    col.IsNullable,
				Default: col.ColumnDefault,
			})
		}

	default:
		// MySQL reports a missing table as an error.
		if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error; err != nil {
			return nil, eris.Wrapf(err, "database: failed to get columns for table %s", tableName)
		}
	}

	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// MissingColumns reports which of the required columns are absent from tableName.
func MissingColumns(db *gorm.DB, tableName string, required []string) ([]string, error) {
	columns, err := GetTableColumns(db, tableName)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col.Field] = true
	}

	var missing []string
	for _, name := range required {
		if !present[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
