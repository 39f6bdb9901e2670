// Package ddl renders CREATE TABLE statements for the Parquet staging table.
//
// Identifiers are always quoted so result-set column names such as
// "Sample Condition" are kept verbatim. Identifier comparison in the target
// engine is case-insensitive, so names that differ only by case are rejected.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Each column renders as
//
//	"<Name>" <SQLType> [NOT NULL]
//
// and the statement has the form
//
//	CREATE TABLE "<Name>" (
//	  <col1-def>,
//	  <col2-def>
//	);
func BuildCreateTableSQL(t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	seen := make(map[string]string, len(t.Columns))
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		fold := strings.ToLower(c.Name)
		if prev, dup := seen[fold]; dup {
			return "", fmt.Errorf("ddl: columns %q and %q collide (names are case-insensitive)", prev, c.Name)
		}
		seen[fold] = c.Name

		typ := strings.TrimSpace(c.SQLType)
		if err := ValidateColumnType(typ); err != nil {
			return "", fmt.Errorf("ddl: column %s: %w", c.Name, err)
		}

		def := QuoteIdentifier(c.Name) + " " + typ
		if c.NotNull {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", QuoteIdentifier(name), strings.Join(cols, ",\n  ")), nil
}
