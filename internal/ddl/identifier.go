package ddl

import (
	"fmt"
	"regexp"
	"strings"
)

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps value in single quotes, doubling embedded quotes.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

var columnType = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\(\d+(,\s*\d+)?\))?$`)

// ValidateColumnType rejects type strings that are not a plain type name with
// optional precision, so a type can never smuggle SQL into a statement.
func ValidateColumnType(typ string) error {
	if typ == "" {
		return fmt.Errorf("ddl: empty column type")
	}
	if len(typ) > 64 || !columnType.MatchString(typ) {
		return fmt.Errorf("ddl: invalid column type %q", typ)
	}
	return nil
}
