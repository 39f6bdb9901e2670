package ddl

// ColumnDef describes a single column of a staging table.
//
// Name is the column name exactly as it appears in the result set; it is
// quoted at render time, so spaces and mixed case survive. SQLType is the
// target engine type (BIGINT, VARCHAR, ...).
type ColumnDef struct {
	Name    string
	SQLType string
	NotNull bool
}

// TableDef holds a table name and its ordered columns.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}
