// Package all wires all built-in source backends into the source registry.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register themselves
// with the source package. Importing it makes these kinds available:
//
//   - "sqlserver" (trialinv/internal/source/mssql), also ODBC SQL Server names
//   - "postgres"  (trialinv/internal/source/postgres)
//   - "mysql"     (trialinv/internal/source/mysql)
//   - "sqlite"    (trialinv/internal/source/sqlite)
package all

import (
	_ "trialinv/internal/source/mssql"
	_ "trialinv/internal/source/mysql"
	_ "trialinv/internal/source/postgres"
	_ "trialinv/internal/source/sqlite"
)
