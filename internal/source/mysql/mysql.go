// Package mysql registers a MySQL/MariaDB backend (go-sql-driver/mysql) with
// the source registry.
package mysql

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"trialinv/internal/source"
)

func init() {
	source.Register("mysql", source.Backend{
		DriverName: "mysql",
		DSN:        DSN,
		Code:       code,
	}, "mariadb")
}

// DSN renders a go-sql-driver DSN. parseTime is always on so DATE/DATETIME
// columns scan as time.Time.
func DSN(cfg source.Config) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("mysql: host must not be empty")
	}
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = cfg.Host
	if cfg.Port > 0 {
		c.Addr = cfg.Addr()
	}
	c.DBName = cfg.Database
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.ParseTime = true
	return c.FormatDSN(), nil
}

// code extracts the server error number.
func code(err error) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return "mysql " + strconv.Itoa(int(me.Number))
	}
	return ""
}
