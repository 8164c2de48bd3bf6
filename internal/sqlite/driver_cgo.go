//go:build cgo_sqlite

package sqlite

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName = "sqlite3"
	driverType = "cgo"
)

// dsn appends the mattn connection-string syntax for foreign-key enforcement.
func dsn(path string) string {
	return path + "?_foreign_keys=on"
}
