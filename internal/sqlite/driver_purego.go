//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"
	driverType = "purego"
)

// dsn appends the modernc pragma syntax for foreign-key enforcement.
func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)"
}
