package database

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sqliteDriverName is go-sqlite3 with lower() replaced by strings.ToLower.
// The built-in lower() folds ASCII only, while search patterns are folded
// in Go, so "ÉLAN" would never match a stored "Élan".
const sqliteDriverName = "sqlite3_librarian"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// OpenSQLite returns a dialector for the sqlite file at path using the
// Unicode-aware lower().
func OpenSQLite(path string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: path})
}
