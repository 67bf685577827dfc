// Package sqlite opens the embedded SQLite store used for single-node
// deployments and tests.
package sqlite

import (
	"context"
	"database/sql/driver"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
)

func init() {
	// The built-in lower() only folds ASCII letters; searches compare
	// LOWER(column) with a pattern lowercased in Go.
	if err := msqlite.RegisterDeterministicScalarFunction("lower", 1, lower); err != nil {
		panic(err)
	}
}

func lower(ctx *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

//go:embed schema.sql
var schemaSQL string

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"

// Open opens the SQLite database file at path and applies the schema.
func Open(path string) (*sqlx.DB, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&" + pragmas
	} else {
		dsn += "?" + pragmas
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers, so transactions never race for the write lock.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}
	return db, nil
}
