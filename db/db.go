// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/campusboard/auth"
	"github.com/danielhkuo/campusboard/cliparse"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	ErrNotFound        = errors.New("not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrDuplicateReport = errors.New("report already pending")
)

// Repository holds every query the application runs against the store
type Repository struct {
	dbConn *sqlx.DB
}

func NewRepository(conn *sqlx.DB) *Repository {
	return &Repository{dbConn: conn}
}

// Close terminates the database connection
func (repo *Repository) Close() error {
	if err := repo.dbConn.Close(); err != nil {
		return fmt.Errorf("closing repo: %w", err)
	}
	return nil
}

// Ping verifies the connection is alive
func (repo *Repository) Ping(ctx context.Context) error {
	return repo.dbConn.PingContext(ctx)
}

// Open connects to the configured database and applies all pending
// migrations. SQLite connections are limited to one open connection so
// that in-memory databases and foreign key pragmas stay on a single handle.
func Open(dbType, dsn string) (*sqlx.DB, error) {
	var driver string
	var dialect goose.Dialect
	switch dbType {
	case cliparse.DatabasePostgres:
		driver, dialect = "postgres", goose.DialectPostgres
	case cliparse.DatabaseSQLite:
		driver, dialect = "sqlite", goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	if dbType == cliparse.DatabaseSQLite {
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	if err := Migrate(conn, dialect); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Migrate applies the embedded goose migrations
func Migrate(conn *sqlx.DB, dialect goose.Dialect) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("setting dialect for migrations: %w", err)
	}
	if err := goose.Up(conn.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migration: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint on either supported driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// newID returns a fresh primary key
func newID() (string, error) {
	return auth.GenerateID(16)
}
