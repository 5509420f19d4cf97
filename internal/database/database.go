package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/migrations"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // goqu sqlite3 dialect
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// timeLayout is the storage format of every DATETIME column. It is fixed
// width and always UTC, so string comparison in SQL is chronological.
const timeLayout = "2006-01-02 15:04:05.000000000"

// driverName is go-sqlite3 with Go scalar functions registered on every
// connection. SQLite's own LOWER only folds ASCII.
const driverName = "sqlite3_shareit"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("go_lower", strings.ToLower, true)
		},
	})
}

type DB struct {
	*sqlx.DB
	path    string
	dialect goqu.DialectWrapper
	logger  *zerolog.Logger
}

var _ domain.Repository = (*DB)(nil)

// NewDB opens (or creates) the SQLite database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.Open(driverName, path+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases alive.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:      conn,
		path:    path,
		dialect: goqu.Dialect("sqlite3"),
		logger:  logger,
	}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB.DB, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		db.logger.Debug().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("migration applied")
	}
	return nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

func dbTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// wrapErr maps driver errors onto domain errors.
func wrapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %s: %s", domain.ErrConflict, what, uniqueColumn(se.Error()))
	}
	return fmt.Errorf("failed to %s: %w", what, err)
}

// uniqueColumn extracts "table.column" from a sqlite unique constraint message.
func uniqueColumn(msg string) string {
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func checkAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return nil
}

// sqlxIn expands slice arguments of query into placeholder lists.
func sqlxIn(query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to expand query: %w", err)
	}
	return q, a, nil
}
