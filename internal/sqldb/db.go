// Package sqldb opens the SQL store (PostgreSQL through pgx, or SQLite) behind
// database/sql and hides the placeholder differences between the two.
package sqldb

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// Dialect names a supported SQL backend
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const (
	sqliteDriver = "sqlite3"

	// Pragmas applied to every SQLite connection. Immediate transactions take
	// the write lock at BEGIN so concurrent upserts queue instead of failing
	// with SQLITE_BUSY on lock upgrade.
	sqliteParams = "_busy_timeout=5000&_txlock=immediate&_foreign_keys=on&_journal_mode=WAL"
)

// Config configures the SQL connection
type Config struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Validate validates the Config
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateEnum("dialect", string(c.Dialect), []string{string(DialectPostgres), string(DialectSQLite)}, vb)
	errors.ValidateRequired("dsn", c.DSN, vb)
	if c.MaxOpenConns < 0 {
		vb.InvalidField("max_open_conns", "must not be negative")
	}
	return vb.Build()
}

// DB is a database/sql handle that knows its dialect
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the configured database and pings it
func Open(ctx context.Context, cfg *Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Dialect {
	case DialectPostgres:
		var connConfig *pgx.ConnConfig
		connConfig, err = pgx.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to parse postgres dsn")
		}
		db = stdlib.OpenDB(*connConfig)
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	case DialectSQLite:
		db, err = sql.Open(sqliteDriver, sqliteDSN(cfg.DSN))
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "failed to open sqlite")
		}
		// A single writer connection; SQLite serializes writes anyway.
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapWithCodef(err, errors.CodeUnavailable, "failed to ping %s", cfg.Dialect)
	}

	slog.DebugContext(ctx, "connected to sql store", "dialect", cfg.Dialect)

	return &DB{db: db, dialect: cfg.Dialect}, nil
}

func sqliteDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteParams
	}
	return dsn + "?" + sqliteParams
}

// Dialect returns the backend dialect
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Close closes the underlying pool
func (d *DB) Close() error {
	return d.db.Close()
}

// Rebind rewrites ? placeholders into the dialect's form
func (d *DB) Rebind(query string) string {
	return rebind(d.dialect, query)
}

func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Querier is satisfied by both DB and Tx
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
}

// Exec runs a statement outside a transaction
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.Rebind(query), args...)
}

// Query runs a query outside a transaction
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.Rebind(query), args...)
}

// QueryRow runs a single-row query outside a transaction
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, d.Rebind(query), args...)
}

// Tx is a transaction that rebinds placeholders for its dialect
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// Exec runs a statement in the transaction
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, rebind(t.dialect, query), args...)
}

// Query runs a query in the transaction
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, rebind(t.dialect, query), args...)
}

// QueryRow runs a single-row query in the transaction
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, rebind(t.dialect, query), args...)
}

// WithTx runs fn in a transaction. It commits when fn returns nil and rolls
// back otherwise, so fn's writes land together or not at all.
func (d *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeInternal, "failed to begin transaction")
	}

	if err := fn(&Tx{tx: sqlTx, dialect: d.dialect}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.WrapWithCode(err, errors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
