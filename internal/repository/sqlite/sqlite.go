// Package sqlite implements the domain repositories on SQLite using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/msomdec/mtaabiz/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

var (
	_ domain.Database   = (*DB)(nil)
	_ domain.Transactor = (*DB)(nil)
)

// querier is satisfied by both *sql.DB and *sql.Tx so every repository can
// run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the SQLite connection pool and hands out repositories.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: SQLite serialises writers anyway, and per-connection
	// pragmas below then apply to every statement.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := sqlDB.ExecContext(context.Background(), pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: sqlDB}, nil
}

// Migrate applies pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := migrations.Run(ctx, db.SqlDB); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.SqlDB.Close()
}

func (db *DB) Users() domain.UserRepository         { return &UserRepository{db: db.SqlDB} }
func (db *DB) Profiles() domain.ProfileRepository   { return &ProfileRepository{db: db.SqlDB} }
func (db *DB) Invoices() domain.InvoiceRepository   { return &InvoiceRepository{db: db.SqlDB} }
func (db *DB) Templates() domain.TemplateRepository { return &TemplateRepository{db: db.SqlDB} }
func (db *DB) Tokens() domain.TokenRepository       { return &TokenRepository{db: db.SqlDB} }

// WithinTx runs fn with repositories bound to one transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	tx, err := db.SqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txRepositories{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txRepositories struct {
	tx *sql.Tx
}

func (r txRepositories) Users() domain.UserRepository         { return &UserRepository{db: r.tx} }
func (r txRepositories) Profiles() domain.ProfileRepository   { return &ProfileRepository{db: r.tx} }
func (r txRepositories) Invoices() domain.InvoiceRepository   { return &InvoiceRepository{db: r.tx} }
func (r txRepositories) Templates() domain.TemplateRepository { return &TemplateRepository{db: r.tx} }

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
