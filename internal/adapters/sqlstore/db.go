// Package sqlstore persists sessions, accounts and the referral ledger in a
// SQL database. SQLite (modernc.org/sqlite) is the default; PostgreSQL is
// supported through lib/pq.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aretw0/seee/internal/logging"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	//go:embed schema/sqlite.sql
	sqliteSchema string
	//go:embed schema/postgres.sql
	postgresSchema string
)

// ErrUnsupportedDriver is returned by Open for unknown driver names.
var ErrUnsupportedDriver = errors.New("unsupported sql driver")

// DB is the shared handle behind the SessionStore, Ledger and AccountStore
// adapters.
type DB struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the DB.
type Option func(*DB)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DB) {
		d.logger = logger
	}
}

// WithClock overrides the time source for row timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *DB) {
		d.now = now
	}
}

// SQLiteDSN turns a file path into a DSN with the pragmas the ledger relies
// on. Transactions take the write lock up front so concurrent payments
// serialize instead of failing with SQLITE_BUSY.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Open connects to driver at dsn and applies the embedded schema.
// A bare SQLite path is expanded with SQLiteDSN.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*DB, error) {
	switch driver {
	case DriverSQLite:
		if !strings.HasPrefix(dsn, "file:") {
			dsn = SQLiteDSN(dsn)
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; more connections only add SQLITE_BUSY churn.
		db.SetMaxOpenConns(1)
	}

	d := New(db, opts...)
	if err := d.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// New wraps an existing handle. The schema is not applied.
func New(db *sqlx.DB, opts ...Option) *DB {
	d := &DB{
		db:     db,
		driver: db.DriverName(),
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Migrate applies the idempotent schema for the current driver.
func (d *DB) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if d.driver == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	d.logger.Debug("sql schema applied", "driver", d.driver)
	return nil
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Sessions returns the ports.SessionStore view of the database.
func (d *DB) Sessions() *SessionStore {
	return &SessionStore{d: d}
}

// Ledger returns the ports.Ledger view of the database.
func (d *DB) Ledger() *Ledger {
	return &Ledger{d: d}
}

// Accounts returns the ports.AccountStore view of the database.
func (d *DB) Accounts() *AccountStore {
	return &AccountStore{d: d}
}

func (d *DB) forUpdate() string {
	if d.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// isUniqueViolation recognises constraint errors of both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
