package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the postgres driver

	"github.com/tierstack/tierstack/internal/metrics"
)

// DriverName is the database/sql driver used for PostgreSQL.
const DriverName = "postgres"

// TestRow is a row of the probe table.
type TestRow struct {
	ID        int64     `db:"id" json:"id"`
	Message   *string   `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Store is the database access the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	RoundTrip(ctx context.Context, message string) ([]TestRow, error)
}

const (
	createTestTable = `CREATE TABLE IF NOT EXISTS test_data (
	id SERIAL PRIMARY KEY,
	message TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`
	insertTestRow   = `INSERT INTO test_data (message) VALUES ($1)`
	selectTestRows  = `SELECT id, message, created_at FROM test_data ORDER BY created_at DESC, id DESC LIMIT $1`
	recentRowsLimit = 5
)

// DB is the sqlx-backed Store.
type DB struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// NewDB wraps db. m may be nil.
func NewDB(db *sqlx.DB, m *metrics.Metrics) *DB {
	return &DB{db: db, metrics: m}
}

// Open creates a connection pool for secret. Connections are established
// lazily, so a database that is not reachable yet does not fail startup.
func Open(secret DatabaseSecret, sslMode string, m *metrics.Metrics) (*DB, error) {
	dsn, err := secret.DSN(sslMode)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", secret, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return NewDB(db, m), nil
}

// Close closes the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks that the database answers.
func (d *DB) Ping(ctx context.Context) (err error) {
	defer d.observe("ping", time.Now(), &err)
	return d.db.PingContext(ctx)
}

// RoundTrip creates the probe table if needed, inserts message and returns
// the newest rows, in one transaction.
func (d *DB) RoundTrip(ctx context.Context, message string) (rows []TestRow, err error) {
	defer d.observe("round_trip", time.Now(), &err)

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, createTestTable); err != nil {
		return nil, fmt.Errorf("failed to create test_data table: %w", err)
	}
	if _, err = tx.ExecContext(ctx, insertTestRow, message); err != nil {
		return nil, fmt.Errorf("failed to insert test row: %w", err)
	}
	rows = []TestRow{}
	if err = tx.SelectContext(ctx, &rows, selectTestRows, recentRowsLimit); err != nil {
		return nil, fmt.Errorf("failed to read test rows: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return rows, nil
}

func (d *DB) observe(operation string, start time.Time, err *error) {
	if d.metrics != nil {
		d.metrics.ObserveDBProbe(operation, *err, time.Since(start).Seconds())
	}
}
