// Package storage persists the ledger in a single embedded SQLite database:
// the transaction log, the per-transaction change log and the materialized
// monthly snapshot table. All mutations run inside one database transaction
// so a failure mid-cascade leaves the previous state intact.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

const (
	configStartYear = "start_year"
	configYears     = "years"
)

// SQLiteRepository is the single writer for all ledger tables. Only its
// methods touch the snapshot table, and only through the insert/delete
// cascade procedures.
type SQLiteRepository struct {
	db   *sql.DB
	span core.Span
}

// NewSQLiteRepository opens (creating and seeding if missing) the ledger
// database. The span and initial methods apply only on first creation; an
// existing database keeps its stored span, and a conflicting configured span
// is rejected since extending the range is a schema migration.
func NewSQLiteRepository(dbPath string, span core.Span, initialMethods []string) (*SQLiteRepository, error) {
	if err := span.Validate(); err != nil {
		return nil, fmt.Errorf("invalid span: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single local writer; one connection sidesteps SQLITE_BUSY races.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db, span: span}
	if err := repo.initialize(context.Background(), initialMethods); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Span returns the month range materialized in the snapshot table.
func (r *SQLiteRepository) Span() core.Span {
	return r.span
}

// initialize seeds the span parameters, initial methods and zeroed snapshot
// rows on first open, and validates the stored span on every later open.
func (r *SQLiteRepository) initialize(ctx context.Context, initialMethods []string) error {
	stored, err := r.storedSpan(ctx)
	if err != nil {
		return err
	}
	if stored != nil {
		if *stored != r.span {
			return fmt.Errorf("database spans %d years from %d but %d years from %d were configured; extending the range is a schema migration",
				stored.Years, stored.StartYear, r.span.Years, r.span.StartYear)
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: "begin seed", Err: err}
	}
	defer tx.Rollback()

	for key, value := range map[string]int{
		configStartYear: r.span.StartYear,
		configYears:     r.span.Years,
	} {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ledger_config (key, value) VALUES (?, ?)",
			key, strconv.Itoa(value)); err != nil {
			return &core.StorageError{Op: "store span", Err: err}
		}
	}

	for i, name := range initialMethods {
		if err := registerMethodTx(ctx, tx, name, i, r.span); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: "commit seed", Err: err}
	}

	slog.InfoContext(ctx, "Ledger database created",
		"start_year", r.span.StartYear,
		"years", r.span.Years,
		"methods", len(initialMethods))
	return nil
}

func (r *SQLiteRepository) storedSpan(ctx context.Context) (*core.Span, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM ledger_config")
	if err != nil {
		return nil, &core.StorageError{Op: "read span", Err: err}
	}
	defer rows.Close()

	values := map[string]int{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, &core.StorageError{Op: "scan span", Err: err}
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt ledger_config value %q for %s: %w", raw, key, err)
		}
		values[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "read span", Err: err}
	}
	if len(values) == 0 {
		return nil, nil
	}
	return &core.Span{StartYear: values[configStartYear], Years: values[configYears]}, nil
}

// ListMethods returns every registered method in registration order.
func (r *SQLiteRepository) ListMethods(ctx context.Context) ([]core.Method, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, position FROM methods ORDER BY position")
	if err != nil {
		return nil, &core.StorageError{Op: "list methods", Err: err}
	}
	defer rows.Close()

	var methods []core.Method
	for rows.Next() {
		var m core.Method
		if err := rows.Scan(&m.ID, &m.Name, &m.Position); err != nil {
			return nil, &core.StorageError{Op: "scan method", Err: err}
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list methods", Err: err}
	}
	return methods, nil
}

// RegisterMethod appends a method and extends every snapshot row with a zero
// balance for it, in one unit of work. Methods cannot be removed.
func (r *SQLiteRepository) RegisterMethod(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: "begin register", Err: err}
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM methods").Scan(&count); err != nil {
		return &core.StorageError{Op: "count methods", Err: err}
	}
	if err := registerMethodTx(ctx, tx, name, count, r.span); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: "commit register", Err: err}
	}

	slog.InfoContext(ctx, "Method registered", "method", name, "position", count)
	return nil
}

func registerMethodTx(ctx context.Context, tx *sql.Tx, name string, position int, span core.Span) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO methods (name, position) VALUES (?, ?)", name, position)
	if err != nil {
		if isUniqueViolation(err) {
			return core.NewValidationError("method", core.ErrDuplicateMethod)
		}
		return &core.StorageError{Op: "insert method", Err: err}
	}
	methodID, err := res.LastInsertId()
	if err != nil {
		return &core.StorageError{Op: "method id", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO snapshots (month_index, method_id, balance_cents) VALUES (?, ?, 0)")
	if err != nil {
		return &core.StorageError{Op: "prepare snapshot seed", Err: err}
	}
	defer stmt.Close()

	for month := 1; month <= span.TerminalIndex(); month++ {
		if _, err := stmt.ExecContext(ctx, month, methodID); err != nil {
			return &core.StorageError{Op: "seed snapshot row", Err: err}
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text;
	// the driver does not export a typed constraint error.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// methodIDsTx resolves method names to ids inside an open transaction.
func methodIDsTx(ctx context.Context, tx *sql.Tx, names []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(names))
	for _, name := range names {
		var id int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM methods WHERE name = ?", name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewValidationError("method", core.ErrUnknownMethod)
		}
		if err != nil {
			return nil, &core.StorageError{Op: "resolve method", Err: err}
		}
		ids[name] = id
	}
	return ids, nil
}
