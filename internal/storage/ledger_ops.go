package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"tally/internal/core"
)

// AddTransaction appends a transaction and propagates its per-method deltas
// forward through every snapshot row from its month to the terminal row, in
// one unit of work. The caller is expected to have validated the input; a
// date outside the span still fails here with OutOfRangeError.
func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	monthIndex, err := r.span.MonthIndex(t.Date)
	if err != nil {
		return 0, err
	}
	deltas, err := t.Deltas()
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &core.StorageError{Op: "begin add", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO transactions (tx_date, details, method_descriptor, amount_cents, kind) VALUES (?, ?, ?, ?, ?)",
		t.Date.String(), t.Details, t.MethodDescriptor, t.Amount.Cents, string(t.Kind))
	if err != nil {
		return 0, &core.StorageError{Op: "insert transaction", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StorageError{Op: "transaction id", Err: err}
	}

	if err := applyDeltasTx(ctx, tx, r.span, id, monthIndex, deltas, true); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, &core.StorageError{Op: "commit add", Err: err}
	}

	slog.InfoContext(ctx, "Transaction added",
		"id", id,
		"kind", string(t.Kind),
		"method", t.MethodDescriptor,
		"amount_cents", t.Amount.Cents,
		"month_index", monthIndex)
	return id, nil
}

// DeleteTransaction removes a transaction, reversing its cascade with the
// exact inverse deltas so every snapshot row returns to its pre-insertion
// value. The change log rows go with it via the foreign-key cascade.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: "begin delete", Err: err}
	}
	defer tx.Rollback()

	t, err := getTransactionTx(ctx, tx, id)
	if err != nil {
		return err
	}

	monthIndex, err := r.span.MonthIndex(t.Date)
	if err != nil {
		return err
	}
	deltas, err := t.Deltas()
	if err != nil {
		return err
	}

	if err := applyDeltasTx(ctx, tx, r.span, id, monthIndex, core.Inverse(deltas), false); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return &core.StorageError{Op: "delete transaction", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: "commit delete", Err: err}
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "month_index", monthIndex)
	return nil
}

// applyDeltasTx runs the cascade: one row-range update per touched method,
// from monthIndex through the terminal row. With record set it also writes
// the change log rows matching exactly what was applied.
func applyDeltasTx(ctx context.Context, tx *sql.Tx, span core.Span, txID int64, monthIndex int, deltas []core.Delta, record bool) error {
	names := make([]string, len(deltas))
	for i, d := range deltas {
		names[i] = d.Method
	}
	ids, err := methodIDsTx(ctx, tx, names)
	if err != nil {
		return err
	}

	expected := int64(span.TerminalIndex() - monthIndex + 1)
	for _, d := range deltas {
		res, err := tx.ExecContext(ctx,
			"UPDATE snapshots SET balance_cents = balance_cents + ? WHERE method_id = ? AND month_index >= ?",
			d.Cents, ids[d.Method], monthIndex)
		if err != nil {
			return &core.StorageError{Op: "cascade update", Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return &core.StorageError{Op: "cascade rows", Err: err}
		}
		if n != expected {
			return &core.StorageError{
				Op:  "cascade update",
				Err: errors.New("snapshot rows missing for method " + d.Method),
			}
		}
	}

	if record {
		for _, d := range deltas {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO changes (tx_id, method_id, delta_cents) VALUES (?, ?, ?)",
				txID, ids[d.Method], d.Cents); err != nil {
				return &core.StorageError{Op: "insert change", Err: err}
			}
		}
	}
	return nil
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, id int64) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT id, tx_date, details, method_descriptor, amount_cents, kind FROM transactions WHERE id = ?", id)
	return scanTransaction(row, id)
}

// GetTransaction returns the transaction with the given id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, tx_date, details, method_descriptor, amount_cents, kind FROM transactions WHERE id = ?", id)
	return scanTransaction(row, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner, id int64) (core.Transaction, error) {
	var (
		t       core.Transaction
		rawDate string
		kind    string
	)
	err := row.Scan(&t.ID, &rawDate, &t.Details, &t.MethodDescriptor, &t.Amount.Cents, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	if err != nil {
		return core.Transaction{}, &core.StorageError{Op: "scan transaction", Err: err}
	}
	t.Kind = core.Kind(kind)
	t.Date, err = core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, &core.StorageError{Op: "parse stored date", Err: err}
	}
	return t, nil
}

// ListByMonth returns the transactions dated inside one snapshot month,
// ordered by date then id.
func (r *SQLiteRepository) ListByMonth(ctx context.Context, monthIndex int) ([]core.Transaction, error) {
	year, month, err := r.span.YearMonth(monthIndex)
	if err != nil {
		return nil, err
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, tx_date, details, method_descriptor, amount_cents, kind FROM transactions WHERE tx_date >= ? AND tx_date < ? ORDER BY tx_date, id",
		first.Format("2006-01-02"), next.Format("2006-01-02"))
	if err != nil {
		return nil, &core.StorageError{Op: "list transactions", Err: err}
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list transactions", Err: err}
	}
	return out, nil
}

// BalanceAsOf reads one snapshot row set: every method's cumulative balance
// as of the end of the given month. O(1) in the number of transactions.
func (r *SQLiteRepository) BalanceAsOf(ctx context.Context, monthIndex int) (core.BalanceView, error) {
	if monthIndex < 1 || monthIndex > r.span.TerminalIndex() {
		return core.BalanceView{}, &core.OutOfRangeError{
			Date:      time.Date(r.span.StartYear, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, monthIndex-1, 0),
			StartYear: r.span.StartYear,
			EndYear:   r.span.EndYear(),
		}
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT m.name, s.balance_cents FROM snapshots s JOIN methods m ON m.id = s.method_id WHERE s.month_index = ? ORDER BY m.position",
		monthIndex)
	if err != nil {
		return core.BalanceView{}, &core.StorageError{Op: "read snapshot", Err: err}
	}
	defer rows.Close()

	view := core.BalanceView{MonthIndex: monthIndex}
	for rows.Next() {
		var b core.MethodBalance
		if err := rows.Scan(&b.Method, &b.Balance.Cents); err != nil {
			return core.BalanceView{}, &core.StorageError{Op: "scan snapshot", Err: err}
		}
		view.Balances = append(view.Balances, b)
	}
	if err := rows.Err(); err != nil {
		return core.BalanceView{}, &core.StorageError{Op: "read snapshot", Err: err}
	}
	return view, nil
}

// AllTimeBalance reads the terminal row, which reflects every transaction
// regardless of month selection.
func (r *SQLiteRepository) AllTimeBalance(ctx context.Context) (core.BalanceView, error) {
	return r.BalanceAsOf(ctx, r.span.TerminalIndex())
}

// ChangesFor returns the signed delta each method received from one
// transaction, zero for untouched methods. An unknown id yields an all-zero
// view rather than an error: it represents "no transaction selected".
func (r *SQLiteRepository) ChangesFor(ctx context.Context, id int64) (core.BalanceView, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT m.name, COALESCE(c.delta_cents, 0) FROM methods m LEFT JOIN changes c ON c.method_id = m.id AND c.tx_id = ? ORDER BY m.position",
		id)
	if err != nil {
		return core.BalanceView{}, &core.StorageError{Op: "read changes", Err: err}
	}
	defer rows.Close()

	var view core.BalanceView
	for rows.Next() {
		var b core.MethodBalance
		if err := rows.Scan(&b.Method, &b.Balance.Cents); err != nil {
			return core.BalanceView{}, &core.StorageError{Op: "scan changes", Err: err}
		}
		view.Balances = append(view.Balances, b)
	}
	if err := rows.Err(); err != nil {
		return core.BalanceView{}, &core.StorageError{Op: "read changes", Err: err}
	}
	return view, nil
}

// LogDeltas returns every (date, delta) pair recorded for one method in the
// change log, in id order. Used by consistency verification to recompute
// running balances independently of the snapshot table.
func (r *SQLiteRepository) LogDeltas(ctx context.Context, method string) ([]core.Transaction, []int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT t.id, t.tx_date, t.details, t.method_descriptor, t.amount_cents, t.kind, c.delta_cents FROM changes c JOIN transactions t ON t.id = c.tx_id JOIN methods m ON m.id = c.method_id WHERE m.name = ? ORDER BY t.id",
		method)
	if err != nil {
		return nil, nil, &core.StorageError{Op: "read log", Err: err}
	}
	defer rows.Close()

	var (
		txs    []core.Transaction
		deltas []int64
	)
	for rows.Next() {
		var (
			t       core.Transaction
			rawDate string
			kind    string
			delta   int64
		)
		if err := rows.Scan(&t.ID, &rawDate, &t.Details, &t.MethodDescriptor, &t.Amount.Cents, &kind, &delta); err != nil {
			return nil, nil, &core.StorageError{Op: "scan log", Err: err}
		}
		t.Kind = core.Kind(kind)
		if t.Date, err = core.ParseDate(rawDate); err != nil {
			return nil, nil, &core.StorageError{Op: "parse stored date", Err: err}
		}
		txs = append(txs, t)
		deltas = append(deltas, delta)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, &core.StorageError{Op: "read log", Err: err}
	}
	return txs, deltas, nil
}

// SnapshotColumn returns one method's balance for every month index from 1
// through the terminal row, indexed by month.
func (r *SQLiteRepository) SnapshotColumn(ctx context.Context, method string) (map[int]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT s.month_index, s.balance_cents FROM snapshots s JOIN methods m ON m.id = s.method_id WHERE m.name = ? ORDER BY s.month_index",
		method)
	if err != nil {
		return nil, &core.StorageError{Op: "read snapshot column", Err: err}
	}
	defer rows.Close()

	out := make(map[int]int64, r.span.TerminalIndex())
	for rows.Next() {
		var (
			month   int
			balance int64
		)
		if err := rows.Scan(&month, &balance); err != nil {
			return nil, &core.StorageError{Op: "scan snapshot column", Err: err}
		}
		out[month] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "read snapshot column", Err: err}
	}
	return out, nil
}
