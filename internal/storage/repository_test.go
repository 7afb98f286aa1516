package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tally/internal/core"
)

var testSpan = core.Span{StartYear: 2022, Years: 4}

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally.db")
	repo, err := NewSQLiteRepository(path, testSpan, []string{"Cash", "Bank"})
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestCreateSeedsZeroedSnapshots(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	methods, err := repo.ListMethods(ctx)
	if err != nil {
		t.Fatalf("list methods: %v", err)
	}
	if len(methods) != 2 || methods[0].Name != "Cash" || methods[1].Name != "Bank" {
		t.Fatalf("unexpected methods %+v", methods)
	}

	for _, m := range methods {
		column, err := repo.SnapshotColumn(ctx, m.Name)
		if err != nil {
			t.Fatalf("snapshot column %s: %v", m.Name, err)
		}
		if len(column) != testSpan.TerminalIndex() {
			t.Fatalf("method %s expected %d snapshot rows, got %d",
				m.Name, testSpan.TerminalIndex(), len(column))
		}
		for month, balance := range column {
			if balance != 0 {
				t.Fatalf("method %s month %d seeded non-zero: %d", m.Name, month, balance)
			}
		}
	}
}

func TestReopenKeepsState(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		Date:             core.NewDate(2022, 7, 19),
		Details:          "persisted",
		MethodDescriptor: "Cash",
		Amount:           core.Money{Cents: 15900},
		Kind:             core.Expense,
	}
	id, err := repo.AddTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteRepository(path, testSpan, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Details != "persisted" {
		t.Fatalf("unexpected transaction %+v", got)
	}

	all, err := reopened.AllTimeBalance(ctx)
	if err != nil {
		t.Fatalf("all-time balance: %v", err)
	}
	if all.Balance("Cash").Cents != -15900 {
		t.Fatalf("expected Cash -15900 after reopen, got %d", all.Balance("Cash").Cents)
	}
}

func TestReopenRejectsDifferentSpan(t *testing.T) {
	repo, path := newTestRepo(t)
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := NewSQLiteRepository(path, core.Span{StartYear: 2022, Years: 10}, nil); err == nil {
		t.Fatalf("expected error for conflicting span")
	}
	if _, err := NewSQLiteRepository(path, core.Span{StartYear: 2020, Years: 4}, nil); err == nil {
		t.Fatalf("expected error for conflicting epoch")
	}
}

func TestDeleteRemovesChangeRows(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		Date:             core.NewDate(2022, 7, 19),
		MethodDescriptor: "Cash to Bank",
		Amount:           core.Money{Cents: 15900},
		Kind:             core.Transfer,
	}
	id, err := repo.AddTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	txs, deltas, err := repo.LogDeltas(ctx, "Cash")
	if err != nil {
		t.Fatalf("log deltas: %v", err)
	}
	if len(txs) != 1 || deltas[0] != -15900 {
		t.Fatalf("expected one -15900 delta for Cash, got %v", deltas)
	}

	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	txs, _, err = repo.LogDeltas(ctx, "Cash")
	if err != nil {
		t.Fatalf("log deltas after delete: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("change rows survived the cascade delete: %d", len(txs))
	}
}

func TestAddTransactionOutOfRange(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		Date:             core.NewDate(2021, 12, 31),
		MethodDescriptor: "Cash",
		Amount:           core.Money{Cents: 100},
		Kind:             core.Income,
	}
	_, err := repo.AddTransaction(ctx, tx)
	var oor *core.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		Date:             core.NewDate(2022, 7, 19),
		MethodDescriptor: "Cash",
		Amount:           core.Money{Cents: 100},
		Kind:             core.Income,
	}
	id1, err := repo.AddTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, id1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	id2, err := repo.AddTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("id %d reused after deleting %d", id2, id1)
	}
}

func TestBalanceAsOfRejectsBadIndex(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, idx := range []int{0, -1, testSpan.TerminalIndex() + 1} {
		if _, err := repo.BalanceAsOf(ctx, idx); err == nil {
			t.Fatalf("index %d: expected error", idx)
		}
	}
}
