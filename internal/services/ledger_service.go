// Package services orchestrates ledger operations: input validation in
// front, the storage cascade behind, structured logging around both.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

// LedgerService is the write/read front door over the snapshot engine.
// Mutations validate fully before any storage work so a rejected input
// never reaches a unit of work.
type LedgerService struct {
	storage *storage.SQLiteRepository
}

func NewLedgerService(storage *storage.SQLiteRepository) *LedgerService {
	return &LedgerService{storage: storage}
}

// Span returns the configured month range.
func (s *LedgerService) Span() core.Span {
	return s.storage.Span()
}

// Add validates and records one transaction, returning its assigned id.
func (s *LedgerService) Add(ctx context.Context, date, details, methodDescriptor, amount, kind string) (int64, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return 0, core.NewValidationError("date", err)
	}

	m, err := core.ParseAmount(amount)
	if err != nil {
		return 0, core.NewValidationError("amount", err)
	}

	k := core.Kind(strings.TrimSpace(kind))
	if err := k.Validate(); err != nil {
		return 0, core.NewValidationError("kind", err)
	}

	t := core.Transaction{
		Date:             d,
		Details:          strings.TrimSpace(details),
		MethodDescriptor: strings.TrimSpace(methodDescriptor),
		Amount:           m,
		Kind:             k,
	}

	names, err := t.Methods()
	if err != nil {
		return 0, core.NewValidationError("method", err)
	}
	if err := s.checkRegistered(ctx, names); err != nil {
		return 0, err
	}

	id, err := s.storage.AddTransaction(ctx, t)
	if err != nil {
		slog.ErrorContext(ctx, "Add transaction failed",
			"method", t.MethodDescriptor, "kind", kind, "error", err)
		return 0, err
	}
	return id, nil
}

// Delete removes a transaction by id, reversing its snapshot cascade.
// A second delete of the same id fails with NotFoundError and leaves the
// snapshot table untouched.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Delete transaction failed", "id", id, "error", err)
		return err
	}
	return nil
}

// Get returns one transaction by id.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// ListByMonth returns the transactions dated inside one snapshot month.
func (s *LedgerService) ListByMonth(ctx context.Context, monthIndex int) ([]core.Transaction, error) {
	return s.storage.ListByMonth(ctx, monthIndex)
}

// BalanceAsOf returns every method's balance as of the end of one month.
func (s *LedgerService) BalanceAsOf(ctx context.Context, monthIndex int) (core.BalanceView, error) {
	return s.storage.BalanceAsOf(ctx, monthIndex)
}

// BalanceFor resolves a calendar year+month to its snapshot row.
func (s *LedgerService) BalanceFor(ctx context.Context, year int, month time.Month) (core.BalanceView, error) {
	idx, err := s.storage.Span().IndexOf(year, month)
	if err != nil {
		return core.BalanceView{}, err
	}
	return s.storage.BalanceAsOf(ctx, idx)
}

// AllTimeBalance returns the terminal row.
func (s *LedgerService) AllTimeBalance(ctx context.Context) (core.BalanceView, error) {
	return s.storage.AllTimeBalance(ctx)
}

// ChangesFor returns the per-method deltas one transaction applied; all
// zeros for an unknown id.
func (s *LedgerService) ChangesFor(ctx context.Context, id int64) (core.BalanceView, error) {
	return s.storage.ChangesFor(ctx, id)
}

// Methods returns the registry in registration order.
func (s *LedgerService) Methods(ctx context.Context) ([]core.Method, error) {
	return s.storage.ListMethods(ctx)
}

// Register appends a new method and zero-extends the snapshot table for it.
func (s *LedgerService) Register(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.NewValidationError("method", core.ErrEmptyMethodName)
	}
	// A name containing the transfer separator could never be referenced
	// from a transfer descriptor unambiguously.
	if strings.Contains(name, " to ") {
		return core.NewValidationError("method", fmt.Errorf("method name %q may not contain %q", name, " to "))
	}
	return s.storage.RegisterMethod(ctx, name)
}

func (s *LedgerService) checkRegistered(ctx context.Context, names []string) error {
	methods, err := s.storage.ListMethods(ctx)
	if err != nil {
		return err
	}
	registered := make(map[string]bool, len(methods))
	for _, m := range methods {
		registered[m.Name] = true
	}
	for _, name := range names {
		if !registered[name] {
			return core.NewValidationError("method", core.ErrUnknownMethod)
		}
	}
	return nil
}
