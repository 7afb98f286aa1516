package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tally/internal/core"
)

// VerifyConsistency recomputes every method's running balances from the
// change log and diffs them against the snapshot table, one goroutine per
// method. It returns the first mismatch found, nil when the snapshot table
// is exactly consistent with the log.
func (s *LedgerService) VerifyConsistency(ctx context.Context) error {
	methods, err := s.storage.ListMethods(ctx)
	if err != nil {
		return err
	}
	span := s.storage.Span()

	g, ctx := errgroup.WithContext(ctx)
	for _, m := range methods {
		m := m
		g.Go(func() error {
			return s.verifyMethod(ctx, span, m.Name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Snapshot table verified", "methods", len(methods))
	return nil
}

func (s *LedgerService) verifyMethod(ctx context.Context, span core.Span, method string) error {
	txs, deltas, err := s.storage.LogDeltas(ctx, method)
	if err != nil {
		return err
	}

	// Sum the log per month, then accumulate into expected running balances.
	perMonth := make(map[int]int64)
	var total int64
	for i, t := range txs {
		idx, err := span.MonthIndex(t.Date)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", t.ID, err)
		}
		perMonth[idx] += deltas[i]
		total += deltas[i]
	}

	column, err := s.storage.SnapshotColumn(ctx, method)
	if err != nil {
		return err
	}

	var running int64
	for m := 1; m <= span.Months(); m++ {
		running += perMonth[m]
		if column[m] != running {
			return fmt.Errorf("method %s month %d: snapshot %d, log says %d",
				method, m, column[m], running)
		}
	}
	if column[span.TerminalIndex()] != total {
		return fmt.Errorf("method %s all-time row: snapshot %d, log says %d",
			method, column[span.TerminalIndex()], total)
	}
	return nil
}
