// Command tally is the non-interactive front door to the ledger: it adds
// and deletes transactions, reads point-in-time balances and verifies the
// snapshot table against the transaction log.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tally/internal/cli"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
)

const usage = `Usage: tally <command> [flags]

Commands:
  add       -date YYYY-MM-DD -details TEXT -method DESCRIPTOR -amount N.NN -kind Income|Expense|Transfer
  delete    -id N
  balance   [-month YYYY-MM]   (all-time when -month is omitted)
  changes   -id N
  list      -month YYYY-MM
  methods
  register  -name NAME
  verify
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	repo := cli.InitStore(logger, cfg)
	defer repo.Close()
	svc := services.NewLedgerService(repo)
	ctx := context.Background()

	var err error
	switch cmd := os.Args[1]; cmd {
	case "add":
		err = runAdd(ctx, svc, os.Args[2:])
	case "delete":
		err = runDelete(ctx, svc, os.Args[2:])
	case "balance":
		err = runBalance(ctx, svc, os.Args[2:])
	case "changes":
		err = runChanges(ctx, svc, os.Args[2:])
	case "list":
		err = runList(ctx, svc, os.Args[2:])
	case "methods":
		err = runMethods(ctx, svc)
	case "register":
		err = runRegister(ctx, svc, os.Args[2:])
	case "verify":
		err = svc.VerifyConsistency(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", applog.FieldOperation, os.Args[1], applog.FieldError, err)
		fmt.Fprintln(os.Stderr, "tally:", err)
		os.Exit(1)
	}
}

func runAdd(ctx context.Context, svc *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	date := fs.String("date", "", "transaction date, YYYY-MM-DD")
	details := fs.String("details", "", "free-text details")
	method := fs.String("method", "", "method name, or \"A to B\" for transfers")
	amount := fs.String("amount", "", "positive amount with up to two decimals")
	kind := fs.String("kind", "", "Income, Expense or Transfer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := svc.Add(ctx, *date, *details, *method, *amount, *kind)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runDelete(ctx context.Context, svc *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return svc.Delete(ctx, *id)
}

func runBalance(ctx context.Context, svc *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	month := fs.String("month", "", "calendar month, YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		view core.BalanceView
		err  error
	)
	if *month == "" {
		view, err = svc.AllTimeBalance(ctx)
	} else {
		var t time.Time
		if t, err = time.Parse("2006-01", *month); err != nil {
			return core.NewValidationError("month", core.ErrInvalidDate)
		}
		view, err = svc.BalanceFor(ctx, t.Year(), t.Month())
	}
	if err != nil {
		return err
	}
	printView(view)
	return nil
}

func runChanges(ctx context.Context, svc *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("changes", flag.ExitOnError)
	id := fs.Int64("id", 0, "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	view, err := svc.ChangesFor(ctx, *id)
	if err != nil {
		return err
	}
	printView(view)
	return nil
}

func runList(ctx context.Context, svc *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	month := fs.String("month", "", "calendar month, YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := time.Parse("2006-01", *month)
	if err != nil {
		return core.NewValidationError("month", core.ErrInvalidDate)
	}
	idx, err := svc.Span().IndexOf(t.Year(), t.Month())
	if err != nil {
		return err
	}
	txs, err := svc.ListByMonth(ctx, idx)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Details, tx.MethodDescriptor, tx.Amount, tx.Kind)
	}
	return nil
}

func runMethods(ctx context.Context, svc *services.LedgerService) error {
	methods, err := svc.Methods(ctx)
	if err != nil {
		return err
	}
	for _, m := range methods {
		fmt.Println(m.Name)
	}
	return nil
}

func runRegister(ctx context.Context, svc *services.LedgerService, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "new method name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return svc.Register(ctx, *name)
}

func printView(view core.BalanceView) {
	for _, b := range view.Balances {
		fmt.Printf("%s\t%s\n", b.Method, b.Balance)
	}
}
