package core

import (
	"strings"
	"time"
)

const (
	Income   Kind = "Income"
	Expense  Kind = "Expense"
	Transfer Kind = "Transfer"
)

// transferSeparator joins the two sides of a transfer descriptor ("Cash to Bank").
const transferSeparator = " to "

type (
	Kind string

	Date struct {
		time.Time
	}

	// Method is a named money pool. Position preserves registration order.
	Method struct {
		ID       int64
		Name     string
		Position int
	}

	// Transaction is one row of the ledger log. IDs are assigned by the
	// store, are monotonic and never reused.
	Transaction struct {
		ID               int64
		Date             Date
		Details          string
		MethodDescriptor string
		Amount           Money
		Kind             Kind
	}

	// Delta is the signed effect of a transaction on a single method.
	Delta struct {
		Method string
		Cents  int64
	}
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month, 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense, Transfer:
		return nil
	}
	return ErrInvalidKind
}

// SplitTransfer splits an "A to B" descriptor into its two methods.
func SplitTransfer(descriptor string) (from, to string, err error) {
	parts := strings.SplitN(descriptor, transferSeparator, 2)
	if len(parts) != 2 {
		return "", "", ErrBadDescriptor
	}
	from = strings.TrimSpace(parts[0])
	to = strings.TrimSpace(parts[1])
	if from == "" || to == "" {
		return "", "", ErrBadDescriptor
	}
	if from == to {
		return "", "", ErrSameTransferSides
	}
	return from, to, nil
}

// TransferDescriptor builds the canonical "A to B" descriptor.
func TransferDescriptor(from, to string) string {
	return from + transferSeparator + to
}

// Methods returns the method names a transaction touches: one for
// Income/Expense, source then destination for Transfer.
func (t Transaction) Methods() ([]string, error) {
	switch t.Kind {
	case Income, Expense:
		name := strings.TrimSpace(t.MethodDescriptor)
		if name == "" {
			return nil, ErrBadDescriptor
		}
		return []string{name}, nil
	case Transfer:
		from, to, err := SplitTransfer(t.MethodDescriptor)
		if err != nil {
			return nil, err
		}
		return []string{from, to}, nil
	}
	return nil, ErrInvalidKind
}

// Deltas computes the signed per-method effect of a transaction. Income adds
// to its method, Expense subtracts, and a Transfer subtracts from the source
// and adds to the destination so an outgoing transfer carries the same sign
// as an expense.
func (t Transaction) Deltas() ([]Delta, error) {
	if err := t.Amount.Validate(); err != nil {
		return nil, err
	}
	methods, err := t.Methods()
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case Income:
		return []Delta{{Method: methods[0], Cents: t.Amount.Cents}}, nil
	case Expense:
		return []Delta{{Method: methods[0], Cents: -t.Amount.Cents}}, nil
	case Transfer:
		return []Delta{
			{Method: methods[0], Cents: -t.Amount.Cents},
			{Method: methods[1], Cents: t.Amount.Cents},
		}, nil
	}
	return nil, ErrInvalidKind
}

// Inverse negates a delta set, used to reverse a propagation on delete.
func Inverse(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		out[i] = Delta{Method: d.Method, Cents: -d.Cents}
	}
	return out
}
