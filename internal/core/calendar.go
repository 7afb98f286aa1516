package core

import (
	"fmt"
	"time"
)

// Span is the fixed range of months materialized in the snapshot table,
// decided once at database creation. StartYear is the epoch: its January is
// month index 1.
type Span struct {
	StartYear int
	Years     int
}

// Months returns M, the number of materialized calendar months.
func (s Span) Months() int {
	return s.Years * 12
}

// TerminalIndex returns the reserved index of the all-time row, M+1.
func (s Span) TerminalIndex() int {
	return s.Months() + 1
}

// EndYear returns the last calendar year inside the span.
func (s Span) EndYear() int {
	return s.StartYear + s.Years - 1
}

func (s Span) Validate() error {
	if s.StartYear < 1 {
		return fmt.Errorf("invalid start year %d", s.StartYear)
	}
	if s.Years < 1 {
		return fmt.Errorf("invalid span of %d years", s.Years)
	}
	return nil
}

// MonthIndex maps a date to its snapshot row index in [1, Months()].
// Dates outside the span are rejected; the cascade never partially applies.
func (s Span) MonthIndex(d Date) (int, error) {
	idx := (d.Year()-s.StartYear)*12 + d.Month()
	if idx < 1 || idx > s.Months() {
		return 0, &OutOfRangeError{Date: d.Time, StartYear: s.StartYear, EndYear: s.EndYear()}
	}
	return idx, nil
}

// IndexOf maps an explicit year and month to a snapshot row index.
func (s Span) IndexOf(year int, month time.Month) (int, error) {
	return s.MonthIndex(NewDate(year, int(month), 1))
}

// YearMonth is the inverse of IndexOf for indexes in [1, Months()].
func (s Span) YearMonth(index int) (int, time.Month, error) {
	if index < 1 || index > s.Months() {
		return 0, 0, fmt.Errorf("month index %d outside [1, %d]", index, s.Months())
	}
	return s.StartYear + (index-1)/12, time.Month((index-1)%12 + 1), nil
}
