package core

import (
	"errors"
	"testing"
	"time"
)

func TestSpanMonthIndex(t *testing.T) {
	span := Span{StartYear: 2022, Years: 4}
	if got := span.Months(); got != 48 {
		t.Fatalf("expected 48 months, got %d", got)
	}
	if got := span.TerminalIndex(); got != 49 {
		t.Fatalf("expected terminal index 49, got %d", got)
	}

	cases := []struct {
		date Date
		idx  int
		ok   bool
	}{
		{NewDate(2022, 1, 1), 1, true},
		{NewDate(2022, 7, 19), 7, true},
		{NewDate(2022, 12, 31), 12, true},
		{NewDate(2023, 1, 1), 13, true},
		{NewDate(2025, 12, 31), 48, true},
		{NewDate(2021, 12, 31), 0, false},
		{NewDate(2026, 1, 1), 0, false},
	}
	for _, tc := range cases {
		idx, err := span.MonthIndex(tc.date)
		if tc.ok {
			if err != nil || idx != tc.idx {
				t.Fatalf("%v expected %d, got %d (err=%v)", tc.date, tc.idx, idx, err)
			}
		} else {
			var oor *OutOfRangeError
			if !errors.As(err, &oor) {
				t.Fatalf("%v expected OutOfRangeError, got %v", tc.date, err)
			}
		}
	}
}

func TestSpanYearMonthRoundTrip(t *testing.T) {
	span := Span{StartYear: 2022, Years: 4}
	for idx := 1; idx <= span.Months(); idx++ {
		year, month, err := span.YearMonth(idx)
		if err != nil {
			t.Fatalf("index %d: %v", idx, err)
		}
		back, err := span.IndexOf(year, month)
		if err != nil || back != idx {
			t.Fatalf("index %d round-tripped to %d (err=%v)", idx, back, err)
		}
	}
	if _, _, err := span.YearMonth(0); err == nil {
		t.Fatalf("expected error for index 0")
	}
	if _, _, err := span.YearMonth(span.TerminalIndex()); err == nil {
		t.Fatalf("expected error for terminal index")
	}
	if _, err := span.IndexOf(2021, time.December); err == nil {
		t.Fatalf("expected error before epoch")
	}
}
