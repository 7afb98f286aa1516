package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"159.00", 15900, true},
		{"159.19", 15919, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.cents {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.cents, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{15900, "159.00"},
		{-15900, "-159.00"},
		{1, "0.01"},
		{-1, "-0.01"},
		{0, "0.00"},
		{15919, "159.19"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.cents); got != tc.want {
			t.Fatalf("%d expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}
