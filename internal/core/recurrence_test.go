package core

import "testing"

func TestRecurrencePeriod(t *testing.T) {
	cases := []struct {
		name     string
		template Date
		freq     Frequency
		today    Date
		target   string
		start    string
		end      string
	}{
		{"monthly same day", NewDate(2025, 1, 15), Monthly, NewDate(2025, 3, 1), "2025-03-15", "2025-03-01", "2025-03-31"},
		{"monthly 31st in 30-day month", NewDate(2025, 1, 31), Monthly, NewDate(2025, 4, 10), "2025-04-30", "2025-04-01", "2025-04-30"},
		{"monthly 31st in leap february", NewDate(2024, 1, 31), Monthly, NewDate(2024, 2, 1), "2024-02-29", "2024-02-01", "2024-02-29"},
		{"monthly 30th in common february", NewDate(2025, 1, 30), Monthly, NewDate(2025, 2, 1), "2025-02-28", "2025-02-01", "2025-02-28"},
		{"unset frequency is monthly", NewDate(2025, 1, 5), "", NewDate(2025, 6, 20), "2025-06-05", "2025-06-01", "2025-06-30"},
		{"yearly", NewDate(2023, 7, 4), Yearly, NewDate(2025, 1, 1), "2025-07-04", "2025-01-01", "2025-12-31"},
		{"yearly leap day in common year", NewDate(2024, 2, 29), Yearly, NewDate(2025, 5, 5), "2025-02-28", "2025-01-01", "2025-12-31"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := RecurrencePeriod(tc.template, tc.freq, tc.today)
			if p.Target.String() != tc.target || p.Start.String() != tc.start || p.End.String() != tc.end {
				t.Fatalf("got target=%s start=%s end=%s", p.Target, p.Start, p.End)
			}
			if !p.Contains(p.Target) {
				t.Fatalf("period must contain its target")
			}
		})
	}
}

func TestDaysIn(t *testing.T) {
	cases := map[[2]int]int{
		{2024, 2}:  29,
		{2025, 2}:  28,
		{2100, 2}:  28,
		{2000, 2}:  29,
		{2025, 4}:  30,
		{2025, 12}: 31,
	}
	for ym, want := range cases {
		if got := DaysIn(ym[0], ym[1]); got != want {
			t.Errorf("DaysIn(%d, %d) = %d, want %d", ym[0], ym[1], got, want)
		}
	}
}
