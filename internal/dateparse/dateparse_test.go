package dateparse

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseRangeShapes(t *testing.T) {
	t.Parallel()

	today := day(2025, 8, 1)
	p := New()

	cases := []struct {
		name    string
		in      string
		start   time.Time
		end     time.Time
		openEnd bool
	}{
		{name: "single full date", in: "2025年8月4日", start: day(2025, 8, 4), openEnd: true},
		{name: "single iso date", in: "2025-08-04", start: day(2025, 8, 4), openEnd: true},
		{name: "single slash date", in: "2025/08/04", start: day(2025, 8, 4), openEnd: true},
		{name: "adjacent shorthand", in: "2025年8月2日・3日", start: day(2025, 8, 2), end: day(2025, 8, 3)},
		{name: "list of days", in: "2025年9月1日、2日、3日", start: day(2025, 9, 1), end: day(2025, 9, 3)},
		{name: "separator with inherited month", in: "2025年7月20日〜22日", start: day(2025, 7, 20), end: day(2025, 7, 22)},
		{name: "separator with month day end", in: "2025年7月20日 – 7月22日", start: day(2025, 7, 20), end: day(2025, 7, 22)},
		{name: "separator with weekdays", in: "7/20(土) ～ 7/22(月)", start: day(2025, 7, 20), end: day(2025, 7, 22)},
		{name: "circled weekday glyphs", in: "8/2㈯〜8/3㈰", start: day(2025, 8, 2), end: day(2025, 8, 3)},
		{name: "year crossing range", in: "12/30〜1/2", start: day(2025, 12, 30), end: day(2026, 1, 2)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := p.ParseRange(tc.in, today)
			if err != nil {
				t.Fatalf("ParseRange(%q): %v", tc.in, err)
			}
			if !got.Start.Equal(tc.start) {
				t.Fatalf("start = %v, want %v", got.Start, tc.start)
			}
			if tc.openEnd {
				if got.End != nil {
					t.Fatalf("end = %v, want open end", *got.End)
				}
				return
			}
			if got.End == nil {
				t.Fatalf("end = nil, want %v", tc.end)
			}
			if !got.End.Equal(tc.end) {
				t.Fatalf("end = %v, want %v", *got.End, tc.end)
			}
		})
	}
}

func TestParseRangeYearInference(t *testing.T) {
	t.Parallel()

	today := day(2025, 12, 1)
	p := New()

	cases := []struct {
		in   string
		want time.Time
	}{
		// Late-year listings routinely advertise early-next-year dates.
		{in: "1/15", want: day(2026, 1, 15)},
		{in: "3/1", want: day(2026, 3, 1)},
		// Recent past stays in the current year.
		{in: "11/20", want: day(2025, 11, 20)},
	}
	for _, tc := range cases {
		got, err := p.ParseRange(tc.in, today)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", tc.in, err)
		}
		if !got.Start.Equal(tc.want) {
			t.Fatalf("ParseRange(%q).Start = %v, want %v", tc.in, got.Start, tc.want)
		}
	}

	// Outside the Nov/Dec window a stale date rolls forward instead.
	got, err := p.ParseRange("6/1", day(2025, 8, 29))
	if err != nil {
		t.Fatalf("ParseRange(6/1): %v", err)
	}
	if want := day(2026, 6, 1); !got.Start.Equal(want) {
		t.Fatalf("stale date = %v, want %v", got.Start, want)
	}
}

func TestParseRangeRejectsGarbage(t *testing.T) {
	t.Parallel()

	today := day(2025, 8, 1)
	p := New()

	for _, in := range []string{"", "毎週開催", "2月30日", "9999年1月1日", "（土）"} {
		_, err := p.ParseRange(in, today)
		if err == nil {
			t.Fatalf("ParseRange(%q): expected error", in)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("ParseRange(%q): error type %T, want *ParseError", in, err)
		}
	}
}

func TestParseRangeFutureBound(t *testing.T) {
	t.Parallel()

	today := day(2025, 8, 1)
	if _, err := New().ParseRange("2028年1月1日", today); err == nil {
		t.Fatalf("date beyond the future bound should fail")
	}
	if _, err := NewWithMaxFuture(2000).ParseRange("2028年1月1日", today); err != nil {
		t.Fatalf("widened bound should accept: %v", err)
	}
}

func TestParseRangeStartNeverAfterEnd(t *testing.T) {
	t.Parallel()

	today := day(2025, 8, 1)
	p := New()
	inputs := []string{
		"2025年8月2日・3日",
		"2025年9月1日、2日、3日",
		"12/30〜1/2",
		"2025年7月22日〜20日",
	}
	for _, in := range inputs {
		got, err := p.ParseRange(in, today)
		if err != nil {
			t.Fatalf("ParseRange(%q): %v", in, err)
		}
		if got.End != nil && got.End.Before(got.Start) {
			t.Fatalf("ParseRange(%q): end %v before start %v", in, *got.End, got.Start)
		}
	}
}
