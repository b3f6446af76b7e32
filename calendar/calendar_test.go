package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTargetHolidays(t *testing.T) {
	t.Parallel()

	holidays := []time.Time{
		date(2023, time.January, 1),
		date(2023, time.April, 7),  // Good Friday
		date(2023, time.April, 10), // Easter Monday
		date(2023, time.May, 1),
		date(2023, time.December, 25),
		date(2023, time.December, 26),
		date(2024, time.March, 29),
		date(2024, time.April, 1),
		date(2025, time.April, 18),
		date(2025, time.April, 21),
		date(2001, time.December, 31),
	}
	for _, h := range holidays {
		if IsBusinessDay(TARGET, h) {
			t.Fatalf("%s should be a TARGET holiday", h.Format("2006-01-02"))
		}
	}

	workdays := []time.Time{
		date(2023, time.May, 25),
		date(2026, time.May, 25), // Whit Monday is open on TARGET
		date(2023, time.December, 27),
		date(1999, time.May, 3),
	}
	for _, d := range workdays {
		if !IsBusinessDay(TARGET, d) {
			t.Fatalf("%s should be a TARGET business day", d.Format("2006-01-02"))
		}
	}
}

func TestWeekendsCalendarIgnoresHolidays(t *testing.T) {
	t.Parallel()

	if !IsBusinessDay(WEEKENDS, date(2023, time.December, 25)) {
		t.Fatal("WEEKENDS calendar should not observe Christmas")
	}
	if IsBusinessDay(WEEKENDS, date(2023, time.May, 27)) {
		t.Fatal("Saturday must not be a business day")
	}
}

func TestAdjustConventions(t *testing.T) {
	t.Parallel()

	// Saturday 30 Sep 2023: following rolls into October, modified following stays in September.
	sat := date(2023, time.September, 30)
	if got := AdjustFollowing(TARGET, sat); !got.Equal(date(2023, time.October, 2)) {
		t.Fatalf("following: got %s", got.Format("2006-01-02"))
	}
	if got := Adjust(TARGET, sat); !got.Equal(date(2023, time.September, 29)) {
		t.Fatalf("modified following: got %s", got.Format("2006-01-02"))
	}
	if got := AdjustWith(TARGET, sat, Preceding); !got.Equal(date(2023, time.September, 29)) {
		t.Fatalf("preceding: got %s", got.Format("2006-01-02"))
	}
	if got := AdjustWith(TARGET, sat, Unadjusted); !got.Equal(sat) {
		t.Fatalf("unadjusted: got %s", got.Format("2006-01-02"))
	}
	// Christmas Day 2023 is a Monday, Boxing Day closed too.
	if got := AdjustFollowing(TARGET, date(2023, time.December, 25)); !got.Equal(date(2023, time.December, 27)) {
		t.Fatalf("following over Christmas: got %s", got.Format("2006-01-02"))
	}
}

func TestAdvanceDays(t *testing.T) {
	t.Parallel()

	anchor := date(2023, time.May, 25)
	cases := []struct {
		days int
		want time.Time
	}{
		{365, date(2024, time.May, 24)},
		{730, date(2025, time.May, 26)},  // Saturday -> Monday
		{1095, date(2026, time.May, 25)}, // Sunday -> Monday
		{1825, date(2028, time.May, 23)},
	}
	for _, tc := range cases {
		if got := AdvanceDays(TARGET, anchor, tc.days, Following); !got.Equal(tc.want) {
			t.Fatalf("AdvanceDays(%d): got %s want %s", tc.days, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	// Thursday before Easter 2023: +1 skips Good Friday, the weekend and Easter Monday.
	got := AddBusinessDays(TARGET, date(2023, time.April, 6), 1)
	if !got.Equal(date(2023, time.April, 11)) {
		t.Fatalf("got %s", got.Format("2006-01-02"))
	}
	back := AddBusinessDays(TARGET, got, -1)
	if !back.Equal(date(2023, time.April, 6)) {
		t.Fatalf("got %s", back.Format("2006-01-02"))
	}
}

func TestAddYearsLeapDay(t *testing.T) {
	t.Parallel()

	got := AddYears(WEEKENDS, date(2024, time.February, 29), 1, Unadjusted)
	if !got.Equal(date(2025, time.February, 28)) {
		t.Fatalf("got %s", got.Format("2006-01-02"))
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	if c, err := Parse(" target "); err != nil || c != TARGET {
		t.Fatalf("Parse target: %v %v", c, err)
	}
	if _, err := Parse("XETRA"); err == nil {
		t.Fatal("expected error for unknown calendar")
	}
}
