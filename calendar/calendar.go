package calendar

import (
	"fmt"
	"strings"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// TARGET is the Eurosystem settlement calendar.
	TARGET CalendarID = "TARGET"
	// WEEKENDS treats every Monday-Friday as a business day.
	WEEKENDS CalendarID = "WEEKENDS"
)

// Parse maps a configuration string onto a known calendar.
func Parse(s string) (CalendarID, error) {
	switch CalendarID(strings.ToUpper(strings.TrimSpace(s))) {
	case TARGET:
		return TARGET, nil
	case WEEKENDS, "WEEKENDS_ONLY", "NULL":
		return WEEKENDS, nil
	default:
		return "", fmt.Errorf("calendar: unknown calendar %q", s)
	}
}

// BusinessDayConvention decides how a date falling on a holiday is rolled.
type BusinessDayConvention string

const (
	Unadjusted        BusinessDayConvention = "UNADJUSTED"
	Following         BusinessDayConvention = "FOLLOWING"
	ModifiedFollowing BusinessDayConvention = "MODIFIED_FOLLOWING"
	Preceding         BusinessDayConvention = "PRECEDING"
)

func isHoliday(cal CalendarID, t time.Time) bool {
	switch cal {
	case TARGET:
		return isTargetHoliday(t)
	default:
		return false
	}
}

// isTargetHoliday applies the TARGET2 closing days: New Year, Good Friday,
// Easter Monday, Labour Day, Christmas and the day after. Good Friday, Easter
// Monday and Labour Day only apply from 2000; 31 Dec closed in 1998, 1999, 2001.
func isTargetHoliday(t time.Time) bool {
	y, m, d := t.Date()
	yd := t.YearDay()
	em := easterMonday(y)

	switch {
	case m == time.January && d == 1:
		return true
	case y >= 2000 && (yd == em-3 || yd == em):
		return true
	case y >= 2000 && m == time.May && d == 1:
		return true
	case m == time.December && (d == 25 || d == 26):
		return true
	case m == time.December && d == 31 && (y == 1998 || y == 1999 || y == 2001):
		return true
	}
	return false
}

// easterMonday returns the day of year of Easter Monday (Gregorian computus).
func easterMonday(year int) int {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	easter := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return easter.YearDay() + 1
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AdjustPreceding rolls back to the previous business day.
func AdjustPreceding(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AdjustWith dispatches on conv. An empty convention means Unadjusted.
func AdjustWith(cal CalendarID, t time.Time, conv BusinessDayConvention) time.Time {
	switch conv {
	case Following:
		return AdjustFollowing(cal, t)
	case ModifiedFollowing:
		return Adjust(cal, t)
	case Preceding:
		return AdjustPreceding(cal, t)
	default:
		return t
	}
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// AdvanceDays moves n calendar days and rolls the result with conv.
func AdvanceDays(cal CalendarID, t time.Time, n int, conv BusinessDayConvention) time.Time {
	return AdjustWith(cal, t.AddDate(0, 0, n), conv)
}

// AddYears adds calendar years and rolls the result with conv. A 29 Feb
// start lands on 28 Feb in non-leap years.
func AddYears(cal CalendarID, t time.Time, years int, conv BusinessDayConvention) time.Time {
	target := t.AddDate(years, 0, 0)
	if target.Day() != t.Day() {
		target = time.Date(target.Year(), target.Month(), 0, 0, 0, 0, 0, time.UTC)
	}
	return AdjustWith(cal, target, conv)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	// Move to first day of next month
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal CalendarID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}

// IsLastCalendarDay reports whether t is the last calendar day of its month.
func IsLastCalendarDay(t time.Time) bool {
	return t.Day() == daysInMonth(t.Year(), t.Month())
}
