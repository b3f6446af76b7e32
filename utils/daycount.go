package utils

import (
	"fmt"
	"strings"
	"time"
)

// Day count conventions understood by YearFraction.
const (
	ActActISDA = "ACT/ACT ISDA"
	Act360     = "ACT/360"
	Act365F    = "ACT/365F"
	Thirty360E = "30E/360"
)

// ParseDayCount normalises user input ("actual/actual (isda)", "act/365f", ...)
// onto one of the supported convention names.
func ParseDayCount(s string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("ACTUAL", "ACT", "(", "", ")", "", "_", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")
	switch key {
	case "ACT/ACT ISDA", "ACT/ACT", "ACTACT":
		return ActActISDA, nil
	case "ACT/360":
		return Act360, nil
	case "ACT/365F", "ACT/365 FIXED", "ACT/365":
		return Act365F, nil
	case "30E/360", "30/360":
		return Thirty360E, nil
	default:
		return "", fmt.Errorf("unsupported day count %q", s)
	}
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/ACT ISDA, ACT/360, ACT/365F, 30E/360, 30/360
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case ActActISDA:
		return actActISDA(start, end)
	case Act360:
		days := end.Sub(start).Hours() / 24
		return days / 360.0
	case Act365F:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	case Thirty360E, "30/360":
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	}
}

// actActISDA splits the period at each 1 January and divides the days falling
// in each calendar year by that year's length.
//
//	yf = days_in_y1 / basis(y1) + (y2 - y1 - 1) + days_in_y2 / basis(y2)
func actActISDA(start, end time.Time) float64 {
	if start.Equal(end) {
		return 0
	}
	if end.Before(start) {
		return -actActISDA(end, start)
	}
	y1, y2 := start.Year(), end.Year()
	if y1 == y2 {
		return Days(start, end) / yearBasis(y1)
	}
	nextJan := time.Date(y1+1, time.January, 1, 0, 0, 0, 0, start.Location())
	lastJan := time.Date(y2, time.January, 1, 0, 0, 0, 0, end.Location())
	return Days(start, nextJan)/yearBasis(y1) + float64(y2-y1-1) + Days(lastJan, end)/yearBasis(y2)
}

func yearBasis(year int) float64 {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// IsLeapYear reports whether year has 366 days in the Gregorian calendar.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
