// Package schedule generates fixed coupon date schedules.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondval/calendar"
	"github.com/meenmo/bondval/utils"
)

// ErrEmptyRange is returned when the termination date is not after the effective date.
var ErrEmptyRange = errors.New("termination date must be after effective date")

// Direction selects which end of the schedule the regular periods are anchored to.
type Direction string

const (
	// Backward rolls from termination towards effective; any stub is at the front.
	Backward Direction = "BACKWARD"
	// Forward rolls from effective towards termination; any stub is at the back.
	Forward Direction = "FORWARD"
)

// Rule captures the schedule conventions.
type Rule struct {
	Calendar              calendar.CalendarID
	TenorMonths           int
	Convention            calendar.BusinessDayConvention
	TerminationConvention calendar.BusinessDayConvention
	Direction             Direction
	EndOfMonth            bool
}

// Annual is the rule used for annual fixed coupons: backward generation,
// Following on both ends, no end-of-month roll.
func Annual(cal calendar.CalendarID) Rule {
	return Rule{
		Calendar:              cal,
		TenorMonths:           12,
		Convention:            calendar.Following,
		TerminationConvention: calendar.Following,
		Direction:             Backward,
	}
}

// Period is one accrual period between two adjacent schedule dates.
type Period struct {
	Start time.Time
	End   time.Time
	// Regular is false for a front or back stub.
	Regular bool
}

// Schedule is an ordered list of adjusted dates, effective date first.
type Schedule struct {
	Dates   []time.Time
	regular []bool
	rule    Rule
}

// Generate builds the adjusted schedule between effective and termination.
func Generate(effective, termination time.Time, rule Rule) (*Schedule, error) {
	if !termination.After(effective) {
		return nil, fmt.Errorf("Generate: %s -> %s: %w", utils.FormatDate(effective), utils.FormatDate(termination), ErrEmptyRange)
	}
	if rule.TenorMonths <= 0 {
		return nil, fmt.Errorf("Generate: unsupported tenor %d months", rule.TenorMonths)
	}

	var unadjusted []time.Time
	var regular []bool
	switch rule.Direction {
	case Forward:
		unadjusted, regular = rollForward(effective, termination, rule)
	default:
		unadjusted, regular = rollBackward(effective, termination, rule)
	}

	dates := make([]time.Time, 0, len(unadjusted))
	flags := make([]bool, 0, len(regular))
	last := len(unadjusted) - 1
	for i, d := range unadjusted {
		conv := rule.Convention
		if i == last {
			conv = rule.TerminationConvention
		}
		adj := calendar.AdjustWith(rule.Calendar, d, conv)
		// Adjustment can collapse two neighbouring dates onto one business day.
		if len(dates) > 0 && !adj.After(dates[len(dates)-1]) {
			if i == last {
				dates[len(dates)-1] = adj
			}
			continue
		}
		dates = append(dates, adj)
		if i > 0 {
			flags = append(flags, regular[i-1])
		}
	}
	if len(dates) < 2 {
		return nil, fmt.Errorf("Generate: adjusted schedule collapsed to a single date: %w", ErrEmptyRange)
	}

	return &Schedule{Dates: dates, regular: flags, rule: rule}, nil
}

// rollBackward computes each date as termination minus k tenors, so month
// lengths never drift.
func rollBackward(effective, termination time.Time, rule Rule) ([]time.Time, []bool) {
	dates := []time.Time{termination}
	flags := []bool{}
	for k := 1; ; k++ {
		d := step(termination, -k*rule.TenorMonths, rule.EndOfMonth)
		if !d.After(effective) {
			// d == effective means the front period is a full tenor.
			flags = append(flags, d.Equal(effective))
			break
		}
		dates = append(dates, d)
		flags = append(flags, true)
	}
	dates = append(dates, effective)

	// reverse into chronological order
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	for i, j := 0, len(flags)-1; i < j; i, j = i+1, j-1 {
		flags[i], flags[j] = flags[j], flags[i]
	}
	return dates, flags
}

func rollForward(effective, termination time.Time, rule Rule) ([]time.Time, []bool) {
	dates := []time.Time{effective}
	flags := []bool{}
	for k := 1; ; k++ {
		d := step(effective, k*rule.TenorMonths, rule.EndOfMonth)
		if !d.Before(termination) {
			flags = append(flags, d.Equal(termination))
			break
		}
		dates = append(dates, d)
		flags = append(flags, true)
	}
	dates = append(dates, termination)
	return dates, flags
}

func step(seed time.Time, months int, eom bool) time.Time {
	d := utils.AddMonth(seed, months)
	if eom && calendar.IsLastCalendarDay(seed) {
		d = time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// Effective returns the first schedule date.
func (s *Schedule) Effective() time.Time { return s.Dates[0] }

// Termination returns the last schedule date.
func (s *Schedule) Termination() time.Time { return s.Dates[len(s.Dates)-1] }

// Calendar returns the calendar the schedule was adjusted with.
func (s *Schedule) Calendar() calendar.CalendarID { return s.rule.Calendar }

// Periods returns consecutive date pairs.
func (s *Schedule) Periods() []Period {
	out := make([]Period, 0, len(s.Dates)-1)
	for i := 1; i < len(s.Dates); i++ {
		out = append(out, Period{
			Start:   s.Dates[i-1],
			End:     s.Dates[i],
			Regular: s.regular[i-1],
		})
	}
	return out
}
