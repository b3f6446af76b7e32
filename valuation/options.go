package valuation

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/bondval/calendar"
	"github.com/meenmo/bondval/curve"
	"github.com/meenmo/bondval/metrics"
	"github.com/meenmo/bondval/utils"
)

// DefaultAnchorDate is the valuation and issue date used when none is configured.
var DefaultAnchorDate = time.Date(2023, time.May, 25, 0, 0, 0, 0, time.UTC)

// MaturityRule selects how termYears becomes a maturity date.
type MaturityRule string

const (
	// MaturityDays365 adds termYears*365 calendar days, then rolls Following.
	MaturityDays365 MaturityRule = "days365"
	// MaturityCalendarYears adds termYears calendar years, then rolls Following.
	MaturityCalendarYears MaturityRule = "calendar_years"
	// MaturityBusinessDays counts termYears*365 business days on the calendar.
	MaturityBusinessDays MaturityRule = "business_days"
)

// ParseMaturityRule maps a configuration string onto a MaturityRule.
func ParseMaturityRule(s string) (MaturityRule, error) {
	switch r := MaturityRule(strings.ToLower(strings.TrimSpace(s))); r {
	case MaturityDays365, MaturityCalendarYears, MaturityBusinessDays:
		return r, nil
	case "":
		return MaturityDays365, nil
	default:
		return "", fmt.Errorf("unknown maturity rule %q", s)
	}
}

// ErrorPolicy decides whether one bad bond stops the run.
type ErrorPolicy string

const (
	// ErrorPolicyAbort makes Value return the first ValuationError.
	ErrorPolicyAbort ErrorPolicy = "abort"
	// ErrorPolicyIsolate keeps going; failures stay on their Result.
	ErrorPolicyIsolate ErrorPolicy = "isolate"
)

// Option configures an Engine.
type Option func(*Engine)

// WithAnchorDate sets the valuation/issue date before calendar adjustment.
func WithAnchorDate(t time.Time) Option {
	return func(e *Engine) {
		if !t.IsZero() {
			e.anchor = t
		}
	}
}

// WithCalendar sets the business-day calendar.
func WithCalendar(cal calendar.CalendarID) Option {
	return func(e *Engine) {
		if cal != "" {
			e.cal = cal
		}
	}
}

// WithDayCount sets the convention for accrual and curve time.
func WithDayCount(dc string) Option {
	return func(e *Engine) {
		if dc != "" {
			e.dayCount = dc
		}
	}
}

// WithMaturityRule sets how maturity dates are derived.
func WithMaturityRule(r MaturityRule) Option {
	return func(e *Engine) {
		if r != "" {
			e.maturityRule = r
		}
	}
}

// WithCompounding sets the flat curve's compounding.
func WithCompounding(c curve.Compounding) Option {
	return func(e *Engine) {
		if c != "" {
			e.compounding = c
		}
	}
}

// WithErrorPolicy sets abort or isolate behaviour.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(e *Engine) {
		if p != "" {
			e.policy = p
		}
	}
}

// WithWorkers bounds the number of bonds valued concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func defaults() *Engine {
	return &Engine{
		anchor:       DefaultAnchorDate,
		cal:          calendar.TARGET,
		dayCount:     utils.ActActISDA,
		maturityRule: MaturityDays365,
		compounding:  curve.Annual,
		policy:       ErrorPolicyAbort,
		workers:      1,
	}
}
