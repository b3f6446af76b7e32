// Package curve provides discount curves for bond valuation.
package curve

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/meenmo/bondval/utils"
)

var (
	// ErrInvalidRate is returned when a rate cannot be compounded (1+r <= 0).
	ErrInvalidRate = errors.New("invalid rate")
)

// DiscountCurve provides discount factors and zero rates for valuation.
type DiscountCurve interface {
	DF(t time.Time) float64
	ZeroRateAt(t time.Time) float64
	ReferenceDate() time.Time
}

// Compounding selects how a flat rate turns into a discount factor.
type Compounding string

const (
	// Annual: DF = (1+r)^-t
	Annual Compounding = "ANNUAL"
	// Continuous: DF = exp(-r t)
	Continuous Compounding = "CONTINUOUS"
	// Simple: DF = 1 / (1 + r t)
	Simple Compounding = "SIMPLE"
)

// ParseCompounding maps configuration strings onto a Compounding.
func ParseCompounding(s string) (Compounding, error) {
	switch Compounding(strings.ToUpper(strings.TrimSpace(s))) {
	case Annual, "COMPOUNDED":
		return Annual, nil
	case Continuous:
		return Continuous, nil
	case Simple:
		return Simple, nil
	default:
		return "", fmt.Errorf("unknown compounding %q", s)
	}
}

// FlatForward is a curve implied by one constant rate at every maturity.
//
// Time is measured from the reference date with the curve's day count.
type FlatForward struct {
	reference   time.Time
	rate        float64
	dayCount    string
	compounding Compounding
}

// NewFlatForward builds a flat curve anchored at reference.
func NewFlatForward(reference time.Time, rate float64, dayCount string, compounding Compounding) (*FlatForward, error) {
	if reference.IsZero() {
		return nil, fmt.Errorf("NewFlatForward: reference date is required")
	}
	if compounding == "" {
		compounding = Annual
	}
	if compounding == Annual && rate <= -1 {
		return nil, fmt.Errorf("NewFlatForward: rate %g: %w", rate, ErrInvalidRate)
	}
	return &FlatForward{
		reference:   reference,
		rate:        rate,
		dayCount:    dayCount,
		compounding: compounding,
	}, nil
}

// ReferenceDate is the date at which DF == 1.
func (c *FlatForward) ReferenceDate() time.Time { return c.reference }

// Rate returns the flat rate as a decimal.
func (c *FlatForward) Rate() float64 { return c.rate }

// TimeFromReference is the curve time (in years) of t.
func (c *FlatForward) TimeFromReference(t time.Time) float64 {
	return utils.YearFraction(c.reference, t, c.dayCount)
}

// DF returns the discount factor for date t.
func (c *FlatForward) DF(t time.Time) float64 {
	return c.discount(c.TimeFromReference(t))
}

func (c *FlatForward) discount(tau float64) float64 {
	switch c.compounding {
	case Continuous:
		return math.Exp(-c.rate * tau)
	case Simple:
		return 1.0 / (1.0 + c.rate*tau)
	default:
		return math.Pow(1.0+c.rate, -tau)
	}
}

// ZeroRateAt returns the continuously-compounded zero rate (in percent) to t,
// matching the swap curves' convention.
func (c *FlatForward) ZeroRateAt(t time.Time) float64 {
	tau := c.TimeFromReference(t)
	if tau <= 0 {
		return c.instantaneousPct()
	}
	return -math.Log(c.discount(tau)) / tau * 100.0
}

func (c *FlatForward) instantaneousPct() float64 {
	switch c.compounding {
	case Annual:
		return math.Log1p(c.rate) * 100.0
	default:
		return c.rate * 100.0
	}
}
