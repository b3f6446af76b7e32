package bond

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondval/calendar"
	"github.com/meenmo/bondval/schedule"
	"github.com/meenmo/bondval/utils"
)

var (
	// ErrNoCoupons is returned when a fixed-rate bond is given no coupon rates.
	ErrNoCoupons = errors.New("at least one coupon rate is required")
	// ErrNonPositiveFace is returned for a zero or negative face amount.
	ErrNonPositiveFace = errors.New("face amount must be positive")
)

// FixedRateSpec describes a bullet bond paying fixed coupons on a schedule.
type FixedRateSpec struct {
	SettlementDays int
	FaceAmount     float64
	Schedule       *schedule.Schedule
	// Coupons holds one rate per period; the last rate repeats for the
	// remaining periods (a single rate means a flat coupon).
	Coupons           []float64
	DayCount          string
	PaymentConvention calendar.BusinessDayConvention
	// Redemption is the amount repaid at maturity, in percent of face.
	Redemption float64
	IssueDate  time.Time
}

// FixedRate is a fixed-rate bond with its cash flows materialised.
type FixedRate struct {
	spec      FixedRateSpec
	cashflows []Cashflow
	maturity  time.Time
}

// NewFixedRate validates spec and builds coupon and redemption cash flows.
func NewFixedRate(spec FixedRateSpec) (*FixedRate, error) {
	if spec.Schedule == nil || len(spec.Schedule.Dates) < 2 {
		return nil, fmt.Errorf("NewFixedRate: schedule is required")
	}
	if len(spec.Coupons) == 0 {
		return nil, fmt.Errorf("NewFixedRate: %w", ErrNoCoupons)
	}
	if spec.FaceAmount <= 0 {
		return nil, fmt.Errorf("NewFixedRate: %g: %w", spec.FaceAmount, ErrNonPositiveFace)
	}
	if spec.DayCount == "" {
		spec.DayCount = utils.ActActISDA
	}
	if spec.Redemption == 0 {
		spec.Redemption = 100
	}
	if spec.IssueDate.IsZero() {
		spec.IssueDate = spec.Schedule.Effective()
	}

	b := &FixedRate{spec: spec}
	b.build()
	return b, nil
}

func (b *FixedRate) build() {
	cal := b.spec.Schedule.Calendar()
	periods := b.spec.Schedule.Periods()
	b.cashflows = make([]Cashflow, 0, len(periods)+1)

	for i, p := range periods {
		rate := b.spec.Coupons[len(b.spec.Coupons)-1]
		if i < len(b.spec.Coupons) {
			rate = b.spec.Coupons[i]
		}
		accrual := utils.YearFraction(p.Start, p.End, b.spec.DayCount)
		b.cashflows = append(b.cashflows, Cashflow{
			Date:         calendar.AdjustWith(cal, p.End, b.spec.PaymentConvention),
			Coupon:       b.spec.FaceAmount * rate * accrual,
			AccrualStart: p.Start,
			AccrualEnd:   p.End,
			Rate:         rate,
		})
	}

	b.maturity = calendar.AdjustWith(cal, b.spec.Schedule.Termination(), b.spec.PaymentConvention)
	b.cashflows = append(b.cashflows, Cashflow{
		Date:      b.maturity,
		Principal: b.spec.FaceAmount * b.spec.Redemption / 100.0,
	})
}

// Cashflows returns a copy of the bond's cash flows in payment order.
func (b *FixedRate) Cashflows() []Cashflow {
	out := make([]Cashflow, len(b.cashflows))
	copy(out, b.cashflows)
	return out
}

// FaceAmount returns the notional.
func (b *FixedRate) FaceAmount() float64 { return b.spec.FaceAmount }

// IssueDate returns the issue date.
func (b *FixedRate) IssueDate() time.Time { return b.spec.IssueDate }

// MaturityDate returns the payment date of the redemption.
func (b *FixedRate) MaturityDate() time.Time { return b.maturity }

// DayCount returns the accrual day count convention.
func (b *FixedRate) DayCount() string { return b.spec.DayCount }

// SettlementDate is evaluation plus the bond's settlement lag in business days.
func (b *FixedRate) SettlementDate(evaluation time.Time) time.Time {
	if b.spec.SettlementDays == 0 {
		return evaluation
	}
	return calendar.AddBusinessDays(b.spec.Schedule.Calendar(), evaluation, b.spec.SettlementDays)
}

// AccruedAmount is the coupon accrued from the start of the running period
// up to settlement. Zero before issue and after maturity.
func (b *FixedRate) AccruedAmount(settlement time.Time) float64 {
	if settlement.Before(b.spec.IssueDate) {
		return 0
	}
	for _, cf := range b.cashflows {
		if cf.AccrualStart.IsZero() || !cf.Date.After(settlement) {
			continue
		}
		if settlement.Before(cf.AccrualStart) {
			return 0
		}
		end := settlement
		if end.After(cf.AccrualEnd) {
			end = cf.AccrualEnd
		}
		return b.spec.FaceAmount * cf.Rate * utils.YearFraction(cf.AccrualStart, end, b.spec.DayCount)
	}
	return 0
}
