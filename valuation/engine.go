// Package valuation prices fixed-rate bond records.
//
// Every bond is discounted on a flat curve built from its own coupon rate.
// The output is therefore a near-par check, not a market price. Do not swap in
// a shared market curve without changing what the tool reports.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/bondval/bond"
	"github.com/meenmo/bondval/calendar"
	"github.com/meenmo/bondval/curve"
	"github.com/meenmo/bondval/logging"
	"github.com/meenmo/bondval/metrics"
	"github.com/meenmo/bondval/records"
	"github.com/meenmo/bondval/schedule"
	"github.com/meenmo/bondval/utils"
)

var (
	ErrInvalidTerm = errors.New("term must be a positive number of years")
	ErrInvalidFace = errors.New("face value must be positive")
	ErrInvalidRate = errors.New("coupon rate must be greater than -100%")
)

// ValuationError reports a bond that could not be priced.
type ValuationError struct {
	Index  int
	Name   string
	Line   int
	Reason string
	Err    error
}

func (e *ValuationError) Error() string {
	return fmt.Sprintf("bond %d (%s, line %d): %s: %v", e.Index, e.Name, e.Line, e.Reason, e.Err)
}

func (e *ValuationError) Unwrap() error { return e.Err }

// Result is the valuation of records[Index]. Money amounts are in currency
// units on the bond's face; QuotedClean is per 100 of face.
type Result struct {
	Index         int
	Name          string
	CleanPrice    float64
	QuotedClean   float64
	DirtyPrice    float64
	AccruedAmount float64
	NPV           float64
	// Yield is the annually compounded yield implied by CleanPrice.
	Yield        float64
	IssueDate    time.Time
	MaturityDate time.Time
	Cashflows    []bond.Cashflow
	Err          error
}

// OK reports whether the bond was priced.
func (r Result) OK() bool { return r.Err == nil }

// Engine values bond records one at a time, or with bounded parallelism.
type Engine struct {
	anchor       time.Time
	cal          calendar.CalendarID
	dayCount     string
	maturityRule MaturityRule
	compounding  curve.Compounding
	policy       ErrorPolicy
	workers      int

	log     logrus.FieldLogger
	metrics metrics.Recorder
}

// NewEngine builds an Engine. Defaults: 25 May 2023 on TARGET, ACT/ACT ISDA,
// termYears*365 days, annual compounding.
func NewEngine(opts ...Option) (*Engine, error) {
	e := defaults()
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.maturityRule, err = ParseMaturityRule(string(e.maturityRule)); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	if e.compounding, err = curve.ParseCompounding(string(e.compounding)); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	if e.cal, err = calendar.Parse(string(e.cal)); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	if e.dayCount, err = utils.ParseDayCount(e.dayCount); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	switch e.policy {
	case ErrorPolicyAbort, ErrorPolicyIsolate:
	default:
		return nil, fmt.Errorf("NewEngine: unknown error policy %q", e.policy)
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	if e.metrics == nil {
		e.metrics = (*metrics.Manager)(nil)
	}
	return e, nil
}

// AnchorDate is the configured anchor rolled Following on the calendar.
func (e *Engine) AnchorDate() time.Time {
	return calendar.AdjustFollowing(e.cal, e.anchor)
}

// MaturityDate derives the maturity for termYears from the adjusted anchor.
func (e *Engine) MaturityDate(termYears int) time.Time {
	anchor := e.AnchorDate()
	switch e.maturityRule {
	case MaturityCalendarYears:
		return calendar.AddYears(e.cal, anchor, termYears, calendar.Following)
	case MaturityBusinessDays:
		return calendar.AddBusinessDays(e.cal, anchor, termYears*365)
	default:
		return calendar.AdvanceDays(e.cal, anchor, termYears*365, calendar.Following)
	}
}

// Value prices recs. The returned slice always has len(recs) entries and
// results[i] belongs to recs[i]. Under ErrorPolicyAbort the *ValuationError
// of the lowest failing index is returned; sequentially, later entries are
// left unpriced.
func (e *Engine) Value(ctx context.Context, recs []records.BondRecord) ([]Result, error) {
	results := make([]Result, len(recs))
	for i, rec := range recs {
		results[i] = Result{Index: i, Name: rec.Name}
	}

	if e.workers <= 1 || len(recs) < 2 {
		for i, rec := range recs {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results[i] = e.ValueOne(i, rec)
			if results[i].Err != nil && e.policy == ErrorPolicyAbort {
				return results, results[i].Err
			}
		}
		return results, nil
	}

	// Bond failures do not cancel the group, so the abort error below is
	// always the lowest failing index whatever the scheduling.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.ValueOne(i, rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if e.policy == ErrorPolicyAbort {
		for i := range results {
			if results[i].Err != nil {
				return results, results[i].Err
			}
		}
	}
	return results, nil
}

// ValueOne prices a single record. Errors are reported on Result.Err as a
// *ValuationError.
func (e *Engine) ValueOne(index int, rec records.BondRecord) Result {
	start := time.Now()
	res := Result{Index: index, Name: rec.Name}

	fail := func(reason string, err error) Result {
		res.Err = &ValuationError{Index: index, Name: rec.Name, Line: rec.Line, Reason: reason, Err: err}
		e.metrics.ValuationFailed(reason)
		e.log.WithFields(logrus.Fields{"bond": rec.Name, "index": index, "reason": reason}).Warn(err.Error())
		return res
	}

	face := rec.FaceFloat()
	switch {
	case rec.TermYears <= 0:
		return fail("invalid_term", fmt.Errorf("%w: got %d", ErrInvalidTerm, rec.TermYears))
	case !rec.FaceValue.IsPositive():
		return fail("invalid_face", fmt.Errorf("%w: got %s", ErrInvalidFace, rec.FaceValue.String()))
	case rec.CouponRate <= -1:
		return fail("invalid_rate", fmt.Errorf("%w: got %g", ErrInvalidRate, rec.CouponRate))
	}

	anchor := e.AnchorDate()
	maturity := e.MaturityDate(rec.TermYears)

	disc, err := curve.NewFlatForward(anchor, rec.CouponRate, e.dayCount, e.compounding)
	if err != nil {
		return fail("curve", err)
	}

	sched, err := schedule.Generate(anchor, maturity, schedule.Annual(e.cal))
	if err != nil {
		return fail("schedule", err)
	}

	b, err := bond.NewFixedRate(bond.FixedRateSpec{
		SettlementDays:    0,
		FaceAmount:        face,
		Schedule:          sched,
		Coupons:           []float64{rec.CouponRate},
		DayCount:          e.dayCount,
		PaymentConvention: calendar.ModifiedFollowing,
		Redemption:        100,
		IssueDate:         anchor,
	})
	if err != nil {
		return fail("bond", err)
	}

	v, err := bond.NewDiscountingEngine(disc).Price(b, anchor)
	if err != nil {
		return fail("pricing", err)
	}

	res.CleanPrice = v.CleanPrice
	res.QuotedClean = v.QuotedClean(face)
	res.DirtyPrice = v.DirtyPrice
	res.AccruedAmount = v.AccruedAmount
	res.NPV = v.NPV
	res.IssueDate = anchor
	res.MaturityDate = b.MaturityDate()
	res.Cashflows = b.Cashflows()

	if y, err := bond.ComputeYield(bond.YieldInput{Bond: b, CleanPrice: v.CleanPrice, SettlementDate: v.SettlementDate}); err == nil {
		res.Yield = y.Yield
	} else {
		e.log.WithField("bond", rec.Name).Debugf("yield not solved: %v", err)
	}

	e.metrics.BondPriced(time.Since(start))
	e.log.WithFields(logrus.Fields{
		"bond":     rec.Name,
		"index":    index,
		"maturity": utils.FormatDate(res.MaturityDate),
		"clean":    res.CleanPrice,
	}).Debug("bond priced")
	return res
}
