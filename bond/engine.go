package bond

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/bondval/curve"
)

// ErrNilCurve is returned when the engine has no discount curve.
var ErrNilCurve = errors.New("nil curve")

// DiscountingEngine prices bonds by discounting every future cash flow on a
// single curve.
type DiscountingEngine struct {
	Curve curve.DiscountCurve
}

// NewDiscountingEngine binds an engine to disc.
func NewDiscountingEngine(disc curve.DiscountCurve) *DiscountingEngine {
	return &DiscountingEngine{Curve: disc}
}

// Price values b as of evaluation.
//
//	NPV   = Σ CF_i · DF(t_i)      for t_i > settlement
//	dirty = NPV / DF(settlement)
//	clean = dirty − accrued(settlement)
func (e *DiscountingEngine) Price(b *FixedRate, evaluation time.Time) (Valuation, error) {
	if e == nil || e.Curve == nil {
		return Valuation{}, fmt.Errorf("Price: %w", ErrNilCurve)
	}
	if b == nil {
		return Valuation{}, fmt.Errorf("Price: bond is required")
	}

	settlement := b.SettlementDate(evaluation)
	if settlement.Before(e.Curve.ReferenceDate()) {
		return Valuation{}, fmt.Errorf("Price: settlement %s before curve reference %s",
			settlement.Format("2006-01-02"), e.Curve.ReferenceDate().Format("2006-01-02"))
	}

	npv := 0.0
	for _, cf := range b.cashflows {
		if !cf.Date.After(settlement) {
			continue
		}
		npv += cf.Amount() * e.Curve.DF(cf.Date)
	}

	dfSettle := e.Curve.DF(settlement)
	if dfSettle == 0 {
		return Valuation{}, fmt.Errorf("Price: zero discount factor at settlement")
	}
	dirty := npv / dfSettle
	accrued := b.AccruedAmount(settlement)

	return Valuation{
		SettlementDate: settlement,
		NPV:            npv,
		DirtyPrice:     dirty,
		CleanPrice:     dirty - accrued,
		AccruedAmount:  accrued,
	}, nil
}
