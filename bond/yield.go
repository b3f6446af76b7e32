package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/bondval/utils"
)

// YieldInput holds the parameters needed to back out a yield from a price.
type YieldInput struct {
	Bond *FixedRate
	// CleanPrice is in currency units, the same scale as Valuation.CleanPrice.
	CleanPrice     float64
	SettlementDate time.Time
	// DayCount measures time to each cash flow; defaults to the bond's own.
	DayCount string
}

// YieldResult is the output of ComputeYield.
type YieldResult struct {
	// Yield is the annually compounded yield as a decimal (e.g. 0.05).
	Yield      float64
	DirtyPrice float64
	Iterations int
}

// ComputeYield solves for the annually compounded y such that
//
//	Σ CF_k / (1+y)^t_k == clean + accrued
//
// with t_k the year fraction from settlement to each remaining payment.
//
// The solver uses Newton-Raphson with analytic first derivative.
func ComputeYield(in YieldInput) (YieldResult, error) {
	if in.Bond == nil {
		return YieldResult{}, fmt.Errorf("ComputeYield: Bond is required")
	}
	if in.SettlementDate.IsZero() {
		return YieldResult{}, fmt.Errorf("ComputeYield: SettlementDate is required")
	}
	dc := in.DayCount
	if dc == "" {
		dc = in.Bond.DayCount()
	}

	times := make([]float64, 0, len(in.Bond.cashflows))
	amounts := make([]float64, 0, len(in.Bond.cashflows))
	for _, cf := range in.Bond.cashflows {
		if !cf.Date.After(in.SettlementDate) {
			continue
		}
		times = append(times, utils.YearFraction(in.SettlementDate, cf.Date, dc))
		amounts = append(amounts, cf.Amount())
	}
	if len(times) == 0 {
		return YieldResult{}, fmt.Errorf("ComputeYield: no cash flows after %s", utils.FormatDate(in.SettlementDate))
	}

	dirty := in.CleanPrice + in.Bond.AccruedAmount(in.SettlementDate)
	if dirty <= 0 {
		return YieldResult{}, fmt.Errorf("ComputeYield: dirty price must be positive, got %g", dirty)
	}

	guess := in.Bond.spec.Coupons[0]
	y, iterations, err := solveYield(dirty, guess, times, amounts)
	if err != nil {
		return YieldResult{}, err
	}
	return YieldResult{Yield: y, DirtyPrice: dirty, Iterations: iterations}, nil
}

// ---------------------------------------------------------------------------
// Newton-Raphson solver (unexported)
// ---------------------------------------------------------------------------

const (
	yieldTolerance = 1e-10
	yieldMaxIter   = 100
	yieldFloor     = -0.95
	yieldCeiling   = 2.0
)

// solveYield finds y such that price(y) == target via Newton-Raphson.
func solveYield(target, guess float64, times, amounts []float64) (float64, int, error) {
	y := clamp(guess, yieldFloor, yieldCeiling)

	for iter := 0; iter < yieldMaxIter; iter++ {
		price, dPdy := priceAndDeriv(y, times, amounts)
		f := price - target

		if math.Abs(f) < yieldTolerance*math.Max(1, target) {
			return y, iter + 1, nil
		}
		if math.Abs(dPdy) < 1e-15 {
			return y, iter + 1, fmt.Errorf("ComputeYield: derivative too small at iter %d", iter)
		}

		y = clamp(y-f/dPdy, yieldFloor, yieldCeiling)
	}

	return y, yieldMaxIter, fmt.Errorf("ComputeYield: did not converge after %d iterations", yieldMaxIter)
}

// priceAndDeriv returns (price, dPrice/dy).
//
//	price = Σ CF_k / (1+y)^t_k
//	dP/dy = Σ −t_k · CF_k / (1+y)^(t_k+1)
func priceAndDeriv(y float64, times, amounts []float64) (float64, float64) {
	var price, deriv float64
	for i, t := range times {
		price += amounts[i] / math.Pow(1.0+y, t)
		deriv += -t * amounts[i] / math.Pow(1.0+y, t+1)
	}
	return price, deriv
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
