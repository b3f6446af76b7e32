package bond

import "time"

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in currency units (e.g., EUR), not price-per-100.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64

	// AccrualStart/AccrualEnd bound the coupon period; zero for a bare redemption.
	AccrualStart time.Time
	AccrualEnd   time.Time
	Rate         float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Valuation is the output of DiscountingEngine.Price.
//
// NPV is discounted to the curve reference date; DirtyPrice and CleanPrice are
// forward-valued to the settlement date. All amounts in currency units.
type Valuation struct {
	SettlementDate time.Time
	NPV            float64
	DirtyPrice     float64
	CleanPrice     float64
	AccruedAmount  float64
}

// QuotedClean returns the clean price per 100 of face.
func (v Valuation) QuotedClean(face float64) float64 {
	if face == 0 {
		return 0
	}
	return v.CleanPrice / face * 100.0
}
