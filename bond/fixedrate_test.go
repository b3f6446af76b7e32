package bond_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondval/bond"
	"github.com/meenmo/bondval/calendar"
	"github.com/meenmo/bondval/curve"
	"github.com/meenmo/bondval/schedule"
	"github.com/meenmo/bondval/utils"
)

var anchor = time.Date(2023, 5, 25, 0, 0, 0, 0, time.UTC)

func fiveYearBond(t *testing.T, rate float64) *bond.FixedRate {
	t.Helper()

	sched, err := schedule.Generate(anchor, time.Date(2028, 5, 23, 0, 0, 0, 0, time.UTC), schedule.Annual(calendar.TARGET))
	require.NoError(t, err)

	b, err := bond.NewFixedRate(bond.FixedRateSpec{
		FaceAmount:        1000,
		Schedule:          sched,
		Coupons:           []float64{rate},
		DayCount:          utils.ActActISDA,
		PaymentConvention: calendar.ModifiedFollowing,
		Redemption:        100,
		IssueDate:         anchor,
	})
	require.NoError(t, err)
	return b
}

func TestFixedRateCashflows(t *testing.T) {
	t.Parallel()

	b := fiveYearBond(t, 0.05)
	cfs := b.Cashflows()
	require.Len(t, cfs, 6)

	stub := utils.YearFraction(anchor, time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC), utils.ActActISDA)
	assert.InDelta(t, 1000*0.05*stub, cfs[0].Coupon, 1e-9)
	assert.Less(t, cfs[0].Coupon, 50.0)

	last := cfs[len(cfs)-1]
	assert.Equal(t, 1000.0, last.Principal)
	assert.Zero(t, last.Coupon)
	assert.True(t, last.Date.Equal(b.MaturityDate()))
	assert.True(t, b.MaturityDate().Equal(time.Date(2028, 5, 23, 0, 0, 0, 0, time.UTC)))

	for i := 1; i < len(cfs); i++ {
		assert.False(t, cfs[i].Date.Before(cfs[i-1].Date), "cash flows must be in payment order")
	}
}

func TestSelfDiscountedBondPricesNearPar(t *testing.T) {
	t.Parallel()

	b := fiveYearBond(t, 0.05)
	disc, err := curve.NewFlatForward(anchor, 0.05, utils.ActActISDA, curve.Annual)
	require.NoError(t, err)

	v, err := bond.NewDiscountingEngine(disc).Price(b, anchor)
	require.NoError(t, err)

	assert.InDelta(t, 1000.0042467025, v.CleanPrice, 1e-6)
	assert.InDelta(t, 1000.0, v.CleanPrice, 0.01)
	assert.Zero(t, v.AccruedAmount)
	assert.InDelta(t, v.NPV, v.DirtyPrice, 1e-12)
	assert.InDelta(t, 100.0, v.QuotedClean(1000), 0.001)
}

func TestContinuousCurvePricesBelowPar(t *testing.T) {
	t.Parallel()

	b := fiveYearBond(t, 0.05)
	disc, err := curve.NewFlatForward(anchor, 0.05, utils.ActActISDA, curve.Continuous)
	require.NoError(t, err)

	v, err := bond.NewDiscountingEngine(disc).Price(b, anchor)
	require.NoError(t, err)
	assert.InDelta(t, 994.5241239392, v.CleanPrice, 1e-6)
}

func TestAccruedAmountMidPeriod(t *testing.T) {
	t.Parallel()

	b := fiveYearBond(t, 0.05)
	settle := time.Date(2024, 11, 25, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 5, 23, 0, 0, 0, 0, time.UTC)

	want := 1000 * 0.05 * utils.YearFraction(start, settle, utils.ActActISDA)
	assert.InDelta(t, want, b.AccruedAmount(settle), 1e-9)
	assert.Zero(t, b.AccruedAmount(anchor.AddDate(0, 0, -1)))
	assert.Zero(t, b.AccruedAmount(b.MaturityDate()))

	disc, err := curve.NewFlatForward(anchor, 0.05, utils.ActActISDA, curve.Annual)
	require.NoError(t, err)
	v, err := bond.NewDiscountingEngine(disc).Price(b, settle)
	require.NoError(t, err)
	assert.InDelta(t, v.DirtyPrice-want, v.CleanPrice, 1e-9)
}

func TestNewFixedRateValidation(t *testing.T) {
	t.Parallel()

	sched, err := schedule.Generate(anchor, anchor.AddDate(1, 0, 0), schedule.Annual(calendar.TARGET))
	require.NoError(t, err)

	_, err = bond.NewFixedRate(bond.FixedRateSpec{FaceAmount: 100, Schedule: sched})
	assert.ErrorIs(t, err, bond.ErrNoCoupons)

	_, err = bond.NewFixedRate(bond.FixedRateSpec{FaceAmount: 0, Schedule: sched, Coupons: []float64{0.05}})
	assert.ErrorIs(t, err, bond.ErrNonPositiveFace)

	_, err = bond.NewFixedRate(bond.FixedRateSpec{FaceAmount: 100, Coupons: []float64{0.05}})
	assert.Error(t, err)
}

func TestPriceRequiresCurve(t *testing.T) {
	t.Parallel()

	_, err := (&bond.DiscountingEngine{}).Price(fiveYearBond(t, 0.05), anchor)
	assert.ErrorIs(t, err, bond.ErrNilCurve)
}
