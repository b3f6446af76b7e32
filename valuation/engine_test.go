package valuation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondval/curve"
	"github.com/meenmo/bondval/records"
	"github.com/meenmo/bondval/valuation"
)

func rec(id int, name string, face int64, term int, rate float64) records.BondRecord {
	return records.BondRecord{
		ID:         id,
		Name:       name,
		FaceValue:  decimal.NewFromInt(face),
		TermYears:  term,
		CouponRate: rate,
		Line:       id + 1,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaultEngineMatchesReferenceSetup(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine()
	require.NoError(t, err)

	assert.True(t, e.AnchorDate().Equal(day(2023, time.May, 25)))
	// anchor + T*365 calendar days, rolled Following.
	assert.True(t, e.MaturityDate(1).Equal(day(2024, time.May, 24)))
	assert.True(t, e.MaturityDate(2).Equal(day(2025, time.May, 26)))
	assert.True(t, e.MaturityDate(5).Equal(day(2028, time.May, 23)))
	assert.True(t, e.MaturityDate(10).Equal(day(2033, time.May, 23)))
}

func TestMaturityRules(t *testing.T) {
	t.Parallel()

	years, err := valuation.NewEngine(valuation.WithMaturityRule(valuation.MaturityCalendarYears))
	require.NoError(t, err)
	assert.True(t, years.MaturityDate(5).Equal(day(2028, time.May, 25)))

	bdays, err := valuation.NewEngine(valuation.WithMaturityRule(valuation.MaturityBusinessDays))
	require.NoError(t, err)
	assert.True(t, bdays.MaturityDate(1).Equal(day(2024, time.October, 25)))
}

func TestAnchorIsRolledForward(t *testing.T) {
	t.Parallel()

	// Good Friday 2023 -> Tuesday after Easter Monday.
	e, err := valuation.NewEngine(valuation.WithAnchorDate(day(2023, time.April, 7)))
	require.NoError(t, err)
	assert.True(t, e.AnchorDate().Equal(day(2023, time.April, 11)))
}

func TestValueNearParAndAligned(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine()
	require.NoError(t, err)

	recs := []records.BondRecord{
		rec(1, "Bond A", 1000, 5, 0.05),
		rec(2, "Bond B", 250, 1, 0.05),
		rec(3, "Bond C", 5000, 2, 0.05),
		rec(4, "Bond D", 100, 30, 0.12),
	}
	results, err := e.Value(context.Background(), recs)
	require.NoError(t, err)
	require.Len(t, results, len(recs))

	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, recs[i].Name, r.Name)
		face := recs[i].FaceFloat()
		assert.InDelta(t, face, r.CleanPrice, face*5e-4, "bond %s should price near par", r.Name)
		assert.InDelta(t, 100, r.QuotedClean, 0.05)
		assert.InDelta(t, recs[i].CouponRate, r.Yield, 1e-3)
		assert.Zero(t, r.AccruedAmount)
		assert.NotEmpty(t, r.Cashflows)
	}

	assert.InDelta(t, 1000.0042467025, results[0].CleanPrice, 1e-6)
	assert.InDelta(t, 250*1000.0012610592/1000, results[1].CleanPrice, 1e-6)
	assert.InDelta(t, 5*1000.0030176098, results[2].CleanPrice, 1e-6)
	assert.True(t, results[0].MaturityDate.Equal(day(2028, time.May, 23)))
}

func TestIdenticalEconomicsGiveIdenticalPrices(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine()
	require.NoError(t, err)

	results, err := e.Value(context.Background(), []records.BondRecord{
		rec(1, "First", 1000, 7, 0.063),
		rec(99, "Second", 1000, 7, 0.063),
	})
	require.NoError(t, err)
	assert.Equal(t, results[0].CleanPrice, results[1].CleanPrice)
}

func TestContinuousCompoundingMatchesLibraryDefault(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine(valuation.WithCompounding(curve.Continuous))
	require.NoError(t, err)

	r := e.ValueOne(0, rec(1, "Bond A", 1000, 5, 0.05))
	require.NoError(t, r.Err)
	assert.InDelta(t, 994.5241239392, r.CleanPrice, 1e-6)
}

func TestValueEmpty(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine()
	require.NoError(t, err)

	results, err := e.Value(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDegenerateBondsAbort(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine()
	require.NoError(t, err)

	recs := []records.BondRecord{
		rec(1, "Good", 1000, 5, 0.05),
		rec(2, "Zero term", 1000, 0, 0.05),
		rec(3, "Never priced", 1000, 5, 0.05),
	}
	results, err := e.Value(context.Background(), recs)
	require.Error(t, err)
	require.Len(t, results, 3)

	var verr *valuation.ValuationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, verr.Index)
	assert.Equal(t, "invalid_term", verr.Reason)
	assert.ErrorIs(t, err, valuation.ErrInvalidTerm)

	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.Zero(t, results[2].CleanPrice)
}

func TestDegenerateBondsIsolated(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine(valuation.WithErrorPolicy(valuation.ErrorPolicyIsolate))
	require.NoError(t, err)

	recs := []records.BondRecord{
		rec(1, "Negative term", 1000, -3, 0.05),
		rec(2, "Zero face", 0, 5, 0.05),
		rec(3, "Impossible rate", 1000, 5, -1.5),
		rec(4, "Good", 1000, 5, 0.05),
	}
	results, err := e.Value(context.Background(), recs)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.ErrorIs(t, results[0].Err, valuation.ErrInvalidTerm)
	assert.ErrorIs(t, results[1].Err, valuation.ErrInvalidFace)
	assert.ErrorIs(t, results[2].Err, valuation.ErrInvalidRate)
	assert.True(t, results[3].OK())
}

func TestParallelValuationPreservesOrder(t *testing.T) {
	t.Parallel()

	serial, err := valuation.NewEngine()
	require.NoError(t, err)
	parallel, err := valuation.NewEngine(valuation.WithWorkers(4))
	require.NoError(t, err)

	var recs []records.BondRecord
	for i := 0; i < 40; i++ {
		recs = append(recs, rec(i, fmt.Sprintf("Bond %02d", i), int64(100*(i+1)), 1+i%15, 0.01+float64(i)*0.002))
	}

	want, err := serial.Value(context.Background(), recs)
	require.NoError(t, err)
	got, err := parallel.Value(context.Background(), recs)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].CleanPrice, got[i].CleanPrice)
	}
}

func TestParallelAbortReportsLowestFailingIndex(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine(valuation.WithWorkers(8))
	require.NoError(t, err)

	var recs []records.BondRecord
	for i := 0; i < 32; i++ {
		recs = append(recs, rec(i, fmt.Sprintf("Bond %02d", i), 1000, 5, 0.05))
	}
	recs[29] = rec(29, "Zero face", 0, 5, 0.05)
	recs[7] = rec(7, "Zero term", 1000, 0, 0.05)
	recs[3] = rec(3, "Negative term", 1000, -2, 0.05)

	for run := 0; run < 20; run++ {
		results, err := e.Value(context.Background(), recs)
		require.Error(t, err)
		require.Len(t, results, len(recs))

		var verr *valuation.ValuationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, 3, verr.Index)
		assert.Equal(t, "Negative term", verr.Name)
	}
}

func TestValueHonoursCancellation(t *testing.T) {
	t.Parallel()

	e, err := valuation.NewEngine()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := e.Value(ctx, []records.BondRecord{rec(1, "A", 1000, 5, 0.05)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 1)
}

func TestNewEngineRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	_, err := valuation.NewEngine(valuation.WithMaturityRule("fortnights"))
	assert.Error(t, err)
	_, err = valuation.NewEngine(valuation.WithDayCount("BUS/252"))
	assert.Error(t, err)
	_, err = valuation.NewEngine(valuation.WithErrorPolicy("retry"))
	assert.Error(t, err)
}
