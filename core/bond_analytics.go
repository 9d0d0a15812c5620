package core

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	ex "quant.analytics/extensions"
	m "quant.analytics/models"
)

const (
	priceDecimals       = 3
	durationDecimals    = 3
	sensitivityDecimals = 4
)

// BondPrice discounts the periodic coupons with the annuity formula and adds the discounted face value.
// Rates are decimals and maturity is in years.
func BondPrice(ytm, maturityYears, couponRate, faceValue float64, frequency int) (float64, error) {
	if frequency <= 0 {
		return math.NaN(), fmt.Errorf("frequency %d: %w", frequency, ErrInvalidFrequency)
	}

	f := float64(frequency)
	periods := maturityYears * f
	ratePerPeriod := ytm / f
	couponPerPeriod := couponRate * faceValue / f

	if ratePerPeriod == 0 {
		return math.NaN(), ErrZeroRatePerPeriod
	}

	couponPV := couponPerPeriod * ((1 - math.Pow(1+ratePerPeriod, -periods)) / ratePerPeriod)
	principalPV := faceValue / math.Pow(1+ratePerPeriod, periods)

	return couponPV + principalPV, nil
}

// AddBondPrices returns a copy of the bonds with Price set, rounded to 3 decimals.
// Rows missing yield, maturity or coupon get an undefined price. Rows the formula cannot price also
// get an undefined price and their errors are joined into the returned error, the rows are still returned.
func AddBondPrices(bonds []m.Bond, params m.BondParameters) ([]m.Bond, error) {
	res := slices.Clone(bonds)
	var errs []error

	for i := range res {
		b := &res[i]
		if !m.Present(b.YieldToMaturity, b.Maturity, b.Coupon) {
			b.Price = m.Undefined()
			continue
		}

		price, err := BondPrice(b.YieldToMaturity.Float64, b.Maturity.Float64, b.Coupon.Float64, params.FaceValue, params.Frequency)
		if err != nil {
			b.Price = m.Undefined()
			errs = append(errs, fmt.Errorf("row %d (%s): %w", i, b.Ticker, err))
			continue
		}

		b.Price = roundedOrUndefined(price, priceDecimals)
	}

	return res, errors.Join(errs...)
}

// ModifiedDuration builds the remaining whole coupon periods between settlement and maturity,
// takes the Macaulay duration of their discounted cash flows and adjusts it for the compounding frequency.
func ModifiedDuration(settlement, maturity time.Time, couponRate, ytm float64, frequency int, faceValue, daysPerYear float64) (float64, error) {
	if frequency <= 0 {
		return math.NaN(), fmt.Errorf("frequency %d: %w", frequency, ErrInvalidFrequency)
	}
	if daysPerYear <= 0 {
		return math.NaN(), fmt.Errorf("days per year %v: %w", daysPerYear, ErrInvalidInput)
	}

	f := float64(frequency)
	days := math.Floor(maturity.Sub(settlement).Hours() / 24)
	totalYears := days / daysPerYear
	numPeriods := int(totalYears * f)
	if numPeriods <= 0 {
		return math.NaN(), fmt.Errorf("%s to %s: %w", ex.FmtShort(settlement), ex.FmtShort(maturity), ErrNoCouponPeriods)
	}

	couponPayment := couponRate * faceValue / f
	cashFlows := make([]float64, numPeriods)
	for i := range cashFlows {
		cashFlows[i] = couponPayment
	}
	cashFlows[numPeriods-1] += faceValue

	times := make([]float64, numPeriods)
	discounted := make([]float64, numPeriods)
	for i := range numPeriods {
		times[i] = float64(i+1) / f
		discounted[i] = cashFlows[i] / math.Pow(1+ytm/f, times[i])
	}

	macaulay := floats.Dot(times, discounted) / floats.Sum(discounted)
	return macaulay / (1 + ytm/f), nil
}

// DurationForBonds returns a copy of the bonds with Duration set, rounded to 3 decimals.
// Maturity dates are approximated as asOf plus maturity years of DaysPerYear days each.
// Missing inputs give an undefined duration, formula failures are joined into the returned error.
func DurationForBonds(bonds []m.Bond, asOf time.Time, params m.BondParameters) ([]m.Bond, error) {
	res := slices.Clone(bonds)
	var errs []error

	for i := range res {
		b := &res[i]
		if !m.Present(b.YieldToMaturity, b.Coupon, b.Maturity) {
			b.Duration = m.Undefined()
			continue
		}

		days := int(b.Maturity.Float64 * params.DaysPerYear)
		maturityDate := asOf.Add(time.Duration(days) * 24 * time.Hour)

		duration, err := ModifiedDuration(asOf, maturityDate, b.Coupon.Float64, b.YieldToMaturity.Float64, params.Frequency, params.FaceValue, params.DaysPerYear)
		if err != nil {
			b.Duration = m.Undefined()
			errs = append(errs, fmt.Errorf("row %d (%s): %w", i, b.Ticker, err))
			continue
		}

		b.Duration = roundedOrUndefined(duration, durationDecimals)
	}

	return res, errors.Join(errs...)
}

// PriceChangeSensitivity returns a copy of the bonds with PriceSensitivity set to
// (duration + 0.5 * convexity * rateChange^2) / 100, rounded to 4 decimals.
// There is no -duration * rateChange term, the column is reported exactly this way.
func PriceChangeSensitivity(bonds []m.Bond, rateChange float64) []m.Bond {
	res := slices.Clone(bonds)

	for i := range res {
		b := &res[i]
		if !m.Present(b.Duration, b.Convexity) {
			b.PriceSensitivity = m.Undefined()
			continue
		}

		sensitivity := (b.Duration.Float64 + 0.5*b.Convexity.Float64*rateChange*rateChange) / 100
		b.PriceSensitivity = roundedOrUndefined(sensitivity, sensitivityDecimals)
	}

	return res
}

// BondAnalytics prices the bonds, computes their durations and then the price sensitivity from those durations.
// Invalid settings return the error and no rows.
func (ac *AnalysisContext) BondAnalytics(bonds []m.Bond, asOf time.Time) ([]m.Bond, error) {
	settings, err := ac.settings()
	if err != nil {
		ac.log().Error("error reading settings", zap.Error(err))
		return nil, err
	}
	params := settings.BondParameters()

	ac.log().Info("running bond analytics",
		zap.Int("bonds", len(bonds)),
		zap.String("frequency", m.ConvertFrequencyToString(params.Frequency)),
		zap.String("asOf", ex.FmtShort(asOf)))

	priced, priceErr := AddBondPrices(bonds, params)
	withDuration, durationErr := DurationForBonds(priced, asOf, params)
	res := PriceChangeSensitivity(withDuration, settings.RateChange)

	err = errors.Join(priceErr, durationErr)
	if err != nil {
		ac.log().Warn("some bonds could not be analysed", zap.Error(err))
	}

	return res, err
}

func roundedOrUndefined(v float64, decimals int) null.Float {
	if !ex.IsFinite(v) {
		return m.Undefined()
	}
	return null.FloatFrom(ex.Round(v, decimals))
}
