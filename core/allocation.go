package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	ex "quant.analytics/extensions"
	m "quant.analytics/models"
)

// grid step used when searching for the highest sharpe ratio equity weight
const equityWeightStep = 0.01

// PortfolioStats is the expected return and volatility of a complete portfolio that holds
// wRisky in the risky portfolio and the rest at the risk free rate
func PortfolioStats(wRisky, erRisky, sdRisky, riskFreeRate float64) (m.PortfolioStats, error) {
	if err := validateFinite(wRisky, erRisky, sdRisky, riskFreeRate); err != nil {
		return m.PortfolioStats{}, err
	}
	if wRisky < 0 || wRisky > 1 {
		return m.PortfolioStats{}, fmt.Errorf("weight must be between 0 and 1, got %v: %w", wRisky, ErrInvalidInput)
	}
	if sdRisky < 0 {
		return m.PortfolioStats{}, fmt.Errorf("standard deviation cannot be negative, got %v: %w", sdRisky, ErrInvalidInput)
	}

	return m.PortfolioStats{
		ER:     wRisky*erRisky + (1-wRisky)*riskFreeRate,
		StdDev: wRisky * sdRisky,
	}, nil
}

// Utility is the mean variance utility er - 0.5 * A * sd^2
func Utility(er, sd, riskAversion float64) (float64, error) {
	if err := validateFinite(er, sd, riskAversion); err != nil {
		return 0, err
	}
	if sd < 0 {
		return 0, fmt.Errorf("standard deviation cannot be negative, got %v: %w", sd, ErrInvalidInput)
	}
	if riskAversion < 0 {
		return 0, fmt.Errorf("risk aversion cannot be negative, got %v: %w", riskAversion, ErrInvalidInput)
	}

	return er - 0.5*riskAversion*sd*sd, nil
}

// OptimalEquityWeight searches equity weights 0, 0.01, ..., 1 for the highest sharpe ratio of the equity/bond mix
func OptimalEquityWeight(in m.EquityBondInputs) (float64, error) {
	if err := validateEquityBondInputs(in); err != nil {
		return 0, err
	}
	if in.EquityStd <= 0 || in.BondStd <= 0 {
		return 0, fmt.Errorf("standard deviations must be positive: %w", ErrInvalidInput)
	}

	maxSharpe := math.Inf(-1)
	optimalWeight := 0.5

	steps := int(math.Round(1 / equityWeightStep))
	for i := 0; i <= steps; i++ {
		w := float64(i) * equityWeightStep
		er, sd := mixReturnAndRisk(w, in)
		if sd == 0 {
			continue
		}

		sharpe := (er - in.RiskFreeRate) / sd
		if sharpe > maxSharpe {
			maxSharpe = sharpe
			optimalWeight = w
		}
	}

	return optimalWeight, nil
}

// RiskBasedAllocation turns a market view and risk score (both 0-100) into a risk aversion index
// and the matching risky weight, clamped to [0, 1]
func RiskBasedAllocation(riskFreeRate, erRisky, sdRisky, marketView, riskScore float64) (m.RiskAllocation, error) {
	if err := validateFinite(riskFreeRate, erRisky, sdRisky, marketView, riskScore); err != nil {
		return m.RiskAllocation{}, err
	}
	if sdRisky <= 0 {
		return m.RiskAllocation{}, fmt.Errorf("standard deviation must be positive, got %v: %w", sdRisky, ErrInvalidInput)
	}
	if marketView < 0 || marketView > 100 || riskScore < 0 || riskScore > 100 {
		return m.RiskAllocation{}, fmt.Errorf("market view and risk score must be between 0 and 100: %w", ErrInvalidInput)
	}

	index := marketView * (1 - riskScore/100)
	weight := (erRisky - riskFreeRate) / (index * sdRisky * sdRisky)
	if !ex.IsFinite(weight) {
		weight = 0
	}

	return m.RiskAllocation{
		RiskAversionIndex:  index,
		RiskAversionWeight: ex.Clamp(weight, 0, 1),
	}, nil
}

// RiskyPortfolioMetrics is the expected return and volatility of the equity/bond mix at the given equity weight
func RiskyPortfolioMetrics(equityWeight float64, in m.EquityBondInputs) (m.RiskyPortfolio, error) {
	if err := validateEquityBondInputs(in); err != nil {
		return m.RiskyPortfolio{}, err
	}
	if err := validateFinite(equityWeight); err != nil {
		return m.RiskyPortfolio{}, err
	}
	if equityWeight < 0 || equityWeight > 1 {
		return m.RiskyPortfolio{}, fmt.Errorf("equity weight must be between 0 and 1, got %v: %w", equityWeight, ErrInvalidInput)
	}
	if in.EquityStd < 0 || in.BondStd < 0 {
		return m.RiskyPortfolio{}, fmt.Errorf("standard deviations cannot be negative: %w", ErrInvalidInput)
	}

	er, sd := mixReturnAndRisk(equityWeight, in)
	return m.RiskyPortfolio{
		ER:         er,
		StdDev:     sd,
		BondWeight: 1 - equityWeight,
	}, nil
}

// CorrelationFromReturns estimates the correlation of two aligned return series
func CorrelationFromReturns(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return math.NaN(), fmt.Errorf("return series have %d and %d observations: %w", len(a), len(b), ErrLengthMismatch)
	}
	if len(a) < 2 {
		return math.NaN(), fmt.Errorf("%d observations: %w", len(a), ErrInsufficientObservations)
	}

	corr := GetCorrelationMatrix(GetCovarianceMatrix([][]float64{a, b})).At(0, 1)
	if math.IsNaN(corr) {
		return math.NaN(), fmt.Errorf("a return series has no variance: %w", ErrInvalidInput)
	}
	return corr, nil
}

func mixReturnAndRisk(equityWeight float64, in m.EquityBondInputs) (float64, float64) {
	weights := []float64{equityWeight, 1 - equityWeight}
	er := floats.Dot(weights, []float64{in.EquityReturn, in.BondReturn})

	bw := weights[1]
	variance := equityWeight*equityWeight*in.EquityStd*in.EquityStd +
		bw*bw*in.BondStd*in.BondStd +
		2*equityWeight*bw*in.EquityStd*in.BondStd*in.Correlation

	return er, math.Sqrt(variance)
}

func validateEquityBondInputs(in m.EquityBondInputs) error {
	if err := validateFinite(in.EquityReturn, in.EquityStd, in.BondReturn, in.BondStd, in.Correlation, in.RiskFreeRate); err != nil {
		return err
	}
	if in.Correlation < -1 || in.Correlation > 1 {
		return fmt.Errorf("correlation must be between -1 and 1, got %v: %w", in.Correlation, ErrInvalidInput)
	}
	return nil
}

func validateFinite(values ...float64) error {
	for i, v := range values {
		if !ex.IsFinite(v) {
			return fmt.Errorf("argument %d is not a finite number: %w", i, ErrInvalidInput)
		}
	}
	return nil
}
