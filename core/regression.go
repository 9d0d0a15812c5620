package core

import (
	"fmt"
	"math"
	"time"

	m "quant.analytics/models"
)

// AlignedPair holds the observations of a stock and a benchmark that share a date
type AlignedPair struct {
	Dates     []time.Time
	Stock     []float64
	Benchmark []float64
}

// AlignSeries keeps the stock's non missing observations for which the benchmark also has a value,
// in the stock's order. Nothing is filled in.
func AlignSeries(stock, benchmark m.Series) AlignedPair {
	benchmarkValues := benchmark.ValueByDate()

	res := AlignedPair{
		Dates:     make([]time.Time, 0, len(stock.Points)),
		Stock:     make([]float64, 0, len(stock.Points)),
		Benchmark: make([]float64, 0, len(stock.Points)),
	}
	for _, p := range stock.Points {
		if p.IsMissing() {
			continue
		}
		bv, ok := benchmarkValues[m.DateKey(p.Date)]
		if !ok {
			continue
		}
		res.Dates = append(res.Dates, p.Date)
		res.Stock = append(res.Stock, p.Value.Float64)
		res.Benchmark = append(res.Benchmark, bv)
	}
	return res
}

// Regress fits stock = alpha + beta * benchmark over the aligned observations
func Regress(stock, benchmark m.Series) (*OLSResult, error) {
	pair := AlignSeries(stock, benchmark)
	res, err := FitOLS(pair.Stock, pair.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("error regressing %s on %s: %w", stock.Ticker, benchmark.Ticker, err)
	}
	return res, nil
}

// RegressStock builds the reported row for a stock against the chosen benchmark.
// A failed fit is kept on the row with NaN statistics so one bad pair does not stop the batch.
func RegressStock(stock, benchmark m.Series) m.StockRegression {
	pair := AlignSeries(stock, benchmark)
	row := m.StockRegression{
		Equity:       stock.Ticker,
		Benchmark:    benchmark.Ticker,
		Correlation:  PearsonCorrelation(pair.Stock, pair.Benchmark),
		Observations: len(pair.Stock),
	}

	res, err := FitOLS(pair.Stock, pair.Benchmark)
	if err != nil {
		row.Intercept = math.NaN()
		row.Slope = math.NaN()
		row.RSquared = math.NaN()
		row.PValueSlope = math.NaN()
		row.PValueIntercept = math.NaN()
		row.Err = fmt.Errorf("error regressing %s on %s: %w", stock.Ticker, benchmark.Ticker, err)
		return row
	}

	row.Intercept = res.Intercept()
	row.Slope = res.Slope()
	row.RSquared = res.RSquared
	row.PValueSlope = res.PValueSlope()
	row.PValueIntercept = res.PValueIntercept()
	return row
}
