package core

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"quant.analytics/config"
	ex "quant.analytics/extensions"
	m "quant.analytics/models"
)

const nWeeks = 104

var stockBetas = map[string]float64{
	"AAA": 0.9,
	"BBB": 1.1,
	"CCC": 1.0,
}

// TestSelectBestBenchmarkAndRegress_SlopeFilter covers inclusion and exclusion from the score table
func TestSelectBestBenchmarkAndRegress_SlopeFilter(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	benchmarks := []m.Series{
		scaleSeries(t, "INVERSE", market, -1),   // betas near -1, excluded
		scaleSeries(t, "LEVERED", market, 0.25), // betas near 4, excluded
		noisySeries(t, "WEAK", market, 0.02),    // attenuated betas, still inside [0, 2]
		scaleSeries(t, "MARKET", market, 1),
	}
	stocks := generateMockStocks(t, market)

	res, err := SelectBestBenchmarkAndRegress(benchmarks, stocks)
	require.NoError(t, err)

	require.Len(t, res.Scores, 2)
	assert.Equal(t, "WEAK", res.Scores[0].Benchmark, "score table keeps input order")
	assert.Equal(t, "MARKET", res.Scores[1].Benchmark)
	assert.Equal(t, "MARKET", res.Best)
	assert.True(t, res.HasBenchmark())

	for _, s := range res.Scores {
		assert.Equal(t, len(stocks), s.StocksRegressed)
		assert.GreaterOrEqual(t, s.AvgSlope, 0.0)
		assert.LessOrEqual(t, s.AvgSlope, 2.0)

		// beta quality and score are exact formulas, not approximations
		assert.Equal(t, 1-math.Abs(s.AvgSlope-1), s.BetaQuality)
		assert.GreaterOrEqual(t, s.BetaQuality, 0.0)
		assert.LessOrEqual(t, s.BetaQuality, 1.0)

		expected := s.AvgRSquared*0.2 +
			(1-s.AvgPValueIntercept)*0.2 +
			(1-s.AvgPValueSlope)*0.2 +
			s.BetaQuality*0.2 +
			(1/(1+s.SlopeStd))*0.2
		assert.Equal(t, expected, s.Score)
	}

	assert.Greater(t, res.Scores[1].Score, res.Scores[0].Score)
}

func TestSelectBestBenchmarkAndRegress_FinalRegressions(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	benchmarks := []m.Series{scaleSeries(t, "MARKET", market, 1)}
	stocks := generateMockStocks(t, market)

	res, err := SelectBestBenchmarkAndRegress(benchmarks, stocks)
	require.NoError(t, err)
	require.Len(t, res.Regressions, len(stocks))

	for i, r := range res.Regressions {
		assert.Equal(t, stocks[i].Ticker, r.Equity, "rows follow stock input order")
		assert.Equal(t, "MARKET", r.Benchmark)
		assert.NoError(t, r.Err)
		assert.InDelta(t, stockBetas[r.Equity], r.Slope, 0.05)
		assert.Greater(t, r.Correlation, 0.95)
		assert.InDelta(t, r.Correlation*r.Correlation, r.RSquared, 1e-9)
		assert.Less(t, r.PValueSlope, 1e-6)
		assert.Equal(t, nWeeks, r.Observations)
	}
}

func TestSelectBestBenchmarkAndRegress_TieKeepsFirstCandidate(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	benchmarks := []m.Series{
		scaleSeries(t, "FIRST", market, 1),
		scaleSeries(t, "SECOND", market, 1),
		scaleSeries(t, "THIRD", market, 1),
	}
	stocks := generateMockStocks(t, market)

	ac := NewAnalysisContext(context.Background())
	ac.Settings.Workers = 3

	res, err := ac.SelectBestBenchmarkAndRegress(benchmarks, stocks)
	require.NoError(t, err)

	require.Len(t, res.Scores, 3)
	assert.Equal(t, res.Scores[0].Score, res.Scores[1].Score)
	assert.Equal(t, res.Scores[1].Score, res.Scores[2].Score)
	assert.Equal(t, "FIRST", res.Best)
}

func TestSelectBestBenchmarkAndRegress_NoSurvivors(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	stocks := generateMockStocks(t, market)

	tests := []struct {
		name       string
		benchmarks []m.Series
		stocks     []m.Series
	}{
		{"no benchmarks", nil, stocks},
		{"no stocks", []m.Series{scaleSeries(t, "MARKET", market, 1)}, nil},
		{"all excluded", []m.Series{scaleSeries(t, "INVERSE", market, -1)}, stocks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := SelectBestBenchmarkAndRegress(tt.benchmarks, tt.stocks)
			require.NoError(t, err)

			assert.Equal(t, m.NoBenchmark, res.Best)
			assert.False(t, res.HasBenchmark())
			assert.NotNil(t, res.Scores)
			assert.Empty(t, res.Scores)
			assert.NotNil(t, res.Regressions)
			assert.Empty(t, res.Regressions)
		})
	}
}

func TestSelectBestBenchmarkAndRegress_CustomSlopeBounds(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	benchmarks := []m.Series{scaleSeries(t, "LEVERED", market, 0.25)}
	stocks := generateMockStocks(t, market)

	settings := config.Default()
	settings.SlopeMax = 5
	ac := &AnalysisContext{Context: context.Background(), Settings: settings}

	res, err := ac.SelectBestBenchmarkAndRegress(benchmarks, stocks)
	require.NoError(t, err)
	assert.Equal(t, "LEVERED", res.Best)
}

func TestSelectBestBenchmarkAndRegress_PartialSettingsAreRejected(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	benchmarks := []m.Series{scaleSeries(t, "MARKET", market, 1)}
	stocks := generateMockStocks(t, market)

	ac := &AnalysisContext{Context: context.Background(), Settings: config.Settings{Workers: 2}}

	res, err := ac.SelectBestBenchmarkAndRegress(benchmarks, stocks)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "coupon frequency")

	// all zero settings still mean the defaults
	res, err = (&AnalysisContext{}).SelectBestBenchmarkAndRegress(benchmarks, stocks)
	require.NoError(t, err)
	assert.Equal(t, "MARKET", res.Best)
}

func TestSelectBestBenchmarkAndRegress_Cancelled(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	benchmarks := []m.Series{scaleSeries(t, "MARKET", market, 1)}
	stocks := generateMockStocks(t, market)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewAnalysisContext(ctx).SelectBestBenchmarkAndRegress(benchmarks, stocks)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled), "expected context.Canceled, got %v", err)
}

func TestScoreBenchmark_StopsAtFirstOutOfBoundsSlope(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	stocks := generateMockStocks(t, market)

	_, err := ScoreBenchmark(scaleSeries(t, "INVERSE", market, -1), stocks, m.DefaultSlopeBounds())
	require.ErrorIs(t, err, ErrSlopeOutOfBounds)
	assert.Contains(t, err.Error(), stocks[0].Ticker)

	_, err = ScoreBenchmark(scaleSeries(t, "MARKET", market, 1), nil, m.DefaultSlopeBounds())
	assert.ErrorIs(t, err, ErrNoStocks)
}

// TestScoreBenchmark_BoundsAreClosed pins a bound equal to the slope itself as accepted on either side
func TestScoreBenchmark_BoundsAreClosed(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	benchmark := scaleSeries(t, "MARKET", market, 1)
	stocks := generateMockStocks(t, market)[:1]

	fit, err := Regress(stocks[0], benchmark)
	require.NoError(t, err)
	slope := fit.Slope()

	tests := []struct {
		name   string
		bounds m.SlopeBounds
	}{
		{"slope on lower bound", m.SlopeBounds{Min: slope, Max: slope + 1}},
		{"slope on upper bound", m.SlopeBounds{Min: slope - 1, Max: slope}},
		{"single point interval", m.SlopeBounds{Min: slope, Max: slope}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := ScoreBenchmark(benchmark, stocks, tt.bounds)
			require.NoError(t, err)
			assert.Equal(t, slope, score.AvgSlope)
		})
	}

	_, err = ScoreBenchmark(benchmark, stocks, m.SlopeBounds{Min: math.Nextafter(slope, math.Inf(1)), Max: slope + 1})
	assert.ErrorIs(t, err, ErrSlopeOutOfBounds)
}

func TestScoreBenchmark_DegenerateStockExcludesBenchmark(t *testing.T) {
	market := generateMockMarket(t, nWeeks)
	stocks := generateMockStocks(t, market)
	stocks = append(stocks, m.NewSeries("LONE", market.Dates[:1], []float64{0.01}))

	_, err := ScoreBenchmark(scaleSeries(t, "MARKET", market, 1), stocks, m.DefaultSlopeBounds())
	assert.ErrorIs(t, err, ErrInsufficientObservations)
}

// TestAlignSeries_DropsMissingAndUnmatchedDates checks alignment never fills values
func TestAlignSeries_DropsMissingAndUnmatchedDates(t *testing.T) {
	d := weeklyDates(t, 5)
	benchmark := m.NewSeries("BENCH", d[:4], []float64{0.01, math.NaN(), 0.03, 0.04})
	stock := m.NewSeries("STOCK", d, []float64{0.11, 0.12, math.NaN(), 0.14, 0.15})

	pair := AlignSeries(stock, benchmark)

	// d[1] missing in benchmark, d[2] missing in stock, d[4] absent from benchmark
	assert.Equal(t, []float64{0.11, 0.14}, pair.Stock)
	assert.Equal(t, []float64{0.01, 0.04}, pair.Benchmark)
	assert.Equal(t, []time.Time{d[0], d[3]}, pair.Dates)
}

func TestRegressStock_FailureIsKeptOnTheRow(t *testing.T) {
	d := weeklyDates(t, 3)
	benchmark := m.NewSeries("BENCH", d, []float64{0.01, 0.02, 0.03})
	stock := m.NewSeries("STOCK", d, []float64{math.NaN(), 0.05, math.NaN()})

	row := RegressStock(stock, benchmark)

	assert.ErrorIs(t, row.Err, ErrInsufficientObservations)
	assert.Equal(t, "STOCK", row.Equity)
	assert.Equal(t, 1, row.Observations)
	ex.AssertNaN(t, "slope", row.Slope)
	ex.AssertNaN(t, "intercept", row.Intercept)
	ex.AssertNaN(t, "r squared", row.RSquared)
	ex.AssertNaN(t, "correlation", row.Correlation)
	ex.AssertNaN(t, "p value slope", row.PValueSlope)
	ex.AssertNaN(t, "p value intercept", row.PValueIntercept)
}

func TestBestScoreIndexPutsNaNLast(t *testing.T) {
	scores := []m.BenchmarkScore{
		{Benchmark: "NAN", Score: math.NaN()},
		{Benchmark: "LOW", Score: 0.4},
		{Benchmark: "HIGH", Score: 0.9},
		{Benchmark: "HIGH_AGAIN", Score: 0.9},
	}
	ex.AssertAreEqual(t, "best index", 2, bestScoreIndex(scores))
}

type mockMarket struct {
	Dates   []time.Time
	Returns []float64
}

// Helper: weekly dates starting at the first monday of 2023
func weeklyDates(t *testing.T, n int) []time.Time {
	t.Helper()
	start := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := range n {
		dates[i] = start.AddDate(0, 0, 7*i)
	}
	return dates
}

// Helper: seeded weekly excess returns of a market factor
func generateMockMarket(t *testing.T, n int) mockMarket {
	t.Helper()
	normalDist := distuv.Normal{Mu: 0.001, Sigma: 0.02, Src: rand.NewPCG(42, 0)}
	returns := make([]float64, n)
	for i := range n {
		returns[i] = normalDist.Rand()
	}
	return mockMarket{Dates: weeklyDates(t, n), Returns: returns}
}

// Helper: stocks loading on the market factor with the betas in stockBetas plus small idiosyncratic noise
func generateMockStocks(t *testing.T, market mockMarket) []m.Series {
	t.Helper()
	noise := distuv.Normal{Mu: 0, Sigma: 0.002, Src: rand.NewPCG(7, 0)}

	tickers := []string{"AAA", "BBB", "CCC"}
	res := make([]m.Series, len(tickers))
	for i, ticker := range tickers {
		values := make([]float64, len(market.Returns))
		for j, r := range market.Returns {
			values[j] = 0.0005 + stockBetas[ticker]*r + noise.Rand()
		}
		res[i] = m.NewSeries(ticker, market.Dates, values)
	}
	return res
}

// Helper: benchmark that moves scale times as much as the market factor
func scaleSeries(t *testing.T, ticker string, market mockMarket, scale float64) m.Series {
	t.Helper()
	values := make([]float64, len(market.Returns))
	for i, r := range market.Returns {
		values[i] = scale * r
	}
	return m.NewSeries(ticker, market.Dates, values)
}

// Helper: benchmark observing the market factor with measurement noise
func noisySeries(t *testing.T, ticker string, market mockMarket, sigma float64) m.Series {
	t.Helper()
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(99, 0)}
	values := make([]float64, len(market.Returns))
	for i, r := range market.Returns {
		values[i] = r + noise.Rand()
	}
	return m.NewSeries(ticker, market.Dates, values)
}
