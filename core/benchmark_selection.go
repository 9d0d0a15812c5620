package core

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	ex "quant.analytics/extensions"
	m "quant.analytics/models"
)

// every score component carries the same weight
const ScoreComponentWeight = 0.2

// SelectBestBenchmarkAndRegress selects a benchmark using the default settings and no logging
func SelectBestBenchmarkAndRegress(benchmarks, stocks []m.Series) (*m.BenchmarkSelection, error) {
	return (&AnalysisContext{}).SelectBestBenchmarkAndRegress(benchmarks, stocks)
}

// SelectBestBenchmarkAndRegress scores every benchmark candidate against all stocks, picks the highest score,
// then regresses every stock on the winner. Errors are limited to invalid settings and cancellation of the context.
func (ac *AnalysisContext) SelectBestBenchmarkAndRegress(benchmarks, stocks []m.Series) (*m.BenchmarkSelection, error) {
	start := time.Now()
	logger := ac.log()

	settings, err := ac.settings()
	if err != nil {
		logger.Error("error reading settings", zap.Error(err))
		return nil, err
	}
	bounds := settings.SlopeBounds()

	logger.Info("scoring benchmark candidates",
		zap.Int("benchmarks", len(benchmarks)),
		zap.Strings("candidates", ex.Map(benchmarks, func(s m.Series) string { return s.Ticker })),
		zap.Int("stocks", len(stocks)),
		zap.Float64("slopeMin", bounds.Min),
		zap.Float64("slopeMax", bounds.Max))

	slots, err := ac.scoreBenchmarks(benchmarks, stocks, bounds, settings.Workers)
	if err != nil {
		logger.Error("error scoring benchmark candidates", zap.Error(err))
		return nil, err
	}

	scores := make([]m.BenchmarkScore, 0, len(slots))
	candidates := make([]int, 0, len(slots))
	for i, s := range slots {
		if s != nil {
			scores = append(scores, *s)
			candidates = append(candidates, i)
		}
	}

	logger.Info("benchmark candidates scored",
		zap.Int("surviving", len(scores)),
		zap.Duration("elapsed", time.Since(start)))

	if len(scores) == 0 {
		logger.Warn("no benchmark candidate passed the slope filter")
		return &m.BenchmarkSelection{
			Best:        m.NoBenchmark,
			Scores:      []m.BenchmarkScore{},
			Regressions: []m.StockRegression{},
		}, nil
	}

	bestIdx := bestScoreIndex(scores)
	best := scores[bestIdx]
	benchmark := benchmarks[candidates[bestIdx]]
	logger.Info("selected benchmark", zap.String("benchmark", best.Benchmark), zap.Float64("score", best.Score))

	regressions := make([]m.StockRegression, len(stocks))
	for i, stock := range stocks {
		regressions[i] = RegressStock(stock, benchmark)
		if regressions[i].Err != nil {
			logger.Warn("stock regression failed", zap.String("stock", stock.Ticker), zap.Error(regressions[i].Err))
		}
	}

	failed := ex.FilterMultiple(regressions, func(r m.StockRegression) bool { return r.Err != nil })
	logger.Info("benchmark selection completed",
		zap.Int("failedRegressions", len(failed)),
		zap.Duration("elapsed", time.Since(start)))
	return &m.BenchmarkSelection{
		Best:        best.Benchmark,
		Scores:      scores,
		Regressions: regressions,
	}, nil
}

// scoreBenchmarks fans the candidates out to a bounded pool of workers.
// Each result lands in the slot matching its candidate, a nil slot means the candidate was excluded.
func (ac *AnalysisContext) scoreBenchmarks(benchmarks, stocks []m.Series, bounds m.SlopeBounds, workers int) ([]*m.BenchmarkScore, error) {
	slots := make([]*m.BenchmarkScore, len(benchmarks))
	if len(benchmarks) == 0 {
		return slots, nil
	}

	nWorkers := max(ex.Min(len(benchmarks), workers), 1)

	jobsChannel := make(chan int, len(benchmarks))
	for i := range benchmarks {
		jobsChannel <- i
	}
	close(jobsChannel)

	// cancelling the caller's context stops the remaining candidates
	g, ctx := errgroup.WithContext(ac.ctx())
	logger := ac.log()

	for range nWorkers {
		g.Go(func() error {
			for i := range jobsChannel {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				score, err := ScoreBenchmark(benchmarks[i], stocks, bounds)
				if err != nil {
					logger.Debug("benchmark excluded", zap.String("benchmark", benchmarks[i].Ticker), zap.Error(err))
					continue
				}
				slots[i] = score
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slots, nil
}

// ScoreBenchmark regresses every stock on the benchmark and scores the fits.
// The first slope outside bounds or failed regression excludes the benchmark and stops the remaining regressions.
func ScoreBenchmark(benchmark m.Series, stocks []m.Series, bounds m.SlopeBounds) (*m.BenchmarkScore, error) {
	n := len(stocks)
	slopes := make([]float64, 0, n)
	rSquareds := make([]float64, 0, n)
	pValuesIntercept := make([]float64, 0, n)
	pValuesSlope := make([]float64, 0, n)

	for _, stock := range stocks {
		res, err := Regress(stock, benchmark)
		if err != nil {
			return nil, err
		}

		slope := res.Slope()
		if !bounds.Contains(slope) {
			return nil, fmt.Errorf("%s on %s has slope %.4f outside [%v, %v]: %w",
				stock.Ticker, benchmark.Ticker, slope, bounds.Min, bounds.Max, ErrSlopeOutOfBounds)
		}

		slopes = append(slopes, slope)
		rSquareds = append(rSquareds, res.RSquared)
		pValuesIntercept = append(pValuesIntercept, res.PValueIntercept())
		pValuesSlope = append(pValuesSlope, res.PValueSlope())
	}

	if len(slopes) == 0 {
		return nil, fmt.Errorf("benchmark %s: %w", benchmark.Ticker, ErrNoStocks)
	}

	score := m.BenchmarkScore{
		Benchmark:          benchmark.Ticker,
		AvgSlope:           stat.Mean(slopes, nil),
		SlopeStd:           stat.PopStdDev(slopes, nil),
		AvgPValueIntercept: stat.Mean(pValuesIntercept, nil),
		AvgPValueSlope:     stat.Mean(pValuesSlope, nil),
		AvgRSquared:        stat.Mean(rSquareds, nil),
		StocksRegressed:    len(slopes),
	}
	score.BetaQuality = BetaQuality(score.AvgSlope)
	score.Score = CompositeScore(score)

	return &score, nil
}

// BetaQuality is 1 for a pass through beta of exactly 1 and falls off linearly either side
func BetaQuality(avgSlope float64) float64 {
	return 1 - math.Abs(avgSlope-1)
}

// CompositeScore is the equally weighted sum of fit, significance, beta quality and beta consistency
func CompositeScore(s m.BenchmarkScore) float64 {
	r2Component := s.AvgRSquared * ScoreComponentWeight
	interceptComponent := (1 - s.AvgPValueIntercept) * ScoreComponentWeight
	slopeComponent := (1 - s.AvgPValueSlope) * ScoreComponentWeight
	betaQualityComponent := s.BetaQuality * ScoreComponentWeight
	consistencyComponent := (1 / (1 + s.SlopeStd)) * ScoreComponentWeight

	return r2Component + interceptComponent + slopeComponent + betaQualityComponent + consistencyComponent
}

// bestScoreIndex orders candidates by descending score, stable so ties keep input order, NaN scores last
func bestScoreIndex(scores []m.BenchmarkScore) int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(i, j int) int {
		a, b := scores[i], scores[j]
		aNaN, bNaN := math.IsNaN(a.Score), math.IsNaN(b.Score)
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		case bNaN:
			return -1
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return order[0]
}

