package models

// NoBenchmark is the selection result when no candidate survives scoring
const NoBenchmark = ""

// BenchmarkScore is the scoring record for one candidate that passed the slope filter
type BenchmarkScore struct {
	Benchmark          string  `json:"benchmark"`
	AvgSlope           float64 `json:"avg_slope"`
	SlopeStd           float64 `json:"slope_std"`
	AvgPValueIntercept float64 `json:"avg_p_value_intercept"`
	AvgPValueSlope     float64 `json:"avg_p_value_slope"`
	AvgRSquared        float64 `json:"avg_r_squared"`
	BetaQuality        float64 `json:"beta_quality"`
	Score              float64 `json:"score"`
	StocksRegressed    int     `json:"stocks_regressed"`
}

// StockRegression is a single equity regressed against the selected benchmark.
// Numeric fields are NaN when Err is set.
type StockRegression struct {
	Equity          string  `json:"Equity"`
	Benchmark       string  `json:"Benchmark"`
	Intercept       float64 `json:"intercept (alpha)"`
	Slope           float64 `json:"slope (beta)"`
	Correlation     float64 `json:"correlation"`
	RSquared        float64 `json:"r_squared"`
	PValueSlope     float64 `json:"p_value_slope"`
	PValueIntercept float64 `json:"p_value_intercept"`
	Observations    int     `json:"observations"`
	Err             error   `json:"-"`
}

// BenchmarkSelection is the full output of the benchmark selector
type BenchmarkSelection struct {
	Best        string            `json:"best_benchmark"`
	Scores      []BenchmarkScore  `json:"benchmark_stats"`
	Regressions []StockRegression `json:"stock_regressions"`
}

func (bs *BenchmarkSelection) HasBenchmark() bool {
	return bs.Best != NoBenchmark
}
