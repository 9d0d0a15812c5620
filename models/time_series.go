package models

import (
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// Point is a single excess return observation, an invalid or NaN value is treated as missing
type Point struct {
	Date  time.Time  `json:"date"`
	Value null.Float `json:"value"`
}

// Series is one named column of a return table (a benchmark or a stock)
type Series struct {
	Ticker string  `json:"ticker"`
	Points []Point `json:"points"`
}

func (p Point) IsMissing() bool {
	return !p.Value.Valid || math.IsNaN(p.Value.Float64)
}

// NewSeries builds a series from parallel date and value slices, NaN values become missing points
func NewSeries(ticker string, dates []time.Time, values []float64) Series {
	n := min(len(dates), len(values))
	points := make([]Point, n)
	for i := range n {
		points[i] = Point{
			Date:  dates[i],
			Value: null.NewFloat(values[i], !math.IsNaN(values[i])),
		}
	}
	return Series{Ticker: ticker, Points: points}
}

// ValueByDate indexes the non missing observations of the series by date
func (s Series) ValueByDate() map[int64]float64 {
	res := make(map[int64]float64, len(s.Points))
	for _, p := range s.Points {
		if p.IsMissing() {
			continue
		}
		res[DateKey(p.Date)] = p.Value.Float64
	}
	return res
}

// DateKey is the alignment key for a date, independent of location and monotonic clock readings
func DateKey(t time.Time) int64 {
	return t.UnixNano()
}
