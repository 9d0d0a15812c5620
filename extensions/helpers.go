package extensions

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// FilterMultiple return all elements that satisfy the predicate
func FilterMultiple[T any](elements []T, predicate func(T) bool) (results []T) {
	for _, element := range elements {
		if predicate(element) {
			results = append(results, element)
		}
	}
	return
}

// Map applies f to every element, keeping order
func Map[T, R any](elements []T, f func(T) R) []R {
	res := make([]R, len(elements))
	for i, element := range elements {
		res[i] = f(element)
	}
	return res
}

// AreAllEqual checks if a slice is complised of the same element by value
func AreAllEqual[T comparable](values []T) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}
	return true
}

// FmtShort formats a time in a date only string
func FmtShort(t time.Time) string {
	return t.Format(time.DateOnly)
}

func Min[T Number](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Clamp[T Number](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds half to even at the given number of decimals, the same way numpy does.
// NaN and Inf pass through.
func Round(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return scalar.RoundEven(x, decimals)
}

// IsFinite reports whether x is neither NaN nor +/-Inf
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
