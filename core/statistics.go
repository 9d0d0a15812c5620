package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	ex "quant.analytics/extensions"
)

// OLSResult holds an ordinary least squares fit with an intercept.
// Coefficient slices are ordered intercept first, then regressors in the order given.
type OLSResult struct {
	Params           []float64
	StdErrors        []float64
	TValues          []float64
	PValues          []float64
	RSquared         float64
	Observations     int
	DegreesOfFreedom int
}

func (r *OLSResult) Intercept() float64 { return r.Params[0] }

func (r *OLSResult) Slope() float64 { return r.Params[1] }

func (r *OLSResult) PValueIntercept() float64 { return r.PValues[0] }

func (r *OLSResult) PValueSlope() float64 { return r.PValues[1] }

// FitOLS regresses y on the regressors with an intercept term.
// With zero residual degrees of freedom the fit is exact and standard errors, t values and p values are NaN.
func FitOLS(y []float64, regressors ...[]float64) (*OLSResult, error) {
	n := len(y)
	k := len(regressors) + 1

	for i, x := range regressors {
		if len(x) != n {
			return nil, fmt.Errorf("regressor %d has %d observations, response has %d: %w", i, len(x), n, ErrLengthMismatch)
		}
	}

	if n < k {
		return nil, fmt.Errorf("fitting %d coefficients on %d observations: %w", k, n, ErrInsufficientObservations)
	}

	for i, x := range regressors {
		if ex.AreAllEqual(x) {
			return nil, fmt.Errorf("regressor %d is constant: %w", i, ErrSingularDesign)
		}
	}

	design := ArrToDesignMatrix(regressors, n)

	var qr mat.QR
	qr.Factorize(design)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularDesign, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &beta)

	residuals := make([]float64, n)
	floats.SubTo(residuals, y, fitted.RawVector().Data)
	ssr := floats.Dot(residuals, residuals)

	mean := stat.Mean(y, nil)
	var sst float64
	for _, v := range y {
		sst += (v - mean) * (v - mean)
	}

	res := &OLSResult{
		Params:           make([]float64, k),
		StdErrors:        make([]float64, k),
		TValues:          make([]float64, k),
		PValues:          make([]float64, k),
		RSquared:         1 - ssr/sst,
		Observations:     n,
		DegreesOfFreedom: n - k,
	}
	for j := range k {
		res.Params[j] = beta.AtVec(j)
	}

	if res.DegreesOfFreedom == 0 {
		for j := range k {
			res.StdErrors[j] = math.NaN()
			res.TValues[j] = math.NaN()
			res.PValues[j] = math.NaN()
		}
		return res, nil
	}

	// var(beta) = sigma^2 (X'X)^-1
	var xtx, xtxInv mat.Dense
	xtx.Mul(design.T(), design)
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularDesign, err)
	}

	sigma2 := ssr / float64(res.DegreesOfFreedom)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(res.DegreesOfFreedom)}
	for j := range k {
		se := math.Sqrt(sigma2 * xtxInv.At(j, j))
		t := res.Params[j] / se
		res.StdErrors[j] = se
		res.TValues[j] = t
		res.PValues[j] = 2 * tDist.Survival(math.Abs(t))
	}

	return res, nil
}

// ArrToDesignMatrix lays regressors out as columns behind a leading column of ones
func ArrToDesignMatrix(regressors [][]float64, nObservations int) *mat.Dense {
	res := mat.NewDense(nObservations, len(regressors)+1, nil)
	for i := range nObservations {
		res.Set(i, 0, 1)
	}
	for j, col := range regressors {
		for i, v := range col {
			res.Set(i, j+1, v)
		}
	}
	return res
}

// PearsonCorrelation is NaN when there are fewer than two pairs or the lengths differ
func PearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

func GetCovarianceMatrix(data [][]float64) *mat.SymDense {
	returnMatrix := ArrToMatrix(data)
	covMatrix := mat.NewSymDense(len(data), nil)
	stat.CovarianceMatrix(covMatrix, returnMatrix, nil)
	return covMatrix
}

// GetCorrelationMatrix builds a correlation matrix from a covariance matrix so diagonal is 1.
// corr_ij = cov_ij / sqrt(cov_ii*cov_jj)
func GetCorrelationMatrix(covMatrix *mat.SymDense) *mat.SymDense {
	n := covMatrix.SymmetricDim()
	corrMatrix := mat.NewSymDense(n, nil)

	for i := range n {
		for j := range i + 1 {
			corr := covMatrix.At(i, j) / math.Sqrt(covMatrix.At(i, i)*covMatrix.At(j, j))
			corrMatrix.SetSym(i, j, corr)
		}
	}

	return corrMatrix
}

// ArrToMatrix puts each series in its own column, all series must be the same length
func ArrToMatrix(data [][]float64) *mat.Dense {
	nSymbols := len(data)
	nObservations := len(data[0])
	res := mat.NewDense(nObservations, nSymbols, nil)
	for j, col := range data {
		for i, row := range col {
			res.Set(i, j, row)
		}
	}
	return res
}
