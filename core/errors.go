package core

import "errors"

var (
	ErrInsufficientObservations = errors.New("not enough aligned observations to fit regression")
	ErrSingularDesign           = errors.New("regression design matrix is singular")
	ErrLengthMismatch           = errors.New("regressor and response lengths differ")

	ErrSlopeOutOfBounds = errors.New("slope outside of allowed bounds")
	ErrNoStocks         = errors.New("no stocks were regressed")

	ErrZeroRatePerPeriod = errors.New("rate per period is zero, annuity factor is undefined")
	ErrInvalidFrequency  = errors.New("coupon frequency must be positive")
	ErrNoCouponPeriods   = errors.New("bond has no whole coupon periods before maturity")

	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidSettings = errors.New("invalid analysis settings")
)
