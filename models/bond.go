package models

import (
	"math"

	"github.com/guregu/null/v6"
)

// Column names used by the bond portfolio tables
const (
	ColumnYieldToMaturity  = "Yield_To_Maturity"
	ColumnMaturity         = "Weighted_Avg_Maturity"
	ColumnCoupon           = "Weighted_Avg_Coupon"
	ColumnConvexity        = "Convexity"
	ColumnDuration         = "Duration (D*)"
	ColumnBondPrice        = "Bond_Price"
	ColumnPriceSensitivity = "Price Sensitivity to YTM (-1%)"
)

// Bond is one row of a bond portfolio table. Rates are decimals (0.05 for 5%), maturity is in years.
type Bond struct {
	Ticker           string     `json:"Ticker"`
	YieldToMaturity  null.Float `json:"Yield_To_Maturity"`
	Maturity         null.Float `json:"Weighted_Avg_Maturity"`
	Coupon           null.Float `json:"Weighted_Avg_Coupon"`
	Convexity        null.Float `json:"Convexity"`
	Duration         null.Float `json:"Duration (D*)"`
	Price            null.Float `json:"Bond_Price"`
	PriceSensitivity null.Float `json:"Price Sensitivity to YTM (-1%)"`
}

// BondParameters holds the conventions that are implicit in the bond formulas
type BondParameters struct {
	FaceValue   float64 `json:"faceValue"`
	Frequency   int     `json:"frequency"`
	DaysPerYear float64 `json:"daysPerYear"`
}

func DefaultBondParameters() BondParameters {
	return BondParameters{
		FaceValue:   DefaultFaceValue,
		Frequency:   SemiAnnual,
		DaysPerYear: DefaultDaysPerYear,
	}
}

// Undefined is the value attached to a derived column when it cannot be computed
func Undefined() null.Float {
	return null.NewFloat(0, false)
}

// Present reports whether every value is valid and not NaN
func Present(values ...null.Float) bool {
	for _, v := range values {
		if !v.Valid || math.IsNaN(v.Float64) {
			return false
		}
	}
	return true
}
