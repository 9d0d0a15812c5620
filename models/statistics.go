package models

// coupon payments per year
const (
	Annual     = 1
	SemiAnnual = 2
	Quarterly  = 4
	Monthly    = 12
)

const (
	DefaultFaceValue   = 100.0
	DefaultDaysPerYear = 365.0
	DefaultRateChange  = -0.01
)

// default beta bounds a benchmark must hold for every stock
const (
	DefaultSlopeMin = 0.0
	DefaultSlopeMax = 2.0
)

func ConvertFrequencyToString(inp int) string {
	switch inp {
	case Annual:
		return "annual"
	case SemiAnnual:
		return "semi-annual"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	default:
		return ""
	}
}

// SlopeBounds is the closed interval a regressed beta must fall in
type SlopeBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func DefaultSlopeBounds() SlopeBounds {
	return SlopeBounds{Min: DefaultSlopeMin, Max: DefaultSlopeMax}
}

func (b SlopeBounds) Contains(slope float64) bool {
	return slope >= b.Min && slope <= b.Max
}
