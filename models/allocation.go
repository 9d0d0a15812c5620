package models

// EquityBondInputs describes the two risky assets the allocation helpers mix
type EquityBondInputs struct {
	EquityReturn float64 `json:"equityReturn"`
	EquityStd    float64 `json:"equityStd"`
	BondReturn   float64 `json:"bondReturn"`
	BondStd      float64 `json:"bondStd"`
	Correlation  float64 `json:"correlation"`
	RiskFreeRate float64 `json:"riskFreeRate"`
}

type PortfolioStats struct {
	ER     float64 `json:"er"`
	StdDev float64 `json:"stdDev"`
}

type RiskyPortfolio struct {
	ER         float64 `json:"erRisky"`
	StdDev     float64 `json:"stdDevRisky"`
	BondWeight float64 `json:"bondWeight"`
}

type RiskAllocation struct {
	RiskAversionIndex  float64 `json:"riskAversionIndex"`
	RiskAversionWeight float64 `json:"riskAversionWeight"`
}
