package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	m "quant.analytics/models"
)

// Prefix is prepended to every environment variable, e.g. QUANT_FACE_VALUE
const Prefix = "QUANT"

// Settings are the conventions the analytics use when the caller does not pass their own
type Settings struct {
	FaceValue       float64 `envconfig:"FACE_VALUE" default:"100"`
	CouponFrequency int     `envconfig:"COUPON_FREQUENCY" default:"2"`
	DaysPerYear     float64 `envconfig:"DAYS_PER_YEAR" default:"365"`
	RateChange      float64 `envconfig:"RATE_CHANGE" default:"-0.01"`

	SlopeMin float64 `envconfig:"SLOPE_MIN" default:"0"`
	SlopeMax float64 `envconfig:"SLOPE_MAX" default:"2"`

	Workers  int    `envconfig:"WORKERS" default:"4"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Default returns the settings used when nothing is configured
func Default() Settings {
	return Settings{
		FaceValue:       m.DefaultFaceValue,
		CouponFrequency: m.SemiAnnual,
		DaysPerYear:     m.DefaultDaysPerYear,
		RateChange:      m.DefaultRateChange,
		SlopeMin:        m.DefaultSlopeMin,
		SlopeMax:        m.DefaultSlopeMax,
		Workers:         4,
		LogLevel:        "info",
	}
}

// Load reads the given env files (.env when none are given) and then the process environment.
// A missing env file is not an error, the defaults and process environment still apply.
func Load(envFiles ...string) (Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return Settings{}, fmt.Errorf("error loading settings from environment: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

func (s Settings) Validate() error {
	if s.CouponFrequency <= 0 {
		return fmt.Errorf("coupon frequency must be positive, got %d", s.CouponFrequency)
	}
	if s.DaysPerYear <= 0 {
		return fmt.Errorf("days per year must be positive, got %v", s.DaysPerYear)
	}
	if s.FaceValue <= 0 {
		return fmt.Errorf("face value must be positive, got %v", s.FaceValue)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", s.Workers)
	}
	if s.SlopeMin > s.SlopeMax {
		return fmt.Errorf("slope min %v is greater than slope max %v", s.SlopeMin, s.SlopeMax)
	}
	return nil
}

func (s Settings) BondParameters() m.BondParameters {
	return m.BondParameters{
		FaceValue:   s.FaceValue,
		Frequency:   s.CouponFrequency,
		DaysPerYear: s.DaysPerYear,
	}
}

func (s Settings) SlopeBounds() m.SlopeBounds {
	return m.SlopeBounds{Min: s.SlopeMin, Max: s.SlopeMax}
}
