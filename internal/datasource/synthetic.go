package datasource

import (
	"context"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/weather"
)

// Synthetic generates plausible stand-in readings. It never fails.
// Vegetation and soil moisture vary smoothly across the field grid and over
// time via simplex noise, with a little per-sample jitter on top.
type Synthetic struct {
	rng       *entropy.Source
	gen       *weather.Generator
	ndviNoise opensimplex.Noise
	soilNoise opensimplex.Noise
}

// NewSynthetic creates a synthetic source drawing from rng.
func NewSynthetic(rng *entropy.Source) *Synthetic {
	seed := rng.Seed()
	return &Synthetic{
		rng:       rng,
		gen:       weather.NewGenerator(rng),
		ndviNoise: opensimplex.NewNormalized(seed),
		soilNoise: opensimplex.NewNormalized(seed + 1),
	}
}

// Noise shaping.
const (
	spatialFreq  = 400.0 // per degree; adjacent plots differ noticeably
	temporalFreq = 1.0 / 30
	noiseWeight  = 0.7
)

// NDVIRange returns the synthetic vegetation index range for a month:
// peak growing season June to August, shoulder months April, May and
// September, dormant otherwise.
func NDVIRange(m time.Month) (lo, hi float64) {
	switch m {
	case time.June, time.July, time.August:
		return 0.65, 0.90
	case time.April, time.May, time.September:
		return 0.45, 0.75
	default:
		return 0.20, 0.40
	}
}

// Soil moisture fraction range for synthetic readings.
const (
	SoilMoistureMin = 0.15
	SoilMoistureMax = 0.50
)

func (s *Synthetic) sample(noise opensimplex.Noise, loc Location, date time.Time, lo, hi float64) float64 {
	day := float64(date.YearDay())
	n := noise.Eval3(loc.Lat*spatialFreq, loc.Lon*spatialFreq, day*temporalFreq)
	mix := noiseWeight*n + (1-noiseWeight)*s.rng.Float()
	return lo + (hi-lo)*mix
}

// Climate implements ClimateSource using the local weather generator.
func (s *Synthetic) Climate(_ context.Context, _ Location, date time.Time) (Climate, error) {
	w := s.gen.Next(weather.Sample{})
	return Climate{
		Date:            date,
		TemperatureC:    FahrenheitToCelsius(w.Temperature),
		PrecipitationMM: w.Rainfall / InchesPerMillimeter,
		Humidity:        w.Humidity,
		SolarRadiation:  s.rng.Uniform(2, 7),
		WindSpeed:       s.rng.Uniform(0.5, 6),
	}, nil
}

// NDVI implements VegetationSource using the month's seasonal range.
func (s *Synthetic) NDVI(_ context.Context, loc Location, date time.Time) (float64, error) {
	lo, hi := NDVIRange(date.Month())
	return s.sample(s.ndviNoise, loc, date, lo, hi), nil
}

// SoilMoisture implements SoilMoistureSource.
func (s *Synthetic) SoilMoisture(_ context.Context, loc Location, date time.Time) (float64, error) {
	return s.sample(s.soilNoise, loc, date, SoilMoistureMin, SoilMoistureMax), nil
}
