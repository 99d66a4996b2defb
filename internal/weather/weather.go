// Package weather produces the environmental sample each tick reads.
// Samples are either generated locally or taken from the latest external
// climate reading; the field and livestock engines never know which.
package weather

import (
	"fmt"

	"github.com/talgya/farmsim/internal/entropy"
)

// Sample is one tick's environmental state. Transient: replaced every tick.
type Sample struct {
	Temperature float64 `json:"temperature"` // °F
	Rainfall    float64 `json:"rainfall"`    // inches
	Humidity    float64 `json:"humidity"`    // %
}

// String renders the sample for logs.
func (s Sample) String() string {
	return fmt.Sprintf("%.1fF rain=%.2fin hum=%.0f%%", s.Temperature, s.Rainfall, s.Humidity)
}

// Provider supplies the next weather sample.
type Provider interface {
	Next(prev Sample) Sample
}

// Generator parameters.
const (
	BaseTemp       = 68.0
	TempSpread     = 15.0
	RainChance     = 0.3
	MaxRainfall    = 1.5
	BaseHumidity   = 50.0
	HumiditySpread = 30.0
)

// Generator produces randomized samples. Stateless aside from its source.
type Generator struct {
	rng *entropy.Source
}

// NewGenerator creates a generator drawing from rng.
func NewGenerator(rng *entropy.Source) *Generator {
	return &Generator{rng: rng}
}

// Next ignores prev; each sample is drawn independently.
func (g *Generator) Next(prev Sample) Sample {
	s := Sample{
		Temperature: BaseTemp + g.rng.Uniform(0, TempSpread),
		Humidity:    BaseHumidity + g.rng.Uniform(0, HumiditySpread),
	}
	if g.rng.Chance(RainChance) {
		s.Rainfall = g.rng.Uniform(0, MaxRainfall)
	}
	return s
}

// Default is the sample the simulation starts with.
func Default() Sample {
	return Sample{Temperature: 72, Rainfall: 0, Humidity: 65}
}
