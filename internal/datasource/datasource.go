// Package datasource enriches the simulation with external climate, vegetation
// index and soil moisture samples. Every sub-fetch falls back to synthetic data
// on failure, so enrichment always produces a complete result.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/talgya/farmsim/internal/crops"
	"github.com/talgya/farmsim/internal/weather"
)

var (
	// ErrNotConfigured is returned by networked sources with no endpoint.
	ErrNotConfigured = errors.New("data source not configured")
	// ErrPartialData is returned when a response lacks required values.
	ErrPartialData = errors.New("partial data")
	// ErrBackoff is returned while a source is backing off after failures.
	ErrBackoff = errors.New("source backing off")
)

// Location is a point on the earth in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlotSpacing is the offset in degrees between adjacent fields on the grid.
const PlotSpacing = 0.001

// Offset returns the location of the plot at (row, col) relative to l.
func (l Location) Offset(row, col int) Location {
	return Location{
		Lat: l.Lat + float64(row)*PlotSpacing,
		Lon: l.Lon + float64(col)*PlotSpacing,
	}
}

func (l Location) String() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Climate is one day of aggregated climate readings in source units.
type Climate struct {
	Date            time.Time `json:"date"`
	TemperatureC    float64   `json:"temperature_c"`
	PrecipitationMM float64   `json:"precipitation_mm"`
	Humidity        float64   `json:"humidity"`
	SolarRadiation  float64   `json:"solar_radiation"` // kWh/m²/day
	WindSpeed       float64   `json:"wind_speed"`      // m/s
}

// Sample converts the climate reading into a weather sample.
func (c Climate) Sample() weather.Sample {
	return weather.Sample{
		Temperature: CelsiusToFahrenheit(c.TemperatureC),
		Rainfall:    MillimetersToInches(c.PrecipitationMM),
		Humidity:    c.Humidity,
	}
}

// ClimateSource fetches daily climate aggregates.
type ClimateSource interface {
	Climate(ctx context.Context, loc Location, date time.Time) (Climate, error)
}

// VegetationSource fetches a vegetation index (NDVI, -1..1) for a point.
type VegetationSource interface {
	NDVI(ctx context.Context, loc Location, date time.Time) (float64, error)
}

// SoilMoistureSource fetches volumetric soil moisture (fraction, 0..1) for a point.
type SoilMoistureSource interface {
	SoilMoisture(ctx context.Context, loc Location, date time.Time) (float64, error)
}

// Cache stores raw source responses keyed by request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
}

// Plot is the part of a field enrichment needs to address it.
type Plot struct {
	ID  crops.FieldID
	Row int
	Col int
}

// Unit conversions.
const (
	InchesPerMillimeter = 0.0393701
)

// CelsiusToFahrenheit converts °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*1.8 + 32
}

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) / 1.8
}

// MillimetersToInches converts mm to inches.
func MillimetersToInches(mm float64) float64 {
	return mm * InchesPerMillimeter
}

// NDVIToHealth maps a vegetation index onto crop health in [0, 100].
func NDVIToHealth(ndvi float64) float64 {
	return math.Round(clamp01((ndvi-0.2)/0.7) * 100)
}

// NDVIQuality labels a vegetation index: above 0.7 is excellent, above 0.5
// good, above 0.3 fair, anything lower poor.
func NDVIQuality(ndvi float64) string {
	switch {
	case ndvi > 0.7:
		return "excellent"
	case ndvi > 0.5:
		return "good"
	case ndvi > 0.3:
		return "fair"
	default:
		return "poor"
	}
}

// MoistureToPercent maps a soil moisture fraction onto a percentage in [0, 100].
func MoistureToPercent(fraction float64) float64 {
	return math.Round(clamp01((fraction-0.05)/0.45) * 100)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func cacheKey(source string, loc Location, date time.Time) string {
	return fmt.Sprintf("%s|%.4f|%.4f|%s", source, loc.Lat, loc.Lon, date.Format("2006-01-02"))
}
