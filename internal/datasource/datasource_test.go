package datasource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/entropy"
)

func TestConversions(t *testing.T) {
	assert.InDelta(t, 212.0, CelsiusToFahrenheit(100), 1e-9)
	assert.InDelta(t, 32.0, CelsiusToFahrenheit(0), 1e-9)
	assert.InDelta(t, 25.0, FahrenheitToCelsius(CelsiusToFahrenheit(25)), 1e-9)
	assert.InDelta(t, 0.393701, MillimetersToInches(10), 1e-9)
}

func TestNDVIToHealth(t *testing.T) {
	tests := []struct {
		ndvi float64
		want float64
	}{
		{0.9, 100},
		{0.2, 0},
		{0.55, 50},
		{1.0, 100},
		{-0.3, 0},
		{0.5, 43},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NDVIToHealth(tt.ndvi), "ndvi=%v", tt.ndvi)
	}
}

func TestMoistureToPercent(t *testing.T) {
	assert.Equal(t, 0.0, MoistureToPercent(0.05))
	assert.Equal(t, 100.0, MoistureToPercent(0.5))
	assert.Equal(t, 100.0, MoistureToPercent(0.9))
	assert.Equal(t, 0.0, MoistureToPercent(0))
	assert.Equal(t, 50.0, MoistureToPercent(0.275))
}

func TestClimateSample(t *testing.T) {
	c := Climate{TemperatureC: 25, PrecipitationMM: 25.4, Humidity: 70}
	s := c.Sample()
	assert.InDelta(t, 77.0, s.Temperature, 1e-9)
	assert.InDelta(t, 1.0, s.Rainfall, 1e-4)
	assert.Equal(t, 70.0, s.Humidity)
}

func TestLocationOffset(t *testing.T) {
	l := Location{Lat: 41.878, Lon: -93.098}.Offset(1, 2)
	assert.InDelta(t, 41.879, l.Lat, 1e-9)
	assert.InDelta(t, -93.096, l.Lon, 1e-9)
}

func TestNDVIRange(t *testing.T) {
	tests := []struct {
		month  time.Month
		lo, hi float64
	}{
		{time.June, 0.65, 0.90},
		{time.August, 0.65, 0.90},
		{time.April, 0.45, 0.75},
		{time.September, 0.45, 0.75},
		{time.October, 0.20, 0.40},
		{time.January, 0.20, 0.40},
	}
	for _, tt := range tests {
		lo, hi := NDVIRange(tt.month)
		assert.Equal(t, tt.lo, lo, tt.month.String())
		assert.Equal(t, tt.hi, hi, tt.month.String())
	}
	assert.Equal(t, 0.15, SoilMoistureMin)
	assert.Equal(t, 0.50, SoilMoistureMax)
}

func TestNDVIQuality(t *testing.T) {
	tests := []struct {
		ndvi float64
		want string
	}{
		{0.85, "excellent"},
		{0.7, "good"},
		{0.55, "good"},
		{0.5, "fair"},
		{0.31, "fair"},
		{0.3, "poor"},
		{-0.1, "poor"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NDVIQuality(tt.ndvi), "ndvi=%v", tt.ndvi)
	}
}

func TestSynthetic_InRange(t *testing.T) {
	s := NewSynthetic(entropy.New(17))
	ctx := context.Background()
	loc := Location{Lat: 41.878, Lon: -93.098}

	for m := time.January; m <= time.December; m++ {
		date := time.Date(2026, m, 15, 0, 0, 0, 0, time.UTC)
		lo, hi := NDVIRange(m)
		for row := 0; row < 3; row++ {
			v, err := s.NDVI(ctx, loc.Offset(row, row), date)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, v, lo)
			assert.LessOrEqual(t, v, hi)

			sm, err := s.SoilMoisture(ctx, loc.Offset(row, 0), date)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, sm, SoilMoistureMin)
			assert.LessOrEqual(t, sm, SoilMoistureMax)
		}
	}

	c, err := s.Climate(ctx, loc, time.Now())
	require.NoError(t, err)
	w := c.Sample()
	assert.InDelta(t, 75.5, w.Temperature, 7.6)
	assert.GreaterOrEqual(t, w.Rainfall, 0.0)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = body
	c.puts++
	return nil
}
