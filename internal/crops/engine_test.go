package crops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/calendar"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/ledger"
	"github.com/talgya/farmsim/internal/weather"
)

func newField(crop CropType) *Field {
	return &Field{ID: 1, Crop: crop, Moisture: 60, Nutrients: 70, Health: 80}
}

func TestAdvance_StaysInBounds(t *testing.T) {
	rng := entropy.New(21)
	gen := weather.NewGenerator(rng)
	cal := calendar.New(1)

	extremes := []weather.Sample{
		{Temperature: 120, Rainfall: 0, Humidity: 10},
		{Temperature: 20, Rainfall: 15, Humidity: 100},
	}

	for _, crop := range []CropType{CropWheat, CropCorn, CropSoybeans} {
		f := newField(crop)
		w := weather.Default()
		for i := 0; i < 500; i++ {
			w = gen.Next(w)
			if i%50 == 0 {
				w = extremes[(i/50)%2]
			}
			Advance(f, w, cal.AdvanceDay(), rng)
			for _, v := range []float64{f.Moisture, f.Nutrients, f.Health, f.Growth} {
				require.GreaterOrEqual(t, v, 0.0)
				require.LessOrEqual(t, v, MaxPercent)
			}
			require.GreaterOrEqual(t, f.Yield, 0.0)
		}
		assert.Equal(t, 500, f.DaysPlanted)
	}
}

func TestAdvance_MoistureClampsOnceAtEnd(t *testing.T) {
	f := newField(CropCorn)
	f.Moisture = 1

	// 1 - 1.2 (corn) - 1 (heat) + 3 (rain) = 1.8; clamping each step would give 3.
	Advance(f, weather.Sample{Temperature: 85, Rainfall: 0.3}, calendar.Advance{}, entropy.New(1))
	assert.InDelta(t, 1.8, f.Moisture, 1e-9)
}

func TestAdvance_MoistureUpperClamp(t *testing.T) {
	f := newField(CropWheat)
	f.Moisture = 95
	Advance(f, weather.Sample{Temperature: 70, Rainfall: 1.4}, calendar.Advance{}, entropy.New(1))
	assert.Equal(t, MaxPercent, f.Moisture)
}

func TestAdvance_HealthDrift(t *testing.T) {
	f := newField(CropCorn)
	f.Moisture, f.Nutrients = 90, 90
	// Perfect conditions: overall = 1, drift = +2.5, growth = +1.5.
	Advance(f, weather.Sample{Temperature: 75}, calendar.Advance{}, entropy.New(1))
	assert.InDelta(t, 82.5, f.Health, 1e-9)
	assert.InDelta(t, 1.5, f.Growth, 1e-9)
	assert.InDelta(t, 88.8, f.Moisture, 1e-9)
	assert.InDelta(t, 89.0, f.Nutrients, 1e-9)
}

func TestCropTable(t *testing.T) {
	tests := []struct {
		crop CropType
		name string
		want CropParams
	}{
		{CropWheat, "Wheat", CropParams{WaterNeed: 0.8, NutrientNeed: 0.6, OptimalTemp: 70}},
		{CropCorn, "Corn", CropParams{WaterNeed: 1.2, NutrientNeed: 1.0, OptimalTemp: 75}},
		{CropSoybeans, "Soybeans", CropParams{WaterNeed: 0.9, NutrientNeed: 0.7, OptimalTemp: 72}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Params(tt.crop))
			assert.Equal(t, tt.name, CropName(tt.crop))
		})
	}
	_, err := ParseCrop("tomatoes")
	assert.Error(t, err)
}

func TestAdvance_WheatMildDay(t *testing.T) {
	f := newField(CropWheat)
	Advance(f, weather.Sample{Temperature: 70}, calendar.Advance{}, entropy.New(1))
	assert.InDelta(t, 59.2, f.Moisture, 1e-9)
	assert.InDelta(t, 69.4, f.Nutrients, 1e-9)
}

func TestCondition(t *testing.T) {
	assert.InDelta(t, 1.0, Condition(50, 60, 75, 75), 1e-9)
	assert.InDelta(t, 0.5/3+1.0/3+1.0/3, Condition(20, 60, 75, 75), 1e-9)
	assert.InDelta(t, 2.0/3, Condition(50, 60, 55, 75), 1e-9, "20F off optimum zeroes temperature health")
	assert.InDelta(t, 2.0/3, Condition(50, 60, 120, 75), 1e-9)
}

func TestAdvance_YieldSetOnceAtMaturity(t *testing.T) {
	f := newField(CropCorn)
	f.Moisture, f.Nutrients, f.Growth = 90, 90, 99

	rng := entropy.New(5)
	mirror := entropy.New(5)

	matured := Advance(f, weather.Sample{Temperature: 75}, calendar.Advance{}, rng)
	require.True(t, matured)
	assert.Equal(t, MaxPercent, f.Growth)

	want := math.Floor(f.Health*YieldPerHealth + mirror.Uniform(0, YieldJitter))
	assert.Equal(t, want, f.Yield)

	yield := f.Yield
	matured = Advance(f, weather.Sample{Temperature: 75}, calendar.Advance{}, rng)
	assert.False(t, matured)
	assert.Equal(t, yield, f.Yield, "yield is not recomputed after maturity")
}

func TestAdvance_WeeklyHistory(t *testing.T) {
	f := newField(CropSoybeans)
	cal := calendar.Calendar{Day: 6, Week: 2, Month: 1, Year: 1}
	rng := entropy.New(2)
	w := weather.Sample{Temperature: 72}

	Advance(f, w, cal.AdvanceDay(), rng) // day 6 -> 7
	assert.Empty(t, f.History)

	Advance(f, w, cal.AdvanceDay(), rng) // day 7 -> week boundary
	require.Len(t, f.History, 1)
	assert.Equal(t, 2, f.History[0].Week)
	assert.Equal(t, f.Growth, f.History[0].Growth)
}

func TestApplyTool(t *testing.T) {
	f := newField(CropCorn)
	f.Moisture, f.Health = 90, 97
	l := ledger.Ledger{Water: 60, Fertilizer: 30}

	require.True(t, ApplyTool(f, ToolIrrigate, &l))
	assert.Equal(t, MaxPercent, f.Moisture)
	assert.Equal(t, MaxPercent, f.Health)
	assert.Equal(t, 10.0, l.Water)

	require.True(t, ApplyTool(f, ToolFertilize, &l))
	assert.Equal(t, MaxPercent, f.Nutrients)
	assert.Equal(t, 5.0, l.Fertilizer)
}

func TestApplyTool_InsufficientIsNoop(t *testing.T) {
	f := newField(CropCorn)
	l := ledger.Ledger{Water: 0, Fertilizer: 24, Money: 10, Feed: 3}

	beforeField := f.Clone()
	beforeLedger := l

	assert.False(t, ApplyTool(f, ToolIrrigate, &l))
	assert.False(t, ApplyTool(f, ToolFertilize, &l))
	assert.Equal(t, beforeField, f)
	assert.Equal(t, beforeLedger, l)
}

func TestHarvest(t *testing.T) {
	f := newField(CropSoybeans)
	f.Growth, f.Yield, f.DaysPlanted = 100, 812, 70
	f.History = []GrowthSample{{Week: 1, Growth: 10}}
	l := ledger.Ledger{Money: 100}

	payout, ok := Harvest(f, &l)
	require.True(t, ok)
	assert.Equal(t, 812*HarvestPrice, payout)
	assert.Equal(t, 100+812*HarvestPrice, l.Money)
	assert.Zero(t, f.Growth)
	assert.Zero(t, f.Yield)
	assert.Zero(t, f.DaysPlanted)
	assert.Equal(t, ReplantHealth, f.Health)
	assert.Empty(t, f.History)

	// Second harvest is a no-op.
	before := l
	payout, ok = Harvest(f, &l)
	assert.False(t, ok)
	assert.Zero(t, payout)
	assert.Equal(t, before, l)
}

func TestHarvest_NeedsYield(t *testing.T) {
	f := newField(CropCorn)
	f.Growth = 100
	l := ledger.Ledger{}
	_, ok := Harvest(f, &l)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	c, err := ParseCrop("soybeans")
	require.NoError(t, err)
	assert.Equal(t, CropSoybeans, c)

	_, err = ParseCrop("kale")
	assert.Error(t, err)

	tool, ok := ParseTool("fertilize")
	assert.True(t, ok)
	assert.Equal(t, "fertilize", ToolName(tool))
	_, ok = ParseTool("plow")
	assert.False(t, ok)
}
