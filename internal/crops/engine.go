package crops

import (
	"math"

	"github.com/talgya/farmsim/internal/calendar"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/ledger"
	"github.com/talgya/farmsim/internal/weather"
)

// Field update constants.
const (
	HeatThreshold   = 80.0 // °F above which fields lose extra moisture
	HeatPenalty     = 1.0
	RainToMoisture  = 10.0 // moisture points per inch of rain
	MoistureHealthy = 40.0
	NutrientHealthy = 50.0
	TempTolerance   = 20.0 // °F from optimum where temperature health reaches 0
	HealthDriftRate = 5.0
	GrowthRate      = 1.5
	YieldPerHealth  = 10.0
	YieldJitter     = 20.0
	HarvestPrice    = 50.0 // money per unit of yield
	ReplantHealth   = 80.0
)

// Advance moves a field forward one tick under weather w.
// Returns true when the field reached full growth on this tick.
func Advance(f *Field, w weather.Sample, adv calendar.Advance, rng *entropy.Source) bool {
	p := Params(f.Crop)

	// Heat penalty comes off before the rain bonus; one clamp at the end.
	moisture := f.Moisture - p.WaterNeed
	if w.Temperature > HeatThreshold {
		moisture -= HeatPenalty
	}
	moisture += w.Rainfall * RainToMoisture
	f.Moisture = clamp(moisture)

	f.Nutrients = clamp(f.Nutrients - p.NutrientNeed)

	overall := Condition(f.Moisture, f.Nutrients, w.Temperature, p.OptimalTemp)
	f.Health = clamp(f.Health + (overall-0.5)*HealthDriftRate)

	prevGrowth := f.Growth
	f.Growth = math.Min(MaxPercent, f.Growth+overall*GrowthRate)

	matured := prevGrowth < MaxPercent && f.Growth >= MaxPercent
	if matured {
		f.Yield = math.Floor(f.Health*YieldPerHealth + rng.Uniform(0, YieldJitter))
	}

	f.DaysPlanted++

	if adv.WeekBoundary {
		f.History = append(f.History, GrowthSample{Week: adv.CompletedWeek, Growth: f.Growth})
	}
	return matured
}

// Condition returns the overall growing condition in [0, 1]: the mean of
// moisture, nutrient and temperature health.
func Condition(moisture, nutrients, temp, optimalTemp float64) float64 {
	moistureHealth := 1.0
	if moisture <= MoistureHealthy {
		moistureHealth = moisture / MoistureHealthy
	}
	nutrientHealth := 1.0
	if nutrients <= NutrientHealthy {
		nutrientHealth = nutrients / NutrientHealthy
	}
	tempHealth := math.Max(0, 1-math.Abs(temp-optimalTemp)/TempTolerance)
	return (moistureHealth + nutrientHealth + tempHealth) / 3
}

// Tool is a player action applied to a field.
type Tool uint8

const (
	ToolIrrigate Tool = iota
	ToolFertilize
)

// ToolSpec describes a tool's ledger cost and field effects.
type ToolSpec struct {
	Resource  ledger.Resource
	Cost      float64
	Moisture  float64
	Nutrients float64
	Health    float64
}

var toolTable = map[Tool]ToolSpec{
	ToolIrrigate:  {Resource: ledger.Water, Cost: 50, Moisture: 25, Health: 5},
	ToolFertilize: {Resource: ledger.Fertilizer, Cost: 25, Nutrients: 30, Health: 8},
}

// ToolName returns the action name used in decision logs and the API.
func ToolName(t Tool) string {
	switch t {
	case ToolIrrigate:
		return "irrigate"
	case ToolFertilize:
		return "fertilize"
	default:
		return "unknown"
	}
}

// ParseTool resolves a tool by name.
func ParseTool(name string) (Tool, bool) {
	switch name {
	case "irrigate":
		return ToolIrrigate, true
	case "fertilize":
		return ToolFertilize, true
	}
	return 0, false
}

// Spec returns the cost and effects of t.
func Spec(t Tool) (ToolSpec, bool) {
	s, ok := toolTable[t]
	return s, ok
}

// ApplyTool charges the tool's cost to l and applies its effects to f.
// Returns false, with neither f nor l modified, when l cannot cover the cost.
func ApplyTool(f *Field, t Tool, l *ledger.Ledger) bool {
	spec, ok := toolTable[t]
	if !ok {
		return false
	}
	if !l.Spend(spec.Resource, spec.Cost) {
		return false
	}
	f.Moisture = clamp(f.Moisture + spec.Moisture)
	f.Nutrients = clamp(f.Nutrients + spec.Nutrients)
	f.Health = clamp(f.Health + spec.Health)
	return true
}

// Harvest credits the field's yield to l and resets it for replanting.
// Returns the money credited and false when the field is not ready.
func Harvest(f *Field, l *ledger.Ledger) (float64, bool) {
	if !f.Ready() {
		return 0, false
	}
	payout := f.Yield * HarvestPrice
	l.Credit(ledger.Money, payout)

	f.Growth = 0
	f.DaysPlanted = 0
	f.Yield = 0
	f.Health = ReplantHealth
	f.History = nil
	return payout, true
}
