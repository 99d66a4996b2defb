// Package crops models fields and the per-tick field update rules.
package crops

import (
	"fmt"
	"strings"
)

// FieldID identifies a field on the farm grid.
type FieldID uint32

// CropType enumerates the fixed set of plantable crops.
type CropType uint8

const (
	CropWheat CropType = iota
	CropCorn
	CropSoybeans
)

// CropParams are the fixed per-crop update parameters.
type CropParams struct {
	WaterNeed    float64 // moisture lost per tick
	NutrientNeed float64 // nutrients lost per tick
	OptimalTemp  float64 // °F
}

var cropTable = map[CropType]CropParams{
	CropWheat:    {WaterNeed: 0.8, NutrientNeed: 0.6, OptimalTemp: 70},
	CropCorn:     {WaterNeed: 1.2, NutrientNeed: 1.0, OptimalTemp: 75},
	CropSoybeans: {WaterNeed: 0.9, NutrientNeed: 0.7, OptimalTemp: 72},
}

var cropNames = map[CropType]string{
	CropWheat:    "Wheat",
	CropCorn:     "Corn",
	CropSoybeans: "Soybeans",
}

// Params returns the parameters for c.
func Params(c CropType) CropParams {
	return cropTable[c]
}

// CropName returns a human-readable crop name.
func CropName(c CropType) string {
	if n, ok := cropNames[c]; ok {
		return n
	}
	return "Unknown"
}

// ParseCrop resolves a crop by name, ignoring case.
func ParseCrop(name string) (CropType, error) {
	for c, n := range cropNames {
		if strings.EqualFold(name, n) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown crop %q", name)
}

// GrowthSample is one weekly entry in a field's growth history.
type GrowthSample struct {
	Week   int     `json:"week"`
	Growth float64 `json:"growth"`
}

// Field is one plot on the farm grid.
// Moisture, Nutrients, Health and Growth are percentages in [0, 100].
type Field struct {
	ID          FieldID        `json:"id"`
	Row         int            `json:"row"`
	Col         int            `json:"col"`
	Crop        CropType       `json:"crop"`
	Moisture    float64        `json:"moisture"`
	Nutrients   float64        `json:"nutrients"`
	Health      float64        `json:"health"`
	Growth      float64        `json:"growth"`
	DaysPlanted int            `json:"days_planted"`
	Yield       float64        `json:"yield"` // set when growth completes
	History     []GrowthSample `json:"history"`
}

// Ready reports whether the field can be harvested.
func (f *Field) Ready() bool {
	return f.Growth >= MaxPercent && f.Yield > 0
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	c := *f
	c.History = append([]GrowthSample(nil), f.History...)
	return &c
}

// MaxPercent is the upper bound of every percentage-like field.
const MaxPercent = 100.0

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxPercent {
		return MaxPercent
	}
	return v
}
