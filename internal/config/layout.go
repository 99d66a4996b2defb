package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/farmsim/internal/crops"
	"github.com/talgya/farmsim/internal/ledger"
	"github.com/talgya/farmsim/internal/livestock"
)

// Layout describes the farm at initialization.
type Layout struct {
	Year      int           `yaml:"year"`
	Month     int           `yaml:"month"`
	Resources ledger.Ledger `yaml:"resources"`
	Fields    []FieldSpec   `yaml:"fields"`
	Livestock []AnimalSpec  `yaml:"livestock"`
}

// FieldSpec seeds one field.
type FieldSpec struct {
	ID        uint32  `yaml:"id"`
	Row       int     `yaml:"row"`
	Col       int     `yaml:"col"`
	Crop      string  `yaml:"crop"`
	Moisture  float64 `yaml:"moisture"`
	Nutrients float64 `yaml:"nutrients"`
	Health    float64 `yaml:"health"`
	Growth    float64 `yaml:"growth"`
	Days      int     `yaml:"days_planted"`
}

// AnimalSpec seeds one animal.
type AnimalSpec struct {
	ID         uint32  `yaml:"id"`
	Species    string  `yaml:"species"`
	Health     float64 `yaml:"health"`
	Hunger     float64 `yaml:"hunger"`
	Age        int     `yaml:"age"`
	Production float64 `yaml:"production"`
}

// DefaultLayout is a 2×3 grid of fields and one animal of each species,
// starting in April 2025. Field 3 is the stressed soybean field.
func DefaultLayout() Layout {
	return Layout{
		Year:      2025,
		Month:     4,
		Resources: ledger.Default(),
		Fields: []FieldSpec{
			{ID: 1, Row: 0, Col: 0, Crop: "Wheat", Health: 75, Moisture: 60, Nutrients: 70, Growth: 45, Days: 30},
			{ID: 2, Row: 0, Col: 1, Crop: "Corn", Health: 85, Moisture: 80, Nutrients: 85, Growth: 55, Days: 35},
			{ID: 3, Row: 0, Col: 2, Crop: "Soybeans", Health: 45, Moisture: 30, Nutrients: 40, Growth: 25, Days: 20},
			{ID: 4, Row: 1, Col: 0, Crop: "Wheat", Health: 90, Moisture: 85, Nutrients: 90, Growth: 70, Days: 50},
			{ID: 5, Row: 1, Col: 1, Crop: "Corn", Health: 55, Moisture: 45, Nutrients: 50, Growth: 35, Days: 25},
			{ID: 6, Row: 1, Col: 2, Crop: "Wheat", Health: 70, Moisture: 65, Nutrients: 75, Growth: 50, Days: 35},
		},
		Livestock: []AnimalSpec{
			{ID: 1, Species: "Cow", Health: 85, Hunger: 40, Age: 120},
			{ID: 2, Species: "Chicken", Health: 90, Hunger: 30, Age: 60},
			{ID: 3, Species: "Pig", Health: 75, Hunger: 50, Age: 90},
		},
	}
}

// LoadLayout reads a YAML layout file. Omitted resources fall back to the defaults.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes and validates a YAML layout.
func ParseLayout(data []byte) (Layout, error) {
	l := Layout{Year: 1, Month: 1, Resources: ledger.Default()}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("parse layout: %w", err)
	}
	if _, _, err := l.Build(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Build instantiates fields and livestock, validating the layout.
func (l Layout) Build() ([]*crops.Field, []*livestock.Animal, error) {
	if len(l.Fields) == 0 {
		return nil, nil, fmt.Errorf("layout has no fields")
	}
	if l.Month < 1 || l.Month > 12 {
		return nil, nil, fmt.Errorf("layout month %d out of range", l.Month)
	}
	if l.Resources.Water < 0 || l.Resources.Fertilizer < 0 || l.Resources.Money < 0 || l.Resources.Feed < 0 {
		return nil, nil, fmt.Errorf("layout resources must be non-negative")
	}

	seenF := make(map[uint32]bool)
	fields := make([]*crops.Field, 0, len(l.Fields))
	for _, fs := range l.Fields {
		if seenF[fs.ID] {
			return nil, nil, fmt.Errorf("duplicate field id %d", fs.ID)
		}
		seenF[fs.ID] = true

		crop, err := crops.ParseCrop(fs.Crop)
		if err != nil {
			return nil, nil, fmt.Errorf("field %d: %w", fs.ID, err)
		}
		for name, v := range map[string]float64{"moisture": fs.Moisture, "nutrients": fs.Nutrients, "health": fs.Health, "growth": fs.Growth} {
			if v < 0 || v > crops.MaxPercent {
				return nil, nil, fmt.Errorf("field %d: %s %.1f out of range", fs.ID, name, v)
			}
		}
		if fs.Days < 0 {
			return nil, nil, fmt.Errorf("field %d: days planted must be non-negative", fs.ID)
		}
		fields = append(fields, &crops.Field{
			ID:          crops.FieldID(fs.ID),
			Row:         fs.Row,
			Col:         fs.Col,
			Crop:        crop,
			Moisture:    fs.Moisture,
			Nutrients:   fs.Nutrients,
			Health:      fs.Health,
			Growth:      fs.Growth,
			DaysPlanted: fs.Days,
		})
	}

	seenA := make(map[uint32]bool)
	animals := make([]*livestock.Animal, 0, len(l.Livestock))
	for _, as := range l.Livestock {
		if seenA[as.ID] {
			return nil, nil, fmt.Errorf("duplicate animal id %d", as.ID)
		}
		seenA[as.ID] = true

		species, err := livestock.ParseSpecies(as.Species)
		if err != nil {
			return nil, nil, fmt.Errorf("animal %d: %w", as.ID, err)
		}
		if as.Health < 0 || as.Health > livestock.MaxPercent || as.Hunger < 0 || as.Hunger > livestock.MaxPercent {
			return nil, nil, fmt.Errorf("animal %d: health/hunger out of range", as.ID)
		}
		if as.Age < 0 || as.Production < 0 {
			return nil, nil, fmt.Errorf("animal %d: age and production must be non-negative", as.ID)
		}
		animals = append(animals, &livestock.Animal{
			ID:         livestock.AnimalID(as.ID),
			Species:    species,
			Health:     as.Health,
			Hunger:     as.Hunger,
			Age:        as.Age,
			Production: as.Production,
		})
	}
	return fields, animals, nil
}
