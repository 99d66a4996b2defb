// Package mission defines the guided missions and scores a decision log
// against each mission's rubric.
package mission

import (
	"fmt"

	"github.com/talgya/farmsim/internal/crops"
)

// Mission is one entry in the fixed mission list.
type Mission struct {
	Index       int           `json:"index"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Problem     string        `json:"problem"`
	Data        []string      `json:"data"`
	Objectives  []string      `json:"objectives"`
	TargetField crops.FieldID `json:"target_field"`
	rubric      []Clause
}

// HasRubric reports whether the mission can be scored.
func (m Mission) HasRubric() bool {
	return len(m.rubric) > 0
}

// Clause is one rubric line: a check worth a fixed number of points.
type Clause struct {
	Points int
	Pass   string
	Fail   string
	Check  func(log []Decision, target *crops.Field) bool
}

// HealthGoal is the crop health the first mission asks for.
const HealthGoal = 60.0

// StressedField is the field the first mission is about.
const StressedField crops.FieldID = 3

var missions = []Mission{
	{
		Index:       0,
		Title:       "Declining Crop Yield in South Field",
		Description: "Your client reports that Field #3 (Soybeans) is showing signs of stress with declining yields. Analyze the NASA satellite data to identify the problem and propose a solution.",
		Problem:     "Low soil moisture and nutrient deficiency detected",
		Data: []string{
			"NDVI shows vegetation stress",
			"SMAP indicates critically low soil moisture",
			"GPM forecasts minimal rainfall",
		},
		Objectives:  []string{"Analyze NDVI data layer", "Check soil moisture levels", "Implement irrigation strategy"},
		TargetField: StressedField,
		rubric: []Clause{
			{
				Points: 50,
				Pass:   "Correct: You addressed the low soil moisture issue identified by SMAP data",
				Fail:   "Missed: SMAP data showed critically low soil moisture in Field #3",
				Check: func(log []Decision, f *crops.Field) bool {
					return f != nil && contains(log, ActionIrrigate, f.ID)
				},
			},
			{
				Points: 30,
				Pass:   "Good: You applied fertilizer to address nutrient deficiency",
				Fail:   "Missed: Field #3 still needs fertilizer for its nutrient deficiency",
				Check: func(log []Decision, f *crops.Field) bool {
					return f != nil && contains(log, ActionFertilize, f.ID)
				},
			},
			{
				Points: 20,
				Pass:   "Success: Crop health improved to acceptable levels",
				Fail:   fmt.Sprintf("Missed: Crop health in Field #3 is still at or below %.0f", HealthGoal),
				Check: func(_ []Decision, f *crops.Field) bool {
					return f != nil && f.Health > HealthGoal
				},
			},
		},
	},
	{
		Index:       1,
		Title:       "Extended Drought Forecast",
		Description: "Local weather reports predict an extended drought period. Use NASA climate data to prepare the farm and minimize crop losses.",
		Problem:     "Upcoming water scarcity threatening all crops",
		Data: []string{
			"GPM predicts 14 days without rainfall",
			"Temperature forecast shows above-average heat",
			"SMAP shows declining soil moisture trend",
		},
		Objectives: []string{"Prioritize water allocation", "Identify most vulnerable fields", "Implement water conservation"},
	},
	{
		Index:       2,
		Title:       "Optimize Fertilizer Application",
		Description: "The client wants to reduce fertilizer costs while maintaining crop health. Use satellite data to identify which fields actually need fertilization.",
		Problem:     "Inefficient fertilizer use across multiple fields",
		Data: []string{
			"NDVI shows varying vegetation health",
			"Landsat data reveals nutrient distribution patterns",
			"Historical yield data available",
		},
		Objectives: []string{"Analyze crop health by field", "Target low-nutrient areas", "Reduce unnecessary fertilization"},
	},
}

// Count returns the number of missions.
func Count() int {
	return len(missions)
}

// Get returns the mission at index, wrapping around the list.
func Get(index int) Mission {
	n := len(missions)
	return missions[((index%n)+n)%n]
}

// All returns every mission in order.
func All() []Mission {
	return append([]Mission(nil), missions...)
}

// Result is a mission score with one feedback line per rubric clause.
type Result struct {
	Mission  int      `json:"mission"`
	Score    int      `json:"score"`
	MaxScore int      `json:"max_score"`
	Feedback []string `json:"feedback"`
}

// Score evaluates log and field state against the mission's rubric.
// Pure: the same inputs always produce the same result.
func Score(log []Decision, fields []*crops.Field, index int) Result {
	m := Get(index)
	res := Result{Mission: m.Index}

	if !m.HasRubric() {
		res.Feedback = []string{fmt.Sprintf("No scoring rubric is defined for %q yet", m.Title)}
		return res
	}

	var target *crops.Field
	for _, f := range fields {
		if f.ID == m.TargetField {
			target = f
			break
		}
	}

	for _, c := range m.rubric {
		res.MaxScore += c.Points
		if c.Check(log, target) {
			res.Score += c.Points
			res.Feedback = append(res.Feedback, fmt.Sprintf("✓ %s (+%d)", c.Pass, c.Points))
		} else {
			res.Feedback = append(res.Feedback, fmt.Sprintf("✗ %s (0/%d)", c.Fail, c.Points))
		}
	}
	return res
}
