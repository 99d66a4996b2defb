package mission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/crops"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fieldsWithHealth(h float64) []*crops.Field {
	return []*crops.Field{
		{ID: 1, Health: 90},
		{ID: 3, Health: h},
	}
}

func TestScore_DroughtRubric(t *testing.T) {
	tests := []struct {
		name    string
		actions [][2]any
		health  float64
		want    int
	}{
		{"nothing done", nil, 40, 0},
		{"irrigated only", [][2]any{{ActionIrrigate, crops.FieldID(3)}}, 40, 50},
		{"irrigated and fertilized", [][2]any{{ActionIrrigate, crops.FieldID(3)}, {ActionFertilize, crops.FieldID(3)}}, 55, 80},
		{"full marks", [][2]any{{ActionFertilize, crops.FieldID(3)}, {ActionIrrigate, crops.FieldID(3)}}, 61, 100},
		{"wrong field", [][2]any{{ActionIrrigate, crops.FieldID(1)}, {ActionFertilize, crops.FieldID(1)}}, 60, 0},
		{"healthy without actions", nil, 75, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log Log
			for i, a := range tt.actions {
				log.Append(a[0].(string), a[1].(crops.FieldID), t0.Add(time.Duration(i)*time.Minute))
			}
			res := Score(log.Entries(), fieldsWithHealth(tt.health), 0)
			assert.Equal(t, tt.want, res.Score)
			assert.Equal(t, 100, res.MaxScore)
			assert.Len(t, res.Feedback, 3)
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	var log Log
	log.Append(ActionIrrigate, 3, t0)
	log.Append(ActionHarvest, 1, t0.Add(time.Hour))
	fields := fieldsWithHealth(70)

	first := Score(log.Entries(), fields, 0)
	second := Score(log.Entries(), fields, 0)
	assert.Equal(t, first, second)
	assert.Equal(t, 70, first.Score)
	assert.Equal(t, "✓ Correct: You addressed the low soil moisture issue identified by SMAP data (+50)", first.Feedback[0])
	assert.Contains(t, first.Feedback[1], "✗")
	assert.Equal(t, "✓ Success: Crop health improved to acceptable levels (+20)", first.Feedback[2])
}

func TestScore_NoRubric(t *testing.T) {
	res := Score(nil, fieldsWithHealth(90), 1)
	assert.Zero(t, res.Score)
	assert.Zero(t, res.MaxScore)
	require.Len(t, res.Feedback, 1)
	assert.Contains(t, res.Feedback[0], "Extended Drought Forecast")
}

func TestScore_MissingTargetField(t *testing.T) {
	var log Log
	log.Append(ActionIrrigate, 3, t0)
	res := Score(log.Entries(), nil, 0)
	assert.Zero(t, res.Score)
}

func TestScore_TargetsStressedField(t *testing.T) {
	m := Get(0)
	assert.Equal(t, StressedField, m.TargetField)
	assert.Equal(t, crops.FieldID(3), m.TargetField)

	var log Log
	log.Append(ActionIrrigate, 1, t0)
	log.Append(ActionFertilize, 1, t0.Add(time.Minute))
	res := Score(log.Entries(), fieldsWithHealth(40), 0)
	assert.Zero(t, res.Score, "actions on field 1 do not count")
	assert.Equal(t, "✗ Missed: SMAP data showed critically low soil moisture in Field #3 (0/50)", res.Feedback[0])
}

func TestMissionList(t *testing.T) {
	require.Equal(t, 3, Count())
	titles := []string{
		"Declining Crop Yield in South Field",
		"Extended Drought Forecast",
		"Optimize Fertilizer Application",
	}
	for i, m := range All() {
		assert.Equal(t, titles[i], m.Title)
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.Problem)
		assert.Len(t, m.Data, 3)
		assert.Len(t, m.Objectives, 3)
	}
}

func TestLog(t *testing.T) {
	var log Log
	d := log.Append(ActionIrrigate, 4, t0)
	assert.NotEmpty(t, d.ID.String())
	assert.Equal(t, 1, log.Len())

	entries := log.Entries()
	entries[0].Action = "tampered"
	assert.Equal(t, ActionIrrigate, log.Entries()[0].Action, "entries are copied")

	log.Clear()
	assert.Zero(t, log.Len())
}

func TestGet_Wraps(t *testing.T) {
	assert.Equal(t, 0, Get(Count()).Index)
	assert.Equal(t, Count()-1, Get(-1).Index)
	assert.True(t, Get(0).HasRubric())
	assert.False(t, Get(2).HasRubric())
}
