package llm

import (
	"encoding/json"
	"testing"

	"flyticker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	v := Normalize(map[string]any{})

	assert.False(t, v.Flyable)
	assert.Equal(t, 0, v.Rating)
	assert.Equal(t, 0, v.Confidence)
	assert.Equal(t, models.ConditionsUnknown, v.Conditions)
	assert.Equal(t, models.NoSummaryAvailable, v.Summary)
	assert.Equal(t, models.NoRecommendation, v.Recommendation)
	assert.Equal(t, models.NotAvailable, v.Details.Wind)
	assert.Equal(t, models.NotAvailable, v.Details.Thermal)
	assert.Equal(t, models.NotAvailable, v.Details.Risk)
	assert.NotNil(t, v.HourlyEvaluations)
	assert.Empty(t, v.HourlyEvaluations)
}

func TestNormalizeMissingDetails(t *testing.T) {
	// Model omitted details entirely: all three sub-fields get placeholders
	// and flyable stays false.
	v := Normalize(map[string]any{
		"rating":     float64(7),
		"conditions": "GOOD",
	})

	assert.False(t, v.Flyable)
	assert.Equal(t, models.VerdictDetails{
		Wind:    models.NotAvailable,
		Thermal: models.NotAvailable,
		Risk:    models.NotAvailable,
	}, v.Details)
}

func TestNormalizePreservesSuppliedDetailSubset(t *testing.T) {
	v := Normalize(map[string]any{
		"details": map[string]any{
			"wind": "light NW breeze at launch",
		},
	})

	assert.Equal(t, "light NW breeze at launch", v.Details.Wind)
	assert.Equal(t, models.NotAvailable, v.Details.Thermal)
	assert.Equal(t, models.NotAvailable, v.Details.Risk)
}

func TestNormalizeCoercions(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		rating int
		conf   int
	}{
		{"json numbers", map[string]any{"rating": float64(8), "confidence": float64(6)}, 8, 6},
		{"numeric strings", map[string]any{"rating": "9", "confidence": " 4 "}, 9, 4},
		{"garbage", map[string]any{"rating": []any{1}, "confidence": nil}, 0, 0},
		{"clamped high", map[string]any{"rating": float64(15), "confidence": float64(11)}, 10, 10},
		{"clamped low", map[string]any{"rating": float64(-3), "confidence": float64(-1)}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Normalize(tt.raw)
			assert.Equal(t, tt.rating, v.Rating)
			assert.Equal(t, tt.conf, v.Confidence)
		})
	}
}

func TestNormalizeHourlyEvaluations(t *testing.T) {
	v := Normalize(map[string]any{
		"hourly_evaluations": []any{
			map[string]any{
				"hour":       float64(11),
				"timestamp":  "2026-03-14T11:00",
				"conditions": "good",
				"flyable":    true,
				"rating":     float64(7),
				"reason":     "smooth thermals",
			},
			"not an object", // dropped
			map[string]any{}, // kept with defaults
		},
	})

	require.Len(t, v.HourlyEvaluations, 2)

	assert.Equal(t, models.HourlyEvaluation{
		Hour:       11,
		Timestamp:  "2026-03-14T11:00",
		Conditions: "GOOD",
		Flyable:    true,
		Rating:     7,
		Reason:     "smooth thermals",
	}, v.HourlyEvaluations[0])

	assert.Equal(t, models.HourlyEvaluation{
		Conditions: models.ConditionsUnknown,
		Reason:     models.NoReasonGiven,
	}, v.HourlyEvaluations[1])
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize(map[string]any{
		"flyable":    true,
		"rating":     float64(8),
		"confidence": float64(7),
		"conditions": "EXCELLENT",
		"summary":    "Great spring day.",
		"details": map[string]any{
			"wind": "NE 12 km/h",
		},
		"hourly_evaluations": []any{
			map[string]any{"hour": float64(10), "conditions": "good", "flyable": true, "rating": float64(8)},
		},
		"date":     "2026-03-14",
		"location": "Uetliberg",
	})

	// Round-trip through JSON to rebuild the raw document shape, then
	// normalize again: no field may drift.
	data, err := json.Marshal(first)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	second := Normalize(raw)
	assert.Equal(t, first, second)
}
