package flyability

import (
	"strings"
	"testing"

	"flyticker/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatReport(t *testing.T) {
	batch := models.EvaluationBatch{
		Location: "Uetliberg",
		Evaluations: []models.Verdict{
			{
				Flyable:        true,
				Rating:         7,
				Confidence:     8,
				Conditions:     models.ConditionsGood,
				Summary:        "Solid spring day.",
				Details:        models.VerdictDetails{Wind: "NW 12 km/h", Thermal: "good from 11:00", Risk: "crowding"},
				Recommendation: "Launch around noon.",
				Date:           "2026-03-14",
				Location:       "Uetliberg",
				Timestamp:      "2026-03-14T07:00:00Z",
			},
			{
				Flyable:    false,
				Conditions: models.ConditionsDangerous,
				Summary:    "Storm front.",
				Details:    models.VerdictDetails{Wind: "W 45 km/h", Thermal: models.NotAvailable, Risk: "gale gusts"},
				Date:       "2026-03-15",
				Location:   "Uetliberg",
			},
		},
	}

	out := FormatReport(batch, 9, 18)

	assert.Contains(t, out, "Uetliberg — 2026-03-14 (09:00-18:00)")
	assert.Contains(t, out, "✅ FLYABLE - GOOD")
	assert.Contains(t, out, "(7/10)")
	assert.Contains(t, out, "🚫 NOT FLYABLE - DANGEROUS")
	assert.Contains(t, out, "Wind:    W 45 km/h")

	// Two day blocks separated by a blank line.
	assert.Equal(t, 2, strings.Count(out, "Summary:"))
}

func TestFormatVerdictZeroScores(t *testing.T) {
	out := formatVerdict(models.Verdict{Conditions: models.ConditionsUnknown}, 9, 18)

	assert.Contains(t, out, "Rating:     - (0/10)")
	assert.Contains(t, out, strings.Repeat("░", 10))
	assert.Contains(t, out, "❓")
}
