package llm

import (
	"strconv"
	"strings"

	"flyticker/internal/models"
)

// Normalize turns the raw, untyped verdict document returned by the model
// into a fully populated Verdict. Every field has a defined default; fields
// the model did supply are never overwritten. The function is pure and
// idempotent: normalizing an already-normalized verdict yields the same
// value.
func Normalize(raw map[string]any) models.Verdict {
	v := models.Verdict{
		Flyable:        asBool(raw["flyable"]),
		Rating:         clampScore(asInt(raw["rating"])),
		Confidence:     clampScore(asInt(raw["confidence"])),
		Conditions:     asStringDefault(raw["conditions"], models.ConditionsUnknown),
		Summary:        asStringDefault(raw["summary"], models.NoSummaryAvailable),
		Recommendation: asStringDefault(raw["recommendation"], models.NoRecommendation),
		Date:           asString(raw["date"]),
		Location:       asString(raw["location"]),
		Timestamp:      asString(raw["timestamp"]),
	}

	details, _ := raw["details"].(map[string]any)
	v.Details = models.VerdictDetails{
		Wind:    asStringDefault(details["wind"], models.NotAvailable),
		Thermal: asStringDefault(details["thermal"], models.NotAvailable),
		Risk:    asStringDefault(details["risk"], models.NotAvailable),
	}

	v.HourlyEvaluations = normalizeHourly(raw["hourly_evaluations"])

	return v
}

// normalizeHourly coerces each object-shaped entry and drops the rest.
// Absence of the whole list yields an empty, non-nil slice.
func normalizeHourly(value any) []models.HourlyEvaluation {
	entries, ok := value.([]any)
	if !ok {
		return []models.HourlyEvaluation{}
	}

	out := make([]models.HourlyEvaluation, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, models.HourlyEvaluation{
			Hour:       asInt(m["hour"]),
			Timestamp:  asString(m["timestamp"]),
			Conditions: strings.ToUpper(asStringDefault(m["conditions"], models.ConditionsUnknown)),
			Flyable:    asBool(m["flyable"]),
			Rating:     clampScore(asInt(m["rating"])),
			Reason:     asStringDefault(m["reason"], models.NoReasonGiven),
		})
	}
	return out
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt coerces JSON numbers (float64 after unmarshal), native ints and
// numeric strings; anything else is 0.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return 0
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asStringDefault(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
