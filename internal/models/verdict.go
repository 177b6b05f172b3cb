package models

// Conditions classifies a day's flying conditions. The LLM is instructed to
// answer with one of these values; anything else is preserved verbatim but
// treated like UNKNOWN by consumers.
const (
	ConditionsExcellent = "EXCELLENT"
	ConditionsGood      = "GOOD"
	ConditionsModerate  = "MODERATE"
	ConditionsPoor      = "POOR"
	ConditionsDangerous = "DANGEROUS"
	ConditionsUnknown   = "UNKNOWN"
)

// Placeholder texts used when the LLM omits a field.
const (
	NotAvailable       = "not available"
	NoSummaryAvailable = "No summary available"
	NoRecommendation   = "No recommendation available"
	NoReasonGiven      = "No reason given"
)

// VerdictDetails breaks the day's judgment down by concern.
type VerdictDetails struct {
	Wind    string `json:"wind"`
	Thermal string `json:"thermal"`
	Risk    string `json:"risk"`
}

// HourlyEvaluation is an optional per-hour sub-verdict inside a Verdict.
type HourlyEvaluation struct {
	Hour       int    `json:"hour"`
	Timestamp  string `json:"timestamp"`
	Conditions string `json:"conditions"`
	Flyable    bool   `json:"flyable"`
	Rating     int    `json:"rating"`
	Reason     string `json:"reason"`
}

// Verdict is the normalized per-day flyability judgment. Every field has a
// defined default, so a Verdict built from any LLM response is always fully
// populated. Not mutated after creation.
type Verdict struct {
	Flyable           bool               `json:"flyable"`
	Rating            int                `json:"rating"`     // 0-10
	Confidence        int                `json:"confidence"` // 0-10
	Conditions        string             `json:"conditions"`
	Summary           string             `json:"summary"`
	Details           VerdictDetails     `json:"details"`
	Recommendation    string             `json:"recommendation"`
	HourlyEvaluations []HourlyEvaluation `json:"hourly_evaluations"`
	Date              string             `json:"date"`      // YYYY-MM-DD
	Location          string             `json:"location"`  // site name
	Timestamp         string             `json:"timestamp"` // generation time, RFC3339
}

// EvaluationBatch is the persisted result of one analysis run. The file is
// replaced wholesale on every successful run, never merged.
type EvaluationBatch struct {
	LastUpdated string    `json:"last_updated"`
	Location    string    `json:"location"`
	Evaluations []Verdict `json:"evaluations"`
}
