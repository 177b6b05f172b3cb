package models

// LocationProfile describes the single analyzed launch site. Immutable for
// the process lifetime; it is resolved once at configuration time.
type LocationProfile struct {
	Name           string  `json:"name" yaml:"name"`
	Latitude       float64 `json:"latitude" yaml:"latitude"`
	Longitude      float64 `json:"longitude" yaml:"longitude"`
	SiteType       string  `json:"typ" yaml:"type"`
	FlyingRegion   string  `json:"fluggebiet" yaml:"region"`
	WindDirections string  `json:"windrichtung" yaml:"wind_directions"` // compass arc, e.g. "N-O" = 0°-90°
	Remarks        string  `json:"bemerkung" yaml:"remarks"`            // pipe-separated operational notes
}
