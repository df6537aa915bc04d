package weather

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Query is a single city lookup. It lives for one fetch cycle only.
type Query struct {
	City string `json:"city"`
}

// NewQuery trims and normalizes a user supplied city name.
// Empty input after trimming is rejected with ErrEmptyCity.
func NewQuery(raw string) (Query, error) {
	city := strings.TrimSpace(norm.NFC.String(raw))
	if city == "" {
		return Query{}, ErrEmptyCity
	}
	return Query{City: city}, nil
}

// Coordinate is a WGS 84 position.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Reading is one snapshot of current weather for a location, as returned by
// the upstream API.
type Reading struct {
	City         string     `json:"city"`
	Country      string     `json:"country"`
	UTCOffsetSec int        `json:"utcOffsetSeconds"`
	TemperatureC float64    `json:"temperatureC"`
	FeelsLikeC   float64    `json:"feelsLikeC"`
	Description  string     `json:"description"`
	Icon         string     `json:"icon"`
	HumidityPct  int        `json:"humidityPercent"`
	WindSpeedMS  float64    `json:"windSpeed"`
	PressureHpa  int        `json:"pressureHpa"`
	VisibilityM  int        `json:"visibilityMeters"`
	Coord        Coordinate `json:"coord"`
	Condition    Condition  `json:"condition"`
	ObservedAt   time.Time  `json:"observedAt"` // always UTC
}

// Offset returns the location's UTC offset as a duration.
func (r Reading) Offset() time.Duration {
	return time.Duration(r.UTCOffsetSec) * time.Second
}
