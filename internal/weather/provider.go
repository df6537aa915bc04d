package weather

import (
	"context"
)

// Fetcher abstracts the current-weather data source (e.g. OpenWeatherMap).
// Implementations issue exactly one outbound request per call and report
// failures as *LookupError.
type Fetcher interface {
	Name() string
	Current(ctx context.Context, q Query) (Reading, error)
}
