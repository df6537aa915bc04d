package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenWeatherURL is the current-weather endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

var _ weather.Fetcher = (*OpenWeatherProvider)(nil)

var (
	errMissingName       = errors.New("response has no city name")
	errMissingConditions = errors.New("response has no weather conditions")
)

// OpenWeatherProvider implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider builds a provider. An empty baseURL selects
// DefaultOpenWeatherURL and a zero breaker config selects the defaults.
func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	settings := cfg.Breaker
	if settings.Name == "" {
		settings = defaultBreakerSettings("openweather")
	}
	if settings.IsSuccessful == nil {
		settings.IsSuccessful = isBreakerSuccess
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  cfg.Client,
		circuit: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherPayload is the subset of the current-weather response we use.
type openWeatherPayload struct {
	Dt       int64  `json:"dt"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
	Coord    struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Current fetches the current weather for q.City in metric units.
func (p *OpenWeatherProvider) Current(ctx context.Context, q weather.Query) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, weather.NetworkError(q.City, fmt.Errorf("openweather api key is not configured"))
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("q", q.City)
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Reading{}, weather.NetworkError(q.City, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return weather.Reading{}, weather.NotFoundError(q.City)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return weather.Reading{}, weather.StatusError(q.City, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Reading{}, weather.DecodeError(q.City, resp.StatusCode, err)
	}
	if err := payload.validate(); err != nil {
		return weather.Reading{}, weather.DecodeError(q.City, resp.StatusCode, err)
	}

	return payload.toReading(), nil
}

// validate rejects bodies that decode cleanly but carry no reading.
func (pl openWeatherPayload) validate() error {
	if pl.Name == "" {
		return errMissingName
	}
	if len(pl.Weather) == 0 {
		return errMissingConditions
	}
	return nil
}

func (pl openWeatherPayload) toReading() weather.Reading {
	var description, icon, main string
	if len(pl.Weather) > 0 {
		description = pl.Weather[0].Description
		icon = pl.Weather[0].Icon
		main = pl.Weather[0].Main
	}

	ts := time.Now().UTC()
	if pl.Dt > 0 {
		ts = time.Unix(pl.Dt, 0).UTC()
	}

	return weather.Reading{
		City:         pl.Name,
		Country:      pl.Sys.Country,
		UTCOffsetSec: pl.Timezone,
		TemperatureC: pl.Main.Temp,
		FeelsLikeC:   pl.Main.FeelsLike,
		Description:  description,
		Icon:         icon,
		HumidityPct:  pl.Main.Humidity,
		WindSpeedMS:  pl.Wind.Speed,
		PressureHpa:  pl.Main.Pressure,
		VisibilityM:  pl.Visibility,
		Coord:        weather.Coordinate{Lat: pl.Coord.Lat, Lon: pl.Coord.Lon},
		Condition:    mapOpenWeatherCondition(main),
		ObservedAt:   ts,
	}
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
