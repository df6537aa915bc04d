package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	defaultIconBaseURL    = "https://openweathermap.org/img/wn"
	defaultTileURL        = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	defaultCity           = "Bandung"
	defaultQuickPicks     = "Jakarta,Bandung,Surabaya,Yogyakarta,Medan"
	defaultMapZoom        = 10
	maxMapZoom            = 19
)

// ErrMissingAPIKey is returned when no OpenWeatherMap credential is configured.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is required")

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	IconBaseURL        string
	HTTPTimeout        time.Duration

	// Widget behaviour.
	DefaultCity string
	QuickPicks  []string

	// Map handle.
	TileURL       string
	MapZoom       int
	RelayoutDelay time.Duration

	// RefreshInterval re-runs the current lookup of every widget (0 = off).
	RefreshInterval time.Duration
	// WidgetMaxIdle drops widgets not seen for this long (0 = never).
	WidgetMaxIdle time.Duration

	Port      string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	var err error
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = strings.TrimSpace(getenv("OPENWEATHER_API_KEY"))
	if cfg.OpenWeatherAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.OpenWeatherBaseURL = getenvDefault(getenv, "OPENWEATHER_BASE_URL", defaultOpenWeatherURL)
	cfg.IconBaseURL = getenvDefault(getenv, "ICON_BASE_URL", defaultIconBaseURL)

	if cfg.HTTPTimeout, err = getenvDuration(getenv, "HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.DefaultCity = getenvDefault(getenv, "DEFAULT_CITY", defaultCity)
	cfg.QuickPicks = parseCities(getenvDefault(getenv, "QUICK_PICKS", defaultQuickPicks))

	cfg.TileURL = getenvDefault(getenv, "TILE_URL", defaultTileURL)
	cfg.MapZoom = getenvInt(getenv, "MAP_ZOOM", defaultMapZoom)
	if cfg.MapZoom < 1 || cfg.MapZoom > maxMapZoom {
		return nil, fmt.Errorf("invalid MAP_ZOOM: %d is outside 1-%d", cfg.MapZoom, maxMapZoom)
	}
	if cfg.RelayoutDelay, err = getenvDuration(getenv, "RELAYOUT_DELAY", "100ms"); err != nil {
		return nil, err
	}

	if cfg.RefreshInterval, err = getenvDuration(getenv, "REFRESH_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if cfg.WidgetMaxIdle, err = getenvDuration(getenv, "WIDGET_MAX_IDLE", "30m"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault(getenv, "PORT", "8080")
	cfg.LogLevel = getenvDefault(getenv, "LOG_LEVEL", "info")
	cfg.LogFormat = getenvDefault(getenv, "LOG_FORMAT", "json")

	return cfg, nil
}

// parseCities splits a comma separated list, dropping blanks and title-casing
// each name for use as a button label.
func parseCities(list string) []string {
	caser := cases.Title(language.Und, cases.NoLower)
	var out []string
	for _, c := range strings.Split(list, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, caser.String(c))
	}
	return out
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(getenv func(string) string, key string, def int) int {
	if v := getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(getenv func(string) string, key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(getenv, key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
