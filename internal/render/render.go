// Package render turns a weather reading into the text shown by the widget.
package render

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
)

// DefaultIconBaseURL hosts the condition icons, addressed by icon id.
const DefaultIconBaseURL = "https://openweathermap.org/img/wn"

const (
	localTimeLayout   = "03:04 PM"
	localDateLayout   = "Mon, Jan 2"
	lastUpdatedLayout = "3:04:05 PM"
)

// Display holds every field of the success surface, already formatted.
type Display struct {
	City        string             `json:"city"`
	Country     string             `json:"country"`
	Timezone    string             `json:"timezone"`
	LocalTime   string             `json:"localTime"`
	Temperature string             `json:"temperature"`
	FeelsLike   string             `json:"feelsLike"`
	Description string             `json:"description"`
	IconURL     string             `json:"iconUrl"`
	IconAlt     string             `json:"iconAlt"`
	Humidity    string             `json:"humidity"`
	WindSpeed   string             `json:"windSpeed"`
	Pressure    string             `json:"pressure"`
	Visibility  string             `json:"visibility"`
	LastUpdated string             `json:"lastUpdated"`
	Condition   weather.Condition  `json:"condition"`
	Coord       weather.Coordinate `json:"coord"`
}

// Renderer formats readings. The zero value is not usable; use New.
type Renderer struct {
	iconBaseURL string
	viewer      *time.Location
}

// New returns a Renderer. viewer is the clock zone used for the
// "last updated" stamp; nil means time.Local.
func New(iconBaseURL string, viewer *time.Location) *Renderer {
	if iconBaseURL == "" {
		iconBaseURL = DefaultIconBaseURL
	}
	if viewer == nil {
		viewer = time.Local
	}
	return &Renderer{
		iconBaseURL: strings.TrimRight(iconBaseURL, "/"),
		viewer:      viewer,
	}
}

// Render derives the display fields for r at instant now.
func (rd *Renderer) Render(r weather.Reading, now time.Time) Display {
	local := LocalTime(now, r.UTCOffsetSec)

	return Display{
		City:        r.City,
		Country:     r.Country,
		Timezone:    TimezoneLabel(r.UTCOffsetSec),
		LocalTime:   local.Format(localTimeLayout) + ", " + local.Format(localDateLayout),
		Temperature: Celsius(r.TemperatureC),
		FeelsLike:   "Feels like " + Celsius(r.FeelsLikeC),
		Description: r.Description,
		IconURL:     rd.IconURL(r.Icon),
		IconAlt:     r.Description,
		Humidity:    strconv.Itoa(r.HumidityPct) + "%",
		WindSpeed:   strconv.FormatFloat(r.WindSpeedMS, 'f', -1, 64) + " m/s",
		Pressure:    strconv.Itoa(r.PressureHpa) + " hPa",
		Visibility:  Kilometers(r.VisibilityM),
		LastUpdated: now.In(rd.viewer).Format(lastUpdatedLayout),
		Condition:   r.Condition,
		Coord:       r.Coord,
	}
}

// IconURL returns the large icon for an icon id, e.g. ".../04d@2x.png".
func (rd *Renderer) IconURL(icon string) string {
	return rd.iconBaseURL + "/" + icon + "@2x.png"
}

// LocalTime shifts now into the location's wall clock.
func LocalTime(now time.Time, offsetSec int) time.Time {
	return now.In(time.FixedZone("", offsetSec))
}

// TimezoneLabel formats an offset in seconds as "UTC+7", "UTC+5.5", "UTC-3".
func TimezoneLabel(offsetSec int) string {
	hours := float64(offsetSec) / 3600
	sign := ""
	if hours >= 0 {
		sign = "+"
	}
	return "UTC" + sign + strconv.FormatFloat(hours, 'f', -1, 64)
}

// Celsius rounds half up, so 26.5 shows as 27°C and -2.5 as -2°C.
func Celsius(v float64) string {
	return strconv.Itoa(int(math.Floor(v+0.5))) + "°C"
}

// Kilometers converts meters to kilometers with one decimal.
func Kilometers(meters int) string {
	return strconv.FormatFloat(float64(meters)/1000, 'f', 1, 64) + " km"
}
