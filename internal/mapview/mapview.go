// Package mapview owns the single map-and-marker handle of a widget.
//
// The actual drawing is done in the browser by the map library; this package
// keeps the state the page applies to it (centre, zoom, tile layer, marker,
// popup) and the layout revision that tells the page to recompute the
// viewport size.
package mapview

import (
	"html"
	"sync"
	"time"
)

const (
	DefaultZoom          = 10
	DefaultRelayoutDelay = 100 * time.Millisecond
	DefaultTileURL       = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution   = "© OpenStreetMap contributors"
	DefaultMaxZoom       = 19
)

// TileLayer is the base layer attached when the map is created.
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"maxZoom"`
}

// LatLng is a map position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Marker is the single position marker with its popup.
type Marker struct {
	Position  LatLng `json:"position"`
	Popup     string `json:"popup"` // HTML
	PopupOpen bool   `json:"popupOpen"`
}

// State is a point-in-time copy of the map handle.
type State struct {
	Created   bool       `json:"created"`
	Instances int        `json:"instances"`
	Center    LatLng     `json:"center"`
	Zoom      int        `json:"zoom"`
	Tiles     *TileLayer `json:"tiles,omitempty"`
	Marker    *Marker    `json:"marker,omitempty"`
	Layout    int        `json:"layout"`
}

// Options configures a Map.
type Options struct {
	Zoom          int
	RelayoutDelay time.Duration
	Tiles         TileLayer

	// Schedule runs fn once after d. Defaults to time.AfterFunc.
	Schedule func(d time.Duration, fn func())
	// OnCreate is called once, when the map instance is first created.
	OnCreate func()
}

// Map is a lazily created map instance. Safe for concurrent use.
type Map struct {
	mu sync.Mutex

	opts Options

	created   bool
	instances int
	center    LatLng
	zoom      int
	tiles     *TileLayer
	marker    *Marker
	layout    int
}

// New returns an empty handle; nothing is created until ShowLocation.
func New(opts Options) *Map {
	if opts.Zoom <= 0 {
		opts.Zoom = DefaultZoom
	}
	if opts.RelayoutDelay <= 0 {
		opts.RelayoutDelay = DefaultRelayoutDelay
	}
	if opts.Tiles.URL == "" {
		opts.Tiles.URL = DefaultTileURL
	}
	if opts.Tiles.Attribution == "" {
		opts.Tiles.Attribution = DefaultAttribution
	}
	if opts.Tiles.MaxZoom <= 0 {
		opts.Tiles.MaxZoom = DefaultMaxZoom
	}
	if opts.Schedule == nil {
		opts.Schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return &Map{opts: opts}
}

// ShowLocation centres the map on (lat, lon) and points the marker there with
// label in its popup. The first call creates the map; later calls move it.
func (m *Map) ShowLocation(lat, lon float64, label string) {
	pos := LatLng{Lat: lat, Lon: lon}
	popup := "<b>" + html.EscapeString(label) + "</b>"

	m.mu.Lock()
	created := false
	if !m.created {
		m.created = true
		m.instances++
		tiles := m.opts.Tiles
		m.tiles = &tiles
		created = true
	}
	m.center = pos
	m.zoom = m.opts.Zoom

	if m.marker == nil {
		m.marker = &Marker{}
	}
	m.marker.Position = pos
	m.marker.Popup = popup
	m.marker.PopupOpen = true
	m.mu.Unlock()

	if created && m.opts.OnCreate != nil {
		m.opts.OnCreate()
	}

	m.opts.Schedule(m.opts.RelayoutDelay, m.invalidateSize)
}

func (m *Map) invalidateSize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.created {
		m.layout++
	}
}

// Snapshot returns a copy of the current state.
func (m *Map) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{
		Created:   m.created,
		Instances: m.instances,
		Center:    m.center,
		Zoom:      m.zoom,
		Layout:    m.layout,
	}
	if m.tiles != nil {
		tiles := *m.tiles
		st.Tiles = &tiles
	}
	if m.marker != nil {
		marker := *m.marker
		st.Marker = &marker
	}
	return st
}
