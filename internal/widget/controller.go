// Package widget coordinates weather lookups for one widget instance and
// holds the state the page displays.
package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/weather-widget/internal/mapview"
	"github.com/i474232898/weather-widget/internal/metrics"
	"github.com/i474232898/weather-widget/internal/render"
	"github.com/i474232898/weather-widget/internal/weather"
)

// DefaultCity is looked up when a widget is first shown.
const DefaultCity = "Bandung"

// Options configures a Controller.
type Options struct {
	DefaultCity string
	Renderer    *render.Renderer
	Map         mapview.Options
	Logger      *slog.Logger
	Now         func() time.Time
}

// Controller is the request coordinator of a single widget: it owns the
// current city, the view state and the map handle.
//
// Each lookup gets a generation number. Starting a lookup cancels the one in
// flight, and a result whose generation is no longer current is dropped, so
// the view always reflects the most recently issued lookup.
type Controller struct {
	fetcher  weather.Fetcher
	renderer *render.Renderer
	maps     *mapview.Map
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	city   string
	gen    uint64
	cancel context.CancelFunc
	view   View
}

// NewController creates a widget showing the loading state for the default city.
func NewController(fetcher weather.Fetcher, opts Options) *Controller {
	if opts.DefaultCity == "" {
		opts.DefaultCity = DefaultCity
	}
	if opts.Renderer == nil {
		opts.Renderer = render.New("", nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Map.OnCreate == nil {
		opts.Map.OnCreate = metrics.MapsCreated.Inc
	}

	return &Controller{
		fetcher:  fetcher,
		renderer: opts.Renderer,
		maps:     mapview.New(opts.Map),
		logger:   opts.Logger,
		now:      opts.Now,
		city:     opts.DefaultCity,
		view:     loadingView(opts.DefaultCity, 0),
	}
}

// Search handles a submitted search. Blank input is rejected with
// weather.ErrEmptyCity and leaves the widget untouched.
func (c *Controller) Search(ctx context.Context, raw string) (View, error) {
	q, err := weather.NewQuery(raw)
	if err != nil {
		return c.View(), err
	}
	return c.Fetch(ctx, q.City), nil
}

// QuickPick selects one of the predefined cities.
func (c *Controller) QuickPick(ctx context.Context, city string) (View, error) {
	return c.Search(ctx, city)
}

// Refresh looks up the current city again.
func (c *Controller) Refresh(ctx context.Context) View {
	return c.Fetch(ctx, c.City())
}

// City returns the current city.
func (c *Controller) City() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.city
}

// View returns a snapshot of the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() View {
	v := c.view
	v.Map = c.maps.Snapshot()
	return v
}

// Fetch makes city current, runs one lookup for it and returns the resulting
// view. The city must already be validated.
func (c *Controller) Fetch(ctx context.Context, city string) View {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.city = city
	c.view = loadingView(city, gen)
	c.mu.Unlock()
	defer cancel()

	log := c.logger.With("city", city, "generation", gen)

	start := time.Now()
	reading, err := c.fetcher.Current(reqCtx, weather.Query{City: city})
	metrics.ObserveLookup(outcome(err), time.Since(start))

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		metrics.StaleResponses.Inc()
		log.Debug("discarding superseded weather lookup", "current_generation", c.gen)
		return c.snapshotLocked()
	}
	c.cancel = nil

	if err != nil {
		log.Error("weather lookup failed", "provider", c.fetcher.Name(), "error", err)
		c.view = errorView(city, gen, weather.UserMessage(err))
		return c.snapshotLocked()
	}

	log.Debug("weather lookup succeeded", "provider", c.fetcher.Name(), "reading", reading)
	display := c.renderer.Render(reading, c.now())
	c.maps.ShowLocation(reading.Coord.Lat, reading.Coord.Lon, reading.City)
	c.view = successView(city, gen, display)
	return c.snapshotLocked()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, weather.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeTransport
	}
}
