package httpapi

import (
	"errors"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-widget/internal/metrics"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/widget"
)

// WidgetCookie carries the id of the browser's widget instance.
const WidgetCookie = "widget_id"

var validate = validator.New()

// PageConfig is what the widget page needs besides the view.
type PageConfig struct {
	QuickPicks    []string
	RelayoutDelay time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, registry *widget.Registry, page PageConfig) {
	h := &handlers{registry: registry, page: page}

	app.Get("/", h.index)
	app.Get("/health", h.health)
	app.Get("/metrics", metrics.Handler())

	v1 := app.Group("/api/v1")
	v1.Get("/view", h.view)
	v1.Post("/search", h.search)
	v1.Post("/quick/:city", h.quickPick)
	v1.Post("/refresh", h.refresh)
}

type handlers struct {
	registry *widget.Registry
	page     PageConfig
}

// searchRequest is the body of POST /api/v1/search.
type searchRequest struct {
	City string `json:"city" validate:"required,max=200"`
}

// widgetFor returns the caller's widget, issuing a cookie for new ones.
func (h *handlers) widgetFor(c *fiber.Ctx) *widget.Controller {
	id, ctrl, created := h.registry.Get(c.Cookies(WidgetCookie))
	if created {
		c.Cookie(&fiber.Cookie{
			Name:     WidgetCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	return ctrl
}

func (h *handlers) index(c *fiber.Ctx) error {
	ctrl := h.widgetFor(c)
	return renderPage(c, pageData{
		QuickPicks:      h.page.QuickPicks,
		View:            ctrl.View(),
		RelayoutDelayMs: h.page.RelayoutDelay.Milliseconds(),
	})
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "weather-widget",
		"widgets": h.registry.Len(),
	})
}

func (h *handlers) view(c *fiber.Ctx) error {
	return c.JSON(h.widgetFor(c).View())
}

func (h *handlers) search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	v, err := h.widgetFor(c).Search(c.UserContext(), req.City)
	return respond(c, v, err)
}

func (h *handlers) quickPick(c *fiber.Ctx) error {
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid city")
	}
	v, err := h.widgetFor(c).QuickPick(c.UserContext(), city)
	return respond(c, v, err)
}

// respond writes the view. Lookup failures are part of the view; only a
// rejected input becomes an HTTP error.
func respond(c *fiber.Ctx, v widget.View, err error) error {
	if errors.Is(err, weather.ErrEmptyCity) {
		return fiber.NewError(fiber.StatusBadRequest, "city must not be empty")
	}
	if err != nil {
		return err
	}
	return c.JSON(v)
}

func (h *handlers) refresh(c *fiber.Ctx) error {
	return c.JSON(h.widgetFor(c).Refresh(c.UserContext()))
}
