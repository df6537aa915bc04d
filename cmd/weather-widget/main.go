package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-widget/internal/api/http"
	"github.com/i474232898/weather-widget/internal/config"
	"github.com/i474232898/weather-widget/internal/logging"
	"github.com/i474232898/weather-widget/internal/mapview"
	"github.com/i474232898/weather-widget/internal/metrics"
	"github.com/i474232898/weather-widget/internal/render"
	"github.com/i474232898/weather-widget/internal/scheduler"
	"github.com/i474232898/weather-widget/internal/weather/providers"
	"github.com/i474232898/weather-widget/internal/widget"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "weather-widget",
		Short:         "City weather lookup with a map",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the widget web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	lookupCmd := &cobra.Command{
		Use:   "lookup [city]",
		Short: "Look up the current weather for a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			return lookup(cmd.Context(), cfg, args[0], output)
		},
	}
	lookupCmd.Flags().StringP("output", "o", "text", "Output format (text, json)")

	rootCmd.AddCommand(serveCmd, lookupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// newWidgetFactory builds widgets that share one provider and renderer.
func newWidgetFactory(cfg *config.AppConfig) func() *widget.Controller {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	fetcher := providers.NewOpenWeatherProvider(
		providers.HTTPClientConfig{Client: httpClient},
		cfg.OpenWeatherAPIKey,
		cfg.OpenWeatherBaseURL,
	)
	renderer := render.New(cfg.IconBaseURL, time.Local)

	return func() *widget.Controller {
		return widget.NewController(fetcher, widget.Options{
			DefaultCity: cfg.DefaultCity,
			Renderer:    renderer,
			Map: mapview.Options{
				Zoom:          cfg.MapZoom,
				RelayoutDelay: cfg.RelayoutDelay,
				Tiles:         mapview.TileLayer{URL: cfg.TileURL},
			},
		})
	}
}

func serve(cfg *config.AppConfig) error {
	registry := widget.NewRegistry(newWidgetFactory(cfg), cfg.WidgetMaxIdle)

	sched := scheduler.New(registry, cfg.RefreshInterval, cfg.HTTPTimeout)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-widget",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	httpapi.RegisterRoutes(app, registry, httpapi.PageConfig{
		QuickPicks:    cfg.QuickPicks,
		RelayoutDelay: cfg.RelayoutDelay,
	})

	go func() {
		slog.Info("server starting", "port", cfg.Port, "default_city", cfg.DefaultCity)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func lookup(ctx context.Context, cfg *config.AppConfig, city, output string) error {
	ctrl := newWidgetFactory(cfg)()

	v, err := ctrl.Search(ctx, city)
	if err != nil {
		return err
	}
	if v.State != widget.StateSuccess {
		return errors.New(v.Error)
	}

	if output == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	d := v.Display
	fmt.Printf("%s, %s  (%s, %s)\n", d.City, d.Country, d.LocalTime, d.Timezone)
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Temperature: %s  %s\n", d.Temperature, d.FeelsLike)
	fmt.Printf("Conditions:  %s\n", d.Description)
	fmt.Printf("Humidity:    %s\n", d.Humidity)
	fmt.Printf("Wind:        %s\n", d.WindSpeed)
	fmt.Printf("Pressure:    %s\n", d.Pressure)
	fmt.Printf("Visibility:  %s\n", d.Visibility)
	fmt.Printf("Location:    %.4f, %.4f\n", d.Coord.Lat, d.Coord.Lon)
	fmt.Printf("Icon:        %s\n", d.IconURL)
	fmt.Printf("Updated:     %s\n", d.LastUpdated)
	return nil
}
