package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-widget/internal/weather"
)

const bandungPayload = `{
	"coord": {"lon": 107.6186, "lat": -6.9039},
	"weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
	"main": {"temp": 26.5, "feels_like": 27.0, "pressure": 1013, "humidity": 80},
	"visibility": 10000,
	"wind": {"speed": 2.1},
	"dt": 1760500000,
	"sys": {"country": "ID"},
	"timezone": 25200,
	"name": "Bandung",
	"cod": 200
}`

func newTestProvider(t *testing.T, h http.HandlerFunc) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenWeatherProvider(HTTPClientConfig{Client: srv.Client()}, "test-key", srv.URL)
}

func TestOpenWeatherCurrentSuccess(t *testing.T) {
	var gotQuery atomic.Value
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bandungPayload))
	})

	r, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := gotQuery.Load().(url.Values)
	if q.Get("q") != "Bandung" || q.Get("appid") != "test-key" || q.Get("units") != "metric" {
		t.Fatalf("unexpected query: %v", q)
	}

	if r.City != "Bandung" || r.Country != "ID" {
		t.Fatalf("unexpected location: %s, %s", r.City, r.Country)
	}
	if r.UTCOffsetSec != 25200 || r.PressureHpa != 1013 || r.VisibilityM != 10000 || r.HumidityPct != 80 {
		t.Fatalf("unexpected numeric fields: %+v", r)
	}
	if r.Icon != "04d" || r.Description != "broken clouds" || r.Condition != weather.ConditionCloudy {
		t.Fatalf("unexpected condition fields: %+v", r)
	}
	if r.Coord.Lat != -6.9039 || r.Coord.Lon != 107.6186 {
		t.Fatalf("unexpected coordinate: %+v", r.Coord)
	}
	if !r.ObservedAt.Equal(time.Unix(1760500000, 0)) {
		t.Fatalf("unexpected observation time: %v", r.ObservedAt)
	}
}

func TestOpenWeatherCityIsEscaped(t *testing.T) {
	var raw string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		raw = r.URL.RawQuery
		_, _ = w.Write([]byte(bandungPayload))
	})

	if _, err := p.Current(context.Background(), weather.Query{City: "São Paulo&x=1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(raw, "&x=1") || !strings.Contains(raw, "q=S%C3%A3o+Paulo%26x%3D1") {
		t.Fatalf("city not escaped: %s", raw)
	}
}

func TestOpenWeatherNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := p.Current(context.Background(), weather.Query{City: "Atlantis"})
	if !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if msg := weather.UserMessage(err); !strings.Contains(msg, "Atlantis") {
		t.Fatalf("message should name the city: %q", msg)
	}
}

func TestOpenWeatherStatusError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
	if !errors.Is(err, weather.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if msg := weather.UserMessage(err); msg != "Network response was not ok Unauthorized" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestOpenWeatherServerErrorReportsStatus(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
	if !errors.Is(err, weather.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if msg := weather.UserMessage(err); msg != "Network response was not ok Bad Gateway" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestOpenWeatherMalformedBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "Bandung", `))
	})

	_, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
	if !errors.Is(err, weather.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	var le *weather.LookupError
	if !errors.As(err, &le) || le.Err == nil {
		t.Fatalf("expected decode cause to be kept, got %#v", err)
	}
}

func TestOpenWeatherNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	p := NewOpenWeatherProvider(HTTPClientConfig{Client: &http.Client{Timeout: time.Second}}, "test-key", addr)
	_, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
	if !errors.Is(err, weather.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if le := new(weather.LookupError); !errors.As(err, &le) || le.Status != 0 {
		t.Fatalf("expected no status for network failure, got %v", err)
	}
}

func TestOpenWeatherSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, _ = p.Current(context.Background(), weather.Query{City: "Bandung"})
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", got)
	}
}

func TestOpenWeatherMissingKey(t *testing.T) {
	p := NewOpenWeatherProvider(HTTPClientConfig{Client: http.DefaultClient}, "", "http://127.0.0.1:0")
	_, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
	if !errors.Is(err, weather.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestOpenWeatherEmptyPayload(t *testing.T) {
	for _, body := range []string{`{}`, `null`, `{"name": "Bandung", "weather": []}`} {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
		if !errors.Is(err, weather.ErrTransport) {
			t.Errorf("body %s: expected ErrTransport, got %v", body, err)
			continue
		}
		if msg := weather.UserMessage(err); msg != "Received an unreadable response from the weather service." {
			t.Errorf("body %s: unexpected message %q", body, msg)
		}
	}
}

func TestCancelledLookupsDoNotTripBreaker(t *testing.T) {
	started := make(chan struct{}, 16)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Slow" {
			started <- struct{}{}
			select {
			case <-r.Context().Done():
				return
			case <-release:
			}
		}
		_, _ = w.Write([]byte(bandungPayload))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	p := NewOpenWeatherProvider(HTTPClientConfig{Client: srv.Client()}, "test-key", srv.URL)

	for i := 0; i < 6; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := p.Current(ctx, weather.Query{City: "Slow"})
			done <- err
		}()
		<-started
		cancel()
		if err := <-done; !errors.Is(err, weather.ErrTransport) || !errors.Is(err, context.Canceled) {
			t.Fatalf("lookup %d: expected a cancelled transport error, got %v", i, err)
		}
	}

	r, err := p.Current(context.Background(), weather.Query{City: "Bandung"})
	if err != nil {
		t.Fatalf("cancelled lookups opened the breaker: %v", err)
	}
	if r.City != "Bandung" {
		t.Fatalf("unexpected reading: %+v", r)
	}
}
