package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-widget/internal/mapview"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/widget"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *countingFetcher) Name() string { return "counting" }

func (f *countingFetcher) Current(_ context.Context, q weather.Query) (weather.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[q.City]++
	return weather.Reading{City: q.City, Icon: "01d"}, nil
}

func TestRefreshAllRefreshesEveryWidget(t *testing.T) {
	f := &countingFetcher{calls: map[string]int{}}
	reg := widget.NewRegistry(func() *widget.Controller {
		return widget.NewController(f, widget.Options{
			Map: mapview.Options{Schedule: func(time.Duration, func()) {}},
		})
	}, time.Hour)

	_, a, _ := reg.Get("")
	_, b, _ := reg.Get("")
	if _, err := b.QuickPick(context.Background(), "Jakarta"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := New(reg, time.Minute, time.Second)
	s.RefreshAll()

	if f.calls["Bandung"] != 1 || f.calls["Jakarta"] != 2 {
		t.Fatalf("unexpected upstream calls: %v", f.calls)
	}
	if a.View().State != widget.StateSuccess || b.View().Display.City != "Jakarta" {
		t.Fatalf("widgets not refreshed: %+v / %+v", a.View(), b.View())
	}
}

func TestStartAndStop(t *testing.T) {
	reg := widget.NewRegistry(func() *widget.Controller { return nil }, time.Hour)
	s := New(reg, 0, time.Second)
	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	s.Stop()
}
