package widget

import (
	"github.com/i474232898/weather-widget/internal/mapview"
	"github.com/i474232898/weather-widget/internal/render"
)

// State is the mutually exclusive display mode of a widget.
type State string

const (
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Regions tells the page which surface is visible. Exactly one is true.
type Regions struct {
	Loading bool `json:"loading"`
	Error   bool `json:"error"`
	Success bool `json:"success"`
}

// View is what the page renders: the active state and its payload.
type View struct {
	State      State           `json:"state"`
	Regions    Regions         `json:"regions"`
	City       string          `json:"city"`
	Generation uint64          `json:"generation"`
	Display    *render.Display `json:"display,omitempty"`
	Error      string          `json:"error,omitempty"`
	Map        mapview.State   `json:"map"`
}

func loadingView(city string, gen uint64) View {
	return View{
		State:      StateLoading,
		Regions:    Regions{Loading: true},
		City:       city,
		Generation: gen,
	}
}

func successView(city string, gen uint64, d render.Display) View {
	return View{
		State:      StateSuccess,
		Regions:    Regions{Success: true},
		City:       city,
		Generation: gen,
		Display:    &d,
	}
}

func errorView(city string, gen uint64, message string) View {
	return View{
		State:      StateError,
		Regions:    Regions{Error: true},
		City:       city,
		Generation: gen,
		Error:      message,
	}
}
