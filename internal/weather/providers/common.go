package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// HTTPClientConfig bundles the HTTP client and breaker settings used by a provider.
// One lookup is one request; nothing is retried.
type HTTPClientConfig struct {
	Client  *http.Client
	Breaker gobreaker.Settings
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errServerError  = errors.New("server error")
)

// defaultBreakerSettings trips after five consecutive upstream failures and
// probes again after half a minute.
func defaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isBreakerSuccess,
	}
}

// isBreakerSuccess reports whether err leaves the breaker's failure count
// alone. A request cancelled by its caller was superseded, not failed.
func isBreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// doRequest executes the request exactly once through the circuit breaker.
// Only transport failures and 5xx responses count against the breaker;
// every other response is handed back to the caller to classify.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	_, err = cb.Execute(func() (interface{}, error) {
		r, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		resp = r
		if r.StatusCode >= 500 {
			return nil, errServerError
		}
		return nil, nil
	})

	// A 5xx is still a response the caller reports by status text.
	if resp != nil && errors.Is(err, errServerError) {
		return resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(errCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
