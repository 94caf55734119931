package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/warp/travel-engine/travel"
)

// =============================================================================
// GOOGLE MAPS DISTANCE MATRIX
// =============================================================================

const googleProvider = "google_maps"

// Statuses the provider may clear on its own.
var transientStatuses = []string{"OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "UNKNOWN_ERROR"}

type GoogleRouter struct {
	client   *maps.Client
	language string
}

// NewGoogleRouter creates a driving, metric Distance Matrix router.
func NewGoogleRouter(apiKey, language string) (*GoogleRouter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	return &GoogleRouter{client: client, language: language}, nil
}

func (g *GoogleRouter) Route(ctx context.Context, origin, destination string) (Route, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsMetric,
		Language:     g.language,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return Route{}, classifyRequestError(err, origin, destination)
	}
	return routeFromMatrix(resp, origin, destination)
}

// routeFromMatrix reads the single element of a 1x1 matrix.
func routeFromMatrix(resp *maps.DistanceMatrixResponse, origin, destination string) (Route, error) {
	fail := func(err error) (Route, error) {
		return Route{}, &travel.ProviderError{
			Provider:    googleProvider,
			Origin:      origin,
			Destination: destination,
			Err:         err,
		}
	}

	if resp == nil || len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return fail(errors.New("empty distance matrix"))
	}
	el := resp.Rows[0].Elements[0]
	if el == nil {
		return fail(errors.New("empty distance matrix element"))
	}
	if el.Status != "OK" {
		return fail(fmt.Errorf("element status %s", el.Status))
	}
	if el.Distance.Meters < 0 || el.Duration < 0 {
		return fail(fmt.Errorf("negative route (%dm, %s)", el.Distance.Meters, el.Duration))
	}
	return Route{DistanceMeters: el.Distance.Meters, Duration: el.Duration}, nil
}

// classifyRequestError wraps client errors. Cancellation is never retried;
// throttling and transport failures are.
func classifyRequestError(err error, origin, destination string) error {
	retryable := true
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		retryable = false
	case strings.HasPrefix(err.Error(), "maps: "):
		// API-level status, e.g. "maps: REQUEST_DENIED - ..."
		retryable = false
		for _, s := range transientStatuses {
			if strings.Contains(err.Error(), s) {
				retryable = true
				break
			}
		}
	}
	return &travel.ProviderError{
		Provider:    googleProvider,
		Origin:      origin,
		Destination: destination,
		Retryable:   retryable,
		Err:         err,
	}
}
