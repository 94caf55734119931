/*
Package routing turns two street addresses into a travel estimate.

PURPOSE:
  travel.Service asks an Estimator for {distance, minutes, band}. This
  package builds that Estimator from smaller pieces so each concern can be
  swapped or tested alone:

    Estimator
      ├─ Router (distance + duration)
      │    CachedRouter   -> RouteCache (Redis)
      │    RetryingRouter -> exponential backoff on retryable failures
      │    GoogleRouter   -> Google Maps Distance Matrix
      └─ Classifier (address -> remoteness band)
           PostcodeClassifier -> YAML postcode range table

ERRORS:
  Routers return *travel.ProviderError. Retryable is set for transport
  failures and provider throttling; element-level failures such as
  NOT_FOUND or ZERO_RESULTS are permanent.

SEE ALSO:
  - travel/service.go: Consumer of travel.Estimator
  - travel/errors.go: ProviderError
*/
package routing

import (
	"context"
	"time"
)

// Route is the provider's answer for one origin/destination pair.
type Route struct {
	DistanceMeters int           `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
}

// Router computes a driving route between two addresses.
type Router interface {
	Route(ctx context.Context, origin, destination string) (Route, error)
}

// RouterFunc adapts a function to Router.
type RouterFunc func(ctx context.Context, origin, destination string) (Route, error)

func (f RouterFunc) Route(ctx context.Context, origin, destination string) (Route, error) {
	return f(ctx, origin, destination)
}
