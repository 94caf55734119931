package routing

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/travel-engine/travel"
)

// Estimator combines a Router and a Classifier into a travel.Estimator.
type Estimator struct {
	router     Router
	classifier Classifier
}

var _ travel.Estimator = (*Estimator)(nil)

func NewEstimator(router Router, classifier Classifier) *Estimator {
	return &Estimator{router: router, classifier: classifier}
}

// Estimate returns kilometres to two decimals and whole minutes rounded up.
// The applicable band is the more remote of the two endpoints.
func (e *Estimator) Estimate(ctx context.Context, origin, destination string) (travel.Estimate, error) {
	route, err := e.router.Route(ctx, origin, destination)
	if err != nil {
		return travel.Estimate{}, err
	}

	ob := e.classifier.Classify(origin)
	db := e.classifier.Classify(destination)
	return travel.Estimate{
		DistanceKm:      decimal.New(int64(route.DistanceMeters), -3).Round(2),
		TravelMinutes:   int(math.Ceil(route.Duration.Minutes())),
		OriginBand:      ob,
		DestinationBand: db,
		Band:            travel.MoreRemote(ob, db),
	}, nil
}
