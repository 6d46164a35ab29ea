package maps

import (
	"context"
	"fmt"
	"log"
	"math"

	"googlemaps.github.io/maps"

	"ridehail/internal/domain"
)

const (
	earthRadiusMeters = 6371000.0

	// DefaultAverageSpeedKmh is the city speed assumed when no provider is configured.
	DefaultAverageSpeedKmh = 25.0
)

// Route is the distance and duration between two points.
type Route struct {
	DistanceMeters  int
	DurationSeconds int
}

// RouteEstimator estimates driving routes with the Distance Matrix API and
// falls back to great-circle distance at a fixed average speed.
type RouteEstimator struct {
	client          *maps.Client
	averageSpeedKmh float64
}

// NewRouteEstimator creates a RouteEstimator. client may be nil.
func NewRouteEstimator(client *maps.Client, averageSpeedKmh float64) *RouteEstimator {
	if averageSpeedKmh <= 0 {
		averageSpeedKmh = DefaultAverageSpeedKmh
	}
	return &RouteEstimator{client: client, averageSpeedKmh: averageSpeedKmh}
}

// Estimate returns the route from one location to another.
func (e *RouteEstimator) Estimate(ctx context.Context, from, to domain.Location) (Route, error) {
	if e.client == nil {
		return e.straightLine(from, to), nil
	}

	route, err := e.distanceMatrix(ctx, from, to)
	if err != nil {
		log.Printf("[MAPS] distance matrix failed, using straight line: %v", err)
		return e.straightLine(from, to), nil
	}
	return route, nil
}

func (e *RouteEstimator) distanceMatrix(ctx context.Context, from, to domain.Location) (Route, error) {
	r := &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(from)},
		Destinations: []string{latLng(to)},
		Mode:         maps.TravelModeDriving,
	}

	resp, err := e.client.DistanceMatrix(ctx, r)
	if err != nil {
		return Route{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return Route{}, fmt.Errorf("no route found")
	}

	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return Route{}, fmt.Errorf("no route found: %s", el.Status)
	}

	return Route{
		DistanceMeters:  el.Distance.Meters,
		DurationSeconds: int(el.Duration.Seconds()),
	}, nil
}

func (e *RouteEstimator) straightLine(from, to domain.Location) Route {
	meters := HaversineMeters(from.Lat, from.Lng, to.Lat, to.Lng)
	seconds := meters / (e.averageSpeedKmh * 1000 / 3600)
	return Route{
		DistanceMeters:  int(math.Round(meters)),
		DurationSeconds: int(math.Round(seconds)),
	}
}

func latLng(l domain.Location) string {
	return fmt.Sprintf("%f,%f", l.Lat, l.Lng)
}

// HaversineMeters returns the great-circle distance between two points
// specified in decimal degrees.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
