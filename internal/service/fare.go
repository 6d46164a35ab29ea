package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"ridehail/internal/domain"
	"ridehail/internal/maps"
)

// DefaultCurrency is used when no fare currency is configured.
const DefaultCurrency = "INR"

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (domain.Location, error)
}

// RouteEstimator estimates the route between two points.
type RouteEstimator interface {
	Estimate(ctx context.Context, from, to domain.Location) (maps.Route, error)
}

// Rate is the price of a vehicle class in major currency units.
type Rate struct {
	Base      float64
	PerKm     float64
	PerMinute float64
}

// DefaultRates is the fare table per vehicle class.
var DefaultRates = map[domain.VehicleType]Rate{
	domain.VehicleAuto: {Base: 30, PerKm: 10, PerMinute: 2},
	domain.VehicleCar:  {Base: 50, PerKm: 15, PerMinute: 3},
	domain.VehicleMoto: {Base: 20, PerKm: 8, PerMinute: 1.5},
}

// FareService prices routes. It never reads or writes ride state.
type FareService struct {
	geocoder Geocoder
	routes   RouteEstimator
	rates    map[domain.VehicleType]Rate
	currency string
}

// NewFareService creates a new FareService.
func NewFareService(geocoder Geocoder, routes RouteEstimator, currency string) *FareService {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &FareService{
		geocoder: geocoder,
		routes:   routes,
		rates:    DefaultRates,
		currency: currency,
	}
}

// FareQuote prices one route for every vehicle class.
type FareQuote struct {
	Pickup          domain.Location
	Destination     domain.Location
	DistanceMeters  int
	DurationSeconds int
	Fares           map[domain.VehicleType]domain.Money
}

// RouteFare is the fare of one vehicle class over a resolved route.
type RouteFare struct {
	Fare            domain.Money
	DistanceMeters  int
	DurationSeconds int
}

// CarpoolQuoteRequest contains the parameters for a per-seat quote.
type CarpoolQuoteRequest struct {
	Pickup      string
	Destination string
	Seats       int
	RideType    domain.RideType
	VehicleType domain.VehicleType // Optional: defaults to car
}

// FareBreakdown is a base fare and its per-seat shares.
type FareBreakdown struct {
	VehicleType     domain.VehicleType
	RideType        domain.RideType
	Seats           int
	DistanceMeters  int
	DurationSeconds int
	Total           domain.Money
	Shares          []domain.Money
}

// Locate geocodes pickup and destination concurrently.
func (s *FareService) Locate(ctx context.Context, pickup, destination string) (domain.Location, domain.Location, error) {
	if pickup == "" {
		return domain.Location{}, domain.Location{}, ErrInvalidPickupLocation
	}
	if destination == "" {
		return domain.Location{}, domain.Location{}, ErrInvalidDestinationLocation
	}

	var from, to domain.Location
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loc, err := s.geocoder.Resolve(gctx, pickup)
		if err != nil {
			return locateError("pickup", err)
		}
		from = loc
		return nil
	})
	g.Go(func() error {
		loc, err := s.geocoder.Resolve(gctx, destination)
		if err != nil {
			return locateError("destination", err)
		}
		to = loc
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Location{}, domain.Location{}, err
	}

	return from, to, nil
}

// Quote returns the fare of every vehicle class between two addresses.
func (s *FareService) Quote(ctx context.Context, pickup, destination string) (*FareQuote, error) {
	from, to, err := s.Locate(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	route, err := s.routes.Estimate(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("estimate route: %w", err)
	}

	fares := make(map[domain.VehicleType]domain.Money, len(s.rates))
	for vehicle := range s.rates {
		fares[vehicle] = s.Price(vehicle, route)
	}

	return &FareQuote{
		Pickup:          from,
		Destination:     to,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Fares:           fares,
	}, nil
}

// QuoteRoute prices one vehicle class between already resolved locations.
func (s *FareService) QuoteRoute(ctx context.Context, pickup, destination domain.Location, vehicle domain.VehicleType) (*RouteFare, error) {
	if _, ok := s.rates[vehicle]; !ok {
		return nil, ErrInvalidVehicleType
	}

	route, err := s.routes.Estimate(ctx, pickup, destination)
	if err != nil {
		return nil, fmt.Errorf("estimate route: %w", err)
	}

	return &RouteFare{
		Fare:            s.Price(vehicle, route),
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
	}, nil
}

// QuoteCarpool prices a route and splits it into per-seat shares.
func (s *FareService) QuoteCarpool(ctx context.Context, req CarpoolQuoteRequest) (*FareBreakdown, error) {
	vehicle := req.VehicleType
	if vehicle == "" {
		vehicle = domain.VehicleCar
	}
	if _, ok := s.rates[vehicle]; !ok {
		return nil, ErrInvalidVehicleType
	}

	rideType := req.RideType
	if rideType == "" {
		rideType = domain.RideTypeCarpool
	}
	if !rideType.Valid() {
		return nil, ErrInvalidRideType
	}

	seats, err := seatCount(rideType, vehicle, req.Seats)
	if err != nil {
		return nil, err
	}

	from, to, err := s.Locate(ctx, req.Pickup, req.Destination)
	if err != nil {
		return nil, err
	}

	route, err := s.routes.Estimate(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("estimate route: %w", err)
	}

	total := s.Price(vehicle, route)
	shares := []domain.Money{total}
	if rideType == domain.RideTypeCarpool {
		shares, err = SplitFare(total, seats)
		if err != nil {
			return nil, err
		}
	}

	return &FareBreakdown{
		VehicleType:     vehicle,
		RideType:        rideType,
		Seats:           seats,
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Total:           total,
		Shares:          shares,
	}, nil
}

// Price applies the rate table to a route, rounded to a whole major unit.
func (s *FareService) Price(vehicle domain.VehicleType, route maps.Route) domain.Money {
	rate := s.rates[vehicle]
	km := float64(route.DistanceMeters) / 1000
	minutes := float64(route.DurationSeconds) / 60

	major := math.Round(rate.Base + rate.PerKm*km + rate.PerMinute*minutes)
	return domain.Money{Amount: int64(major) * 100, Currency: s.currency}
}

// SplitFare divides total into n shares whose sum is exactly total. The
// remainder goes one minor unit at a time to the first shares.
func SplitFare(total domain.Money, n int) ([]domain.Money, error) {
	if n <= 0 {
		return nil, ErrInvalidSeatCount
	}

	each := total.Amount / int64(n)
	remainder := total.Amount % int64(n)

	shares := make([]domain.Money, n)
	for i := range shares {
		amount := each
		if int64(i) < remainder {
			amount++
		}
		shares[i] = domain.Money{Amount: amount, Currency: total.Currency}
	}
	return shares, nil
}

// locateError reports an unknown address as ErrGeocodeUnresolved and passes
// provider faults through unclassified.
func locateError(side string, err error) error {
	if errors.Is(err, maps.ErrUnresolvable) {
		return fmt.Errorf("%w: %s: %w", ErrGeocodeUnresolved, side, err)
	}
	return fmt.Errorf("geocode %s: %w", side, err)
}

// seatCount validates seats against the vehicle's capacity. Solo rides
// default to one seat.
func seatCount(rideType domain.RideType, vehicle domain.VehicleType, seats int) (int, error) {
	if seats == 0 && rideType == domain.RideTypeSolo {
		return 1, nil
	}
	if seats <= 0 || seats > vehicle.Capacity() {
		return 0, ErrInvalidSeatCount
	}
	return seats, nil
}
