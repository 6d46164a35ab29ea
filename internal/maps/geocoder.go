package maps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"

	"ridehail/internal/domain"
)

// ErrUnresolvable is returned when an address cannot be turned into coordinates.
var ErrUnresolvable = errors.New("address could not be resolved")

// Geocoder resolves free-text addresses. "lat,lng" literals are parsed locally;
// anything else goes to the Google Geocoding API.
type Geocoder struct {
	client *maps.Client
}

// NewGeocoder creates a Geocoder. client may be nil.
func NewGeocoder(client *maps.Client) *Geocoder {
	return &Geocoder{client: client}
}

// Resolve returns the location for address. The returned Address is the
// caller's text, not the provider's formatted one.
func (g *Geocoder) Resolve(ctx context.Context, address string) (domain.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Location{}, ErrUnresolvable
	}

	if loc, ok := ParseCoordinates(address); ok {
		return loc, nil
	}

	if g.client == nil {
		return domain.Location{}, fmt.Errorf("%w: %q (no geocoding provider configured)", ErrUnresolvable, address)
	}

	// ZERO_RESULTS comes back as an empty slice; any error here is a
	// transport or provider fault, not a bad address.
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode: %w", err)
	}
	if len(results) == 0 {
		return domain.Location{}, fmt.Errorf("%w: %q", ErrUnresolvable, address)
	}

	point := results[0].Geometry.Location
	return domain.Location{Address: address, Lat: point.Lat, Lng: point.Lng}, nil
}

// ParseCoordinates parses a "lat,lng" literal within WGS84 bounds.
func ParseCoordinates(s string) (domain.Location, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Location{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Location{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Location{}, false
	}

	loc := domain.Location{Address: s, Lat: lat, Lng: lng}
	if !loc.Valid() {
		return domain.Location{}, false
	}
	return loc, true
}
