// Package maps adapts the Google Maps Platform to the geocoding and route
// estimation the fare and dispatch paths need.
package maps

import (
	"fmt"

	"googlemaps.github.io/maps"
)

// NewClient creates a Google Maps client. An empty key returns a nil client,
// which puts the geocoder and estimator in offline mode.
func NewClient(apiKey string) (*maps.Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}
