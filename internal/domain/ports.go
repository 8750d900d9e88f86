package domain

import "context"

type PlaceRepository interface {
	// Write paths
	UpsertPlace(ctx context.Context, p PlaceRecord) error
	LogMiss(ctx context.Context, sheet, query string, status int, reason string) error

	// Read paths
	GetPlace(ctx context.Context, placeID string) (PlaceView, error)
	ListPlaces(ctx context.Context, q PlacesQuery) (PlacesPage, error)
}

type PlacesClient interface {
	FindPlaceIDs(ctx context.Context, query string) ([]string, error)
	GetDetails(ctx context.Context, placeID string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries
type PlaceView struct {
	PlaceID           string            `json:"place_id"`
	Sheet             string            `json:"sheet"`
	Name              string            `json:"name"`
	AddressLines      []string          `json:"address_lines,omitempty"`
	City              *string           `json:"city,omitempty"`
	Postcode          *string           `json:"postcode,omitempty"`
	Phone             string            `json:"phone,omitempty"`
	Coords            Coords            `json:"coords"`
	OpeningHoursKnown bool              `json:"opening_hours_known"`
	Hours             map[string]string `json:"hours,omitempty"` // "mon_open" -> "09:00"
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PlacesQuery struct {
	Sheet *string
	Limit int
}

type PlacesPage struct {
	Items []PlaceView `json:"items"`
}
