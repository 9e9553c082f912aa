package domain

import (
	"context"
	"net/url"
	"time"
)

type InspectionRepository interface {
	// Write paths (owned by the ingestion orchestrator)
	UpsertRestaurant(ctx context.Context, r Restaurant) error
	AppendInspections(ctx context.Context, id Identity, ins []Inspection) error
	LogSkip(ctx context.Context, jurisdiction string, status int, reason string) error
	DeleteRestaurant(ctx context.Context, id Identity) error

	// Review store (owned by the review service)
	AddReview(ctx context.Context, rv UserReview) (int64, error)
	ListReviews(ctx context.Context, id Identity, pg PageQuery) (ReviewsPage, error)

	// Read paths
	GetRestaurant(ctx context.Context, id Identity) (Restaurant, error)
	ListRestaurants(ctx context.Context, q RestaurantsQuery) (RestaurantsPage, error)
}

// Fetcher is the external HTTP collaborator: one paged GET against a
// jurisdiction's open-data endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

type RestaurantsQuery struct {
	Jurisdiction   *string
	Grade          *Grade
	Cuisine        *string
	Search         *string // matched against name
	InspectedAfter *time.Time
	Limit          int
}

type PageQuery struct {
	Limit int
	Sort  string
}

type RestaurantsPage struct {
	Items []Restaurant
}

type ReviewsPage struct {
	Items []UserReview
}
