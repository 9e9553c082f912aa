package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cleanplate/internal/domain"
)

const defaultListLimit = 50

// QueryService is the read-only surface over canonical records and
// reviews, with read-through caching in front of the repository.
type QueryService struct {
	repo     domain.InspectionRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.InspectionRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetRestaurant(ctx context.Context, id domain.Identity) (domain.Restaurant, error) {
	key := "restaurant:" + id.Key()
	var r domain.Restaurant
	if ok, _ := s.cache.Get(ctx, key, &r); ok {
		return r, nil
	}
	r, err := s.repo.GetRestaurant(ctx, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	_ = s.cache.Set(ctx, key, r, int(s.cacheTTL.Seconds()))
	return r, nil
}

func (s *QueryService) ListRestaurants(ctx context.Context, q domain.RestaurantsQuery) (domain.RestaurantsPage, error) {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	key := listCacheKey(q)
	var out domain.RestaurantsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	page, err := s.repo.ListRestaurants(ctx, q)
	if err != nil {
		return domain.RestaurantsPage{}, err
	}

	// copy to avoid aliasing the repo's backing array into the cache
	cp := domain.RestaurantsPage{Items: append([]domain.Restaurant(nil), page.Items...)}
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return cp, nil
}

func (s *QueryService) ListReviews(ctx context.Context, id domain.Identity, pg domain.PageQuery) (domain.ReviewsPage, error) {
	if pg.Limit <= 0 {
		pg.Limit = defaultListLimit
	}
	// Reviews are written by users at any time; serve them straight from
	// the store so a fresh submission is visible immediately.
	return s.repo.ListReviews(ctx, id, pg)
}

func listCacheKey(q domain.RestaurantsQuery) string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	grade := ""
	if q.Grade != nil {
		grade = string(*q.Grade)
	}
	after := ""
	if q.InspectedAfter != nil {
		after = q.InspectedAfter.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("restaurants:%s:%s:%s:%s:%s:%d",
		deref(q.Jurisdiction), grade, deref(q.Cuisine), deref(q.Search), after, q.Limit)
}
