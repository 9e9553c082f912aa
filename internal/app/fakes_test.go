package app_test

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"cleanplate/internal/domain"
)

// ---- shared fakes ----

type fakeRepo struct {
	mu          sync.Mutex
	restaurants map[domain.Identity]domain.Restaurant
	inspections map[domain.Identity][]domain.Inspection
	reviews     []domain.UserReview
	skips       []string
	failUpsert  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		restaurants: map[domain.Identity]domain.Restaurant{},
		inspections: map[domain.Identity][]domain.Inspection{},
	}
}

func (f *fakeRepo) UpsertRestaurant(ctx context.Context, r domain.Restaurant) error {
	if f.failUpsert {
		return errors.New("disk on fire")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restaurants[r.Identity] = r
	return nil
}

func (f *fakeRepo) AppendInspections(ctx context.Context, id domain.Identity, ins []domain.Inspection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// mimic the store's dedupe guard on (date, grade)
	seen := map[string]bool{}
	for _, in := range f.inspections[id] {
		seen[in.Date.String()+string(in.Grade)] = true
	}
	for _, in := range ins {
		k := in.Date.String() + string(in.Grade)
		if !seen[k] {
			seen[k] = true
			f.inspections[id] = append(f.inspections[id], in)
		}
	}
	return nil
}

func (f *fakeRepo) LogSkip(ctx context.Context, jurisdiction string, status int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skips = append(f.skips, jurisdiction)
	return nil
}

func (f *fakeRepo) DeleteRestaurant(ctx context.Context, id domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.restaurants, id)
	return nil
}

func (f *fakeRepo) AddReview(ctx context.Context, rv domain.UserReview) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv.ID = int64(len(f.reviews) + 1)
	f.reviews = append(f.reviews, rv)
	return rv.ID, nil
}

func (f *fakeRepo) ListReviews(ctx context.Context, id domain.Identity, pg domain.PageQuery) (domain.ReviewsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.UserReview
	for _, rv := range f.reviews {
		if rv.RestaurantKey == id {
			out = append(out, rv)
		}
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (f *fakeRepo) GetRestaurant(ctx context.Context, id domain.Identity) (domain.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.restaurants[id]
	if !ok {
		return domain.Restaurant{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) ListRestaurants(ctx context.Context, q domain.RestaurantsQuery) (domain.RestaurantsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Restaurant
	for _, r := range f.restaurants {
		if q.Jurisdiction != nil && r.Jurisdiction != *q.Jurisdiction {
			continue
		}
		out = append(out, r)
	}
	return domain.RestaurantsPage{Items: out}, nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.Restaurant:
		*d = v.(domain.Restaurant)
	case *domain.RestaurantsPage:
		*d = v.(domain.RestaurantsPage)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// fakeFetcher serves canned rows per endpoint; an endpoint mapped to an
// error simulates a network failure for that jurisdiction.
type fakeFetcher struct {
	mu    sync.Mutex
	rows  map[string][]map[string]any
	fails map[string]error
	calls map[string]int
}

func (f *fakeFetcher) Fetch(ctx context.Context, endpoint string, params url.Values) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[endpoint]++
	if err, ok := f.fails[endpoint]; ok {
		return nil, err
	}
	// single page: first call returns everything, next returns empty
	if f.calls[endpoint] > 1 {
		return nil, nil
	}
	return f.rows[endpoint], nil
}

// ---- tiny helpers ----

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
