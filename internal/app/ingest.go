package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"cleanplate/internal/adapters/observability"
	"cleanplate/internal/domain"
	"cleanplate/internal/shared"
)

type IngestOptions struct {
	Workers      int
	FetchLimit   int // max rows per jurisdiction per run
	PageSize     int
	FetchTimeout time.Duration // per jurisdiction; timeout counts as a fetch failure
}

// IngestService runs one ingestion pass: fetch every configured
// jurisdiction in parallel, adapt, normalize once, persist. It is the
// sole writer of restaurants and inspections.
type IngestService struct {
	fetch         domain.Fetcher
	repo          domain.InspectionRepository
	cache         domain.Cache
	jurisdictions []shared.Jurisdiction
	adapters      map[string]JurisdictionAdapter
	opts          IngestOptions
}

func NewIngestService(f domain.Fetcher, r domain.InspectionRepository, c domain.Cache, js []shared.Jurisdiction, opts IngestOptions) (*IngestService, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = opts.PageSize
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 2 * time.Minute
	}

	ads := make(map[string]JurisdictionAdapter, len(js))
	for _, j := range js {
		ad, err := AdapterFor(j)
		if err != nil {
			return nil, err
		}
		ads[j.Code] = ad
	}
	return &IngestService{fetch: f, repo: r, cache: c, jurisdictions: js, adapters: ads, opts: opts}, nil
}

type JurisdictionReport struct {
	Code    string
	Fetched int // raw rows received
	Mapped  int // canonical records produced
	Skipped int // rows failed by MappingError
	Failed  bool
	Err     error
}

type RunReport struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Jurisdictions []JurisdictionReport
	Persisted     int
	Failures      int // jurisdiction-level fetch failures
}

type fetchOutcome struct {
	result AdapterResult
	err    error
}

// Run executes one ingestion pass. A fetch failure skips that
// jurisdiction and is reported; a persistence failure aborts the rest of
// the run and is returned.
func (s *IngestService) Run(ctx context.Context) (RunReport, error) {
	rep := RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}

	// Fetches are independent: no shared mutable state, each goroutine
	// writes only its own slot.
	outcomes := make([]fetchOutcome, len(s.jurisdictions))
	sem := semaphore.NewWeighted(int64(s.opts.Workers))
	var wg sync.WaitGroup

	for i, j := range s.jurisdictions {
		if err := sem.Acquire(ctx, 1); err != nil {
			return rep, err
		}
		wg.Add(1)
		go func(i int, j shared.Jurisdiction) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = s.fetchJurisdiction(ctx, j)
		}(i, j)
	}
	wg.Wait()

	var batch []domain.Restaurant
	for i, j := range s.jurisdictions {
		out := outcomes[i]
		jr := JurisdictionReport{Code: j.Code}

		if out.err != nil {
			ferr := &domain.FetchError{Jurisdiction: j.Code, Err: out.err}
			jr.Failed = true
			jr.Err = ferr
			rep.Failures++
			observability.ObserveIngestFailure(j.Code)
			log.Warn().Str("jurisdiction", j.Code).Err(out.err).Msg("fetch failed, skipping jurisdiction for this run")
			if err := s.repo.LogSkip(ctx, j.Code, 0, out.err.Error()); err != nil {
				log.Error().Str("jurisdiction", j.Code).Err(err).Msg("log skip failed")
			}
			rep.Jurisdictions = append(rep.Jurisdictions, jr)
			continue
		}

		jr.Fetched = out.result.Fetched
		jr.Mapped = len(out.result.Restaurants)
		jr.Skipped = out.result.Skipped
		observability.ObserveIngest(j.Code, "mapped", jr.Mapped)
		observability.ObserveIngest(j.Code, "skipped", jr.Skipped)
		for _, merr := range out.result.Errors {
			log.Debug().Str("jurisdiction", j.Code).Err(merr).Msg("record skipped")
		}

		batch = append(batch, out.result.Restaurants...)
		rep.Jurisdictions = append(rep.Jurisdictions, jr)
	}

	canon := Normalize(batch)

	// Persistence failures are fatal to the run: the store is assumed
	// reliable, so stop here and surface.
	for _, r := range canon {
		if err := s.repo.UpsertRestaurant(ctx, r); err != nil {
			rep.FinishedAt = time.Now().UTC()
			return rep, fmt.Errorf("persist %s: %w", r.Key(), err)
		}
		if err := s.repo.AppendInspections(ctx, r.Identity, r.Inspections); err != nil {
			rep.FinishedAt = time.Now().UTC()
			return rep, fmt.Errorf("persist inspections %s: %w", r.Key(), err)
		}
		rep.Persisted++
		observability.ObserveIngest(r.Jurisdiction, "persisted", 1)
	}

	s.invalidate(ctx, canon)
	rep.FinishedAt = time.Now().UTC()
	return rep, nil
}

func (s *IngestService) fetchJurisdiction(ctx context.Context, j shared.Jurisdiction) fetchOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	ad := s.adapters[j.Code]
	var rows []map[string]any
	offset := 0

	for len(rows) < s.opts.FetchLimit {
		limit := s.opts.PageSize
		if remaining := s.opts.FetchLimit - len(rows); remaining < limit {
			limit = remaining
		}
		params := url.Values{
			"$limit":  {strconv.Itoa(limit)},
			"$offset": {strconv.Itoa(offset)},
		}
		if j.OrderBy != "" {
			params.Set("$order", j.OrderBy+" DESC")
		}

		page, err := s.fetch.Fetch(ctx, j.Endpoint, params)
		if err != nil {
			return fetchOutcome{err: err}
		}
		if len(page) == 0 {
			break
		}
		rows = append(rows, page...)
		offset += len(page)
		if len(page) < limit {
			break
		}
	}

	return fetchOutcome{result: ad.Adapt(rows)}
}

// invalidate drops cache entries touched by the run: the per-restaurant
// keys plus each affected jurisdiction's default list key.
func (s *IngestService) invalidate(ctx context.Context, canon []domain.Restaurant) {
	if s.cache == nil {
		return
	}
	seen := map[string]struct{}{}
	for _, r := range canon {
		_ = s.cache.Del(ctx, "restaurant:"+r.Key())
		if _, ok := seen[r.Jurisdiction]; !ok {
			seen[r.Jurisdiction] = struct{}{}
			_ = s.cache.Del(ctx, listCacheKey(domain.RestaurantsQuery{Jurisdiction: &r.Jurisdiction, Limit: defaultListLimit}))
		}
	}
	_ = s.cache.Del(ctx, listCacheKey(domain.RestaurantsQuery{Limit: defaultListLimit}))
}
