package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cleanplate/internal/app"
	"cleanplate/internal/domain"
	"cleanplate/internal/shared"
)

var testJurisdictions = []shared.Jurisdiction{
	{Code: "nyc", Endpoint: "https://nyc.test/rows.json", Scheme: shared.SchemeLetter, OrderBy: "inspection_date"},
	{Code: "chicago", Endpoint: "https://chi.test/rows.json", Scheme: shared.SchemePassFail, OrderBy: "inspection_date"},
}

func nycRow(id, name, grade, date string) map[string]any {
	return map[string]any{
		"camis": id, "dba": name, "building": "1", "street": "MAIN ST",
		"grade": grade, "inspection_date": date,
	}
}

func chiRow(id, name, results, date string) map[string]any {
	return map[string]any{
		"license_": id, "dba_name": name, "address": "2 STATE ST",
		"results": results, "inspection_date": date,
	}
}

func newIngest(t *testing.T, f domain.Fetcher, repo domain.InspectionRepository) *app.IngestService {
	t.Helper()
	svc, err := app.NewIngestService(f, repo, nil, testJurisdictions, app.IngestOptions{
		Workers: 2, FetchLimit: 100, PageSize: 100, FetchTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewIngestService: %v", err)
	}
	return svc
}

func TestRun_OneJurisdictionFailsOthersPersist(t *testing.T) {
	fetch := &fakeFetcher{
		rows: map[string][]map[string]any{
			"https://chi.test/rows.json": {
				chiRow("1", "ONE", "Pass", "2024-01-10T00:00:00.000"),
				chiRow("2", "TWO", "Fail", "2024-01-11T00:00:00.000"),
				chiRow("3", "THREE", "Pass", "2024-01-12T00:00:00.000"),
			},
		},
		fails: map[string]error{
			"https://nyc.test/rows.json": errors.New("connection reset"),
		},
	}
	repo := newFakeRepo()
	svc := newIngest(t, fetch, repo)

	rep, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run must not be fatal on a jurisdiction fetch failure: %v", err)
	}
	if rep.Failures != 1 {
		t.Fatalf("expected 1 jurisdiction failure, got %d", rep.Failures)
	}
	if rep.Persisted != 3 {
		t.Fatalf("expected B's 3 records persisted, got %d", rep.Persisted)
	}
	if len(repo.restaurants) != 3 {
		t.Fatalf("storage should contain exactly B's records, got %d", len(repo.restaurants))
	}
	if len(repo.skips) != 1 || repo.skips[0] != "nyc" {
		t.Fatalf("expected the failed jurisdiction in the skip log, got %v", repo.skips)
	}

	var failed *app.JurisdictionReport
	for i := range rep.Jurisdictions {
		if rep.Jurisdictions[i].Code == "nyc" {
			failed = &rep.Jurisdictions[i]
		}
	}
	if failed == nil || !failed.Failed {
		t.Fatalf("nyc should be reported failed: %+v", rep.Jurisdictions)
	}
	var ferr *domain.FetchError
	if !errors.As(failed.Err, &ferr) || ferr.Jurisdiction != "nyc" {
		t.Fatalf("expected FetchError for nyc, got %v", failed.Err)
	}
}

func TestRun_Idempotent(t *testing.T) {
	rows := map[string][]map[string]any{
		"https://nyc.test/rows.json": {
			nycRow("40001", "JOE'S", "A", "2024-02-01T00:00:00.000"),
			nycRow("40002", "SAL'S", "B", "2024-02-02T00:00:00.000"),
		},
	}
	repo := newFakeRepo()

	for i := 0; i < 2; i++ {
		fetch := &fakeFetcher{
			rows:  rows,
			fails: map[string]error{"https://chi.test/rows.json": errors.New("down")},
		}
		svc := newIngest(t, fetch, repo)
		if _, err := svc.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if len(repo.restaurants) != 2 {
		t.Fatalf("upsert by identity key must not duplicate records, got %d", len(repo.restaurants))
	}
	id := domain.Identity{Jurisdiction: "nyc", ExternalID: "40001"}
	if n := len(repo.inspections[id]); n != 1 {
		t.Fatalf("append-only history must dedupe identical inspections, got %d", n)
	}
}

func TestRun_SkippedRecordsAreCounted(t *testing.T) {
	fetch := &fakeFetcher{
		rows: map[string][]map[string]any{
			"https://nyc.test/rows.json": {
				nycRow("40001", "GOOD", "A", "2024-02-01T00:00:00.000"),
				{"dba": "NO IDENTITY", "building": "1", "street": "MAIN ST", "inspection_date": "2024-02-01T00:00:00.000"},
			},
			"https://chi.test/rows.json": {},
		},
	}
	repo := newFakeRepo()
	svc := newIngest(t, fetch, repo)

	rep, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var nyc app.JurisdictionReport
	for _, jr := range rep.Jurisdictions {
		if jr.Code == "nyc" {
			nyc = jr
		}
	}
	if nyc.Fetched != 2 || nyc.Mapped != 1 || nyc.Skipped != 1 {
		t.Fatalf("skipped rows must be counted, got %+v", nyc)
	}
}

func TestRun_PersistenceFailureIsFatal(t *testing.T) {
	fetch := &fakeFetcher{
		rows: map[string][]map[string]any{
			"https://nyc.test/rows.json": {nycRow("40001", "JOE'S", "A", "2024-02-01T00:00:00.000")},
			"https://chi.test/rows.json": {},
		},
	}
	repo := newFakeRepo()
	repo.failUpsert = true
	svc := newIngest(t, fetch, repo)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatalf("a repository failure must abort the run")
	}
}

func TestRun_CacheInvalidatedForIngestedRestaurants(t *testing.T) {
	fetch := &fakeFetcher{
		rows: map[string][]map[string]any{
			"https://nyc.test/rows.json": {nycRow("40001", "JOE'S", "A", "2024-02-01T00:00:00.000")},
			"https://chi.test/rows.json": {},
		},
	}
	repo := newFakeRepo()
	cache := &fakeCache{store: map[string]any{
		"restaurant:nyc:40001": domain.Restaurant{Name: "STALE"},
	}}
	svc, err := app.NewIngestService(fetch, repo, cache, testJurisdictions, app.IngestOptions{Workers: 2})
	if err != nil {
		t.Fatalf("NewIngestService: %v", err)
	}

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := cache.store["restaurant:nyc:40001"]; ok {
		t.Fatalf("stale per-restaurant cache entry should be evicted after ingest")
	}
}
