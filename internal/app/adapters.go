package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cleanplate/internal/domain"
	"cleanplate/internal/shared"
)

// JurisdictionAdapter translates one source's raw API rows into canonical
// restaurant records. Implementations are a fixed set of variants, one per
// supported grading scheme, dispatched by jurisdiction config.
type JurisdictionAdapter interface {
	Code() string
	Adapt(rows []map[string]any) AdapterResult
}

// AdapterResult carries the mapped records plus the per-record failures.
// A MappingError fails the record, never the batch: skipped rows are
// counted, not silently dropped.
type AdapterResult struct {
	Restaurants []domain.Restaurant
	Fetched     int
	Skipped     int
	Errors      []error
}

func AdapterFor(j shared.Jurisdiction) (JurisdictionAdapter, error) {
	switch j.Scheme {
	case shared.SchemeLetter:
		return &letterAdapter{code: j.Code}, nil
	case shared.SchemePassFail:
		return &passFailAdapter{code: j.Code}, nil
	case shared.SchemeScoreOnly:
		return &scoreOnlyAdapter{code: j.Code}, nil
	}
	return nil, fmt.Errorf("jurisdiction %s: unsupported grading scheme %q", j.Code, j.Scheme)
}

/********** alias registries (single source of truth) **********/

var rowAliases = map[string][]string{
	"external_id": {"camis", "license_", "license_number", "facility_id", "restaurant_id"},
	"name":        {"dba", "dba_name", "restaurant_name", "name", "aka_name"},
	"cuisine":     {"cuisine_description", "cuisine", "facility_type"},
	"phone":       {"phone", "phone_number"},
	"locality":    {"boro", "borough", "city"},
	"date":        {"inspection_date", "inspection_dt", "date"},
	"score":       {"score", "inspection_score"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the trimmed string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstAlias: first non-empty string for a named alias set.
func firstAlias(m map[string]any, key string) string {
	for _, p := range rowAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, sep)
}

// rowScore: int score from the score aliases (float64/int/string forms).
func rowScore(m map[string]any) *int {
	for _, k := range rowAliases["score"] {
		switch v := lookupAny(m, k).(type) {
		case float64:
			n := int(v)
			return &n
		case int:
			n := v
			return &n
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				n := int(f)
				return &n
			}
		}
	}
	return nil
}

// socrataDateLayouts covers the floating-timestamp forms the portals emit.
var socrataDateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func rowDate(m map[string]any) (time.Time, bool) {
	s := firstAlias(m, "date")
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range socrataDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// rowAddress handles plain strings, NYC building/street composition, and
// Socrata location columns carrying a human_address JSON blob.
func rowAddress(m map[string]any) string {
	if s := lookupStr(m, "address"); s != "" {
		return s
	}
	if loc, ok := lookupAny(m, "address").(map[string]any); ok {
		if ha, ok := loc["human_address"].(string); ok && ha != "" {
			var parsed struct {
				Address string `json:"address"`
				City    string `json:"city"`
				Zip     string `json:"zip"`
			}
			if err := json.Unmarshal([]byte(ha), &parsed); err == nil {
				if a := joinNonEmpty(", ", parsed.Address, parsed.City, parsed.Zip); a != "" {
					return a
				}
			}
		}
	}
	return joinNonEmpty(", ",
		lookupStr(m, "building"),
		lookupStr(m, "street"),
		lookupStr(m, "boro"),
		lookupStr(m, "zipcode"),
	)
}

/********** row accumulator **********/

// accumulator folds per-row inspection records into one Restaurant per
// external id. The top-level grade/score/date always reflect the most
// recent inspection seen; history stays append-only.
type accumulator struct {
	order []string
	byID  map[string]*domain.Restaurant
}

func newAccumulator() *accumulator {
	return &accumulator{byID: make(map[string]*domain.Restaurant)}
}

func (a *accumulator) add(r domain.Restaurant, in domain.Inspection) {
	cur, ok := a.byID[r.ExternalID]
	if !ok {
		r.Inspections = []domain.Inspection{in}
		a.byID[r.ExternalID] = &r
		a.order = append(a.order, r.ExternalID)
		return
	}
	cur.Inspections = append(cur.Inspections, in)
	if !in.Date.Before(cur.LastInspected) {
		cur.Grade = r.Grade
		cur.RawGrade = r.RawGrade
		cur.Score = r.Score
		cur.LastInspected = r.LastInspected
	}
}

func (a *accumulator) restaurants() []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byID[id])
	}
	return out
}

/********** shared row skeleton **********/

// baseRecord extracts the fields every jurisdiction shares. It returns a
// MappingError when identity, name, or address is absent.
func baseRecord(code string, row int, m map[string]any) (domain.Restaurant, time.Time, error) {
	id := firstAlias(m, "external_id")
	if id == "" {
		return domain.Restaurant{}, time.Time{}, &domain.MappingError{Jurisdiction: code, Field: "external_id", Row: row}
	}
	name := firstAlias(m, "name")
	if name == "" {
		return domain.Restaurant{}, time.Time{}, &domain.MappingError{Jurisdiction: code, Field: "name", Row: row}
	}
	addr := rowAddress(m)
	if addr == "" {
		return domain.Restaurant{}, time.Time{}, &domain.MappingError{Jurisdiction: code, Field: "address", Row: row}
	}
	date, ok := rowDate(m)
	if !ok {
		return domain.Restaurant{}, time.Time{}, &domain.MappingError{Jurisdiction: code, Field: "inspection_date", Row: row}
	}

	return domain.Restaurant{
		Identity:      domain.Identity{Jurisdiction: code, ExternalID: id},
		Name:          name,
		Address:       addr,
		Locality:      ptrStr(firstAlias(m, "locality")),
		Phone:         ptrStr(firstAlias(m, "phone")),
		Cuisine:       ptrStr(firstAlias(m, "cuisine")),
		Score:         rowScore(m),
		LastInspected: date,
	}, date, nil
}
