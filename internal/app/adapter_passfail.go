package app

import (
	"strings"

	"cleanplate/internal/domain"
)

// passFailAdapter handles sources that publish a pass/fail outcome
// (Chicago's "results" column) instead of letter grades. Conditional
// passes count as PASS; closures, no-entries and other administrative
// outcomes canonicalize to UNKNOWN.
type passFailAdapter struct{ code string }

func (a *passFailAdapter) Code() string { return a.code }

func (a *passFailAdapter) Adapt(rows []map[string]any) AdapterResult {
	res := AdapterResult{Fetched: len(rows)}
	acc := newAccumulator()

	for i, row := range rows {
		r, date, err := baseRecord(a.code, i, row)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, err)
			continue
		}

		raw, grade := passFailGrade(row)
		r.RawGrade = raw
		r.Grade = grade

		acc.add(r, domain.Inspection{
			Date:       date,
			Grade:      grade,
			Violations: splitViolations(lookupStr(row, "violations")),
			Critical:   strings.Contains(strings.ToLower(lookupStr(row, "risk")), "high"),
		})
	}

	res.Restaurants = acc.restaurants()
	return res
}

// passFailGrade reads the results column. Some feeds encode the outcome
// as a bare boolean; that maps straight to PASS/FAIL too.
func passFailGrade(row map[string]any) (string, domain.Grade) {
	switch v := lookupAny(row, "results").(type) {
	case bool:
		if v {
			return "true", domain.GradePass
		}
		return "false", domain.GradeFail
	case string:
		raw := strings.TrimSpace(v)
		switch strings.ToUpper(raw) {
		case "PASS", "PASS W/ CONDITIONS", "PASS WITH CONDITIONS":
			return raw, domain.GradePass
		case "FAIL":
			return raw, domain.GradeFail
		default:
			return raw, domain.GradeUnknown
		}
	}
	return "", domain.GradeUnknown
}

// splitViolations breaks the pipe-delimited violations blob into the
// ordered free-text list the canonical schema wants.
func splitViolations(blob string) []string {
	if blob == "" {
		return nil
	}
	parts := strings.Split(blob, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
