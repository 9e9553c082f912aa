package app

import (
	"strings"

	"cleanplate/internal/domain"
)

// letterAdapter handles letter-graded sources (NYC restaurant grading:
// A/B/C issued on score thresholds). Administrative tokens like "P",
// "Z", "N" or "Grade Pending" are not failures; they canonicalize to
// UNKNOWN so the batch keeps flowing.
type letterAdapter struct{ code string }

func (a *letterAdapter) Code() string { return a.code }

func (a *letterAdapter) Adapt(rows []map[string]any) AdapterResult {
	res := AdapterResult{Fetched: len(rows)}
	acc := newAccumulator()

	for i, row := range rows {
		r, date, err := baseRecord(a.code, i, row)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, err)
			continue
		}

		raw := lookupStr(row, "grade")
		r.RawGrade = raw
		r.Grade = letterGrade(raw)

		acc.add(r, domain.Inspection{
			Date:       date,
			Grade:      r.Grade,
			Violations: letterViolations(row),
			Critical:   strings.EqualFold(lookupStr(row, "critical_flag"), "Y") || strings.EqualFold(lookupStr(row, "critical_flag"), "Critical"),
		})
	}

	res.Restaurants = acc.restaurants()
	return res
}

func letterGrade(raw string) domain.Grade {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return domain.GradeA
	case "B":
		return domain.GradeB
	case "C":
		return domain.GradeC
	default:
		return domain.GradeUnknown
	}
}

// letterViolations mirrors the source's violation columns: description,
// critical marker, then code.
func letterViolations(row map[string]any) []string {
	var out []string
	if d := lookupStr(row, "violation_description"); d != "" {
		out = append(out, d)
	}
	if strings.EqualFold(lookupStr(row, "critical_flag"), "Y") || strings.EqualFold(lookupStr(row, "critical_flag"), "Critical") {
		out = append(out, "Critical violation found")
	}
	if c := lookupStr(row, "violation_code"); c != "" {
		out = append(out, "Violation code: "+c)
	}
	return out
}
