package app

import "cleanplate/internal/domain"

// scoreOnlyAdapter handles sources that publish a numeric score and no
// grade vocabulary at all (Austin). The canonical grade is UNKNOWN by
// definition; the score is preserved as-is.
type scoreOnlyAdapter struct{ code string }

func (a *scoreOnlyAdapter) Code() string { return a.code }

func (a *scoreOnlyAdapter) Adapt(rows []map[string]any) AdapterResult {
	res := AdapterResult{Fetched: len(rows)}
	acc := newAccumulator()

	for i, row := range rows {
		r, date, err := baseRecord(a.code, i, row)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, err)
			continue
		}

		r.RawGrade = lookupStr(row, "score")
		r.Grade = domain.GradeUnknown

		var violations []string
		if d := lookupStr(row, "process_description"); d != "" {
			violations = append(violations, d)
		}
		acc.add(r, domain.Inspection{
			Date:       date,
			Grade:      domain.GradeUnknown,
			Violations: violations,
		})
	}

	res.Restaurants = acc.restaurants()
	return res
}
