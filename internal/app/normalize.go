package app

import (
	"sort"

	"cleanplate/internal/domain"
)

// Normalize merges the concatenated adapter output of one run into a
// single canonical sequence. Records sharing an identity key collapse to
// one: the record with the most recent inspection date wins; on equal
// dates the record appearing later in the batch wins (batches are
// concatenated in fetch order, so this prefers the later-fetched batch).
// The survivor carries the union of both inspection histories. Pure over
// its input: the batch slice and its records are not mutated.
func Normalize(batch []domain.Restaurant) []domain.Restaurant {
	idx := make(map[domain.Identity]int, len(batch))
	out := make([]domain.Restaurant, 0, len(batch))

	for _, r := range batch {
		i, seen := idx[r.Identity]
		if !seen {
			idx[r.Identity] = len(out)
			r.Inspections = mergeInspections(nil, r.Inspections)
			out = append(out, r)
			continue
		}

		prev := out[i]
		history := mergeInspections(prev.Inspections, r.Inspections)
		if r.LastInspected.Before(prev.LastInspected) {
			prev.Inspections = history
			out[i] = prev
			continue
		}
		r.Inspections = history
		out[i] = r
	}
	return out
}

type inspectionKey struct {
	date  int64
	grade domain.Grade
}

// mergeInspections unions two histories, deduplicating by (date, grade)
// and ordering by date ascending. Violations come from whichever entry
// was seen last, matching the later-batch preference.
func mergeInspections(a, b []domain.Inspection) []domain.Inspection {
	byKey := make(map[inspectionKey]domain.Inspection, len(a)+len(b))
	for _, in := range a {
		byKey[inspectionKey{in.Date.Unix(), in.Grade}] = in
	}
	for _, in := range b {
		byKey[inspectionKey{in.Date.Unix(), in.Grade}] = in
	}

	out := make([]domain.Inspection, 0, len(byKey))
	for _, in := range byKey {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Grade < out[j].Grade
	})
	return out
}
