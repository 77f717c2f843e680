// Package suggest builds autocomplete candidates from a record batch and ranks them against a query.
package suggest

import (
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/normalize"
)

// Candidate is a distinct value offered as a suggestion, tagged with its source category.
type Candidate struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// Build collects distinct title-cased values of the given fields.
// Order is field order, then record order; null-like values are skipped.
func Build(records []record.Record, fields []record.CandidateField) []Candidate {
	type key struct{ kind, label string }
	seen := make(map[key]struct{})
	var out []Candidate
	for _, f := range fields {
		for _, r := range records {
			raw := r.Text(f.Field)
			if normalize.IsNullLike(raw) {
				continue
			}
			label := normalize.TitleCase(raw)
			k := key{f.Kind, label}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Candidate{Label: label, Kind: f.Kind})
		}
	}
	return out
}
