// Package summary aggregates a filtered record list into dashboard counters.
package summary

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/normalize"
)

// Bucket is one row of the grouped count table.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary holds the counters shown above a record list.
type Summary struct {
	Total    int            `json:"total"`
	Distinct map[string]int `json:"distinct"`
	Alerts   int            `json:"alerts"`
	// Grouped is ordered by first occurrence.
	Grouped []Bucket `json:"grouped"`
}

// Summarize counts records, distinct values, alerts and groups per schema.
func Summarize(records []record.Record, schema *record.Schema) Summary {
	s := Summary{
		Total:    len(records),
		Distinct: make(map[string]int, len(schema.DistinctFields)),
		Grouped:  []Bucket{},
	}

	distinct := make(map[string]map[string]struct{}, len(schema.DistinctFields))
	for _, f := range schema.DistinctFields {
		distinct[f] = make(map[string]struct{})
	}
	index := make(map[string]int)

	for _, r := range records {
		for f, seen := range distinct {
			v := r.Text(f)
			if normalize.IsNullLike(v) {
				continue
			}
			seen[normalize.TitleCase(v)] = struct{}{}
		}

		if isAlert(r, schema) {
			s.Alerts++
		}

		if schema.Grouping.Field == "" {
			continue
		}
		key := GroupKey(r, schema.Grouping)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			s.Grouped[i].Count++
			continue
		}
		index[key] = len(s.Grouped)
		s.Grouped = append(s.Grouped, Bucket{Label: key, Count: 1})
	}

	for f, seen := range distinct {
		s.Distinct[f] = len(seen)
	}
	return s
}

// AlertCounts counts flagged records. A record with both flags counts once in Total.
type AlertCounts struct {
	Total     int `json:"total"`
	Emergency int `json:"emergency"`
	Referral  int `json:"referral"`
}

// Alerts returns the records flagged as emergency or referral, in input order.
func Alerts(records []record.Record, schema *record.Schema) ([]record.Record, AlertCounts) {
	out := []record.Record{}
	var c AlertCounts
	for _, r := range records {
		emer := schema.EmergencyField != "" && filter.IsFlagSet(r.Text(schema.EmergencyField))
		ref := schema.ReferralField != "" && filter.IsFlagSet(r.Text(schema.ReferralField))
		if !emer && !ref {
			continue
		}
		if emer {
			c.Emergency++
		}
		if ref {
			c.Referral++
		}
		c.Total++
		out = append(out, r)
	}
	return out, c
}

func isAlert(r record.Record, schema *record.Schema) bool {
	if schema.EmergencyField != "" && filter.IsFlagSet(r.Text(schema.EmergencyField)) {
		return true
	}
	return schema.ReferralField != "" && filter.IsFlagSet(r.Text(schema.ReferralField))
}

// GroupKey returns the bucket label of r, or "" when the value is null-like.
func GroupKey(r record.Record, g record.Grouping) string {
	v := r.Text(g.Field)
	if normalize.IsNullLike(v) {
		return ""
	}
	if g.FirstName {
		return FirstName(v)
	}
	return normalize.TitleCase(v)
}

// Top returns up to n buckets with the highest counts; ties keep their order.
// The input is not modified.
func Top(buckets []Bucket, n int) []Bucket {
	out := slices.Clone(buckets)
	slices.SortStableFunc(out, func(a, b Bucket) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// honorifics are compared in normalized form.
var honorifics = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, t := range []string{
		"dr", "doctor", "prof", "mr", "mrs", "ms",
		"د", "دكتور", "الدكتور", "أ", "بروف", "البروف", "أستاذ", "الأستاذ",
	} {
		m[normalize.Normalize(t)] = struct{}{}
	}
	return m
}()

func isNameSeparator(r rune) bool {
	switch r {
	case '\\', '/', '.', ',', ';', ':', '_':
		return true
	}
	return unicode.IsSpace(r)
}

// FirstName returns the first token of a person's name that is not an
// honorific, title-cased. "Dr. Ahmed Ali" and "د. أحمد علي" give "Ahmed" and "أحمد".
func FirstName(name string) string {
	for _, tok := range strings.FieldsFunc(name, isNameSeparator) {
		if _, ok := honorifics[normalize.Normalize(tok)]; ok {
			continue
		}
		if normalize.IsNullLike(tok) {
			return ""
		}
		return normalize.TitleCase(tok)
	}
	return ""
}
