package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/normalize"
)

// Apply runs the pipeline stages over records in fixed order. Inactive stages
// pass their input through. records is never modified; the result may share
// its backing array only when every stage is inactive.
func Apply(records []record.Record, schema *record.Schema, s State) []record.Record {
	out := records
	out = Search(out, schema, s)
	out = DateRange(out, schema.DateField, s.from, s.to)
	out = Categories(out, s)
	out = Codes(out, s)
	out = AmountRange(out, schema.NumericField, s.min, s.max)
	out = Sort(out, schema, s.priority)
	return out
}

// Search keeps records whose searchable fields match the query, then moves
// records whose priority fields start with the query to the front.
func Search(records []record.Record, schema *record.Schema, s State) []record.Record {
	if !s.Searching() || len(records) == 0 {
		return records
	}
	q := normalize.Normalize(s.query)
	prefixMode := IsPrefixQuery(q)

	var matched []record.Record
	for _, r := range records {
		if matchesAny(r, schema.Searchable, q, prefixMode) {
			matched = append(matched, r)
		}
	}
	if len(schema.Priority) == 0 || len(matched) < 2 {
		return matched
	}

	raw := strings.ToLower(strings.TrimSpace(s.query))
	slices.SortStableFunc(matched, func(a, b record.Record) int {
		return cmp.Compare(priorityBucket(a, schema.Priority, raw), priorityBucket(b, schema.Priority, raw))
	})
	return matched
}

// IsPrefixQuery reports whether a normalized query is a single character or
// a single letter with punctuation only.
func IsPrefixQuery(q string) bool {
	runes := []rune(q)
	if len(runes) == 1 {
		return true
	}
	letters := 0
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			return false
		}
	}
	return letters == 1
}

func matchesAny(r record.Record, fields []string, q string, prefixMode bool) bool {
	for _, f := range fields {
		v := normalize.Normalize(r.Text(f))
		if v == "" {
			continue
		}
		if prefixMode {
			if strings.HasPrefix(v, q) {
				return true
			}
		} else if strings.Contains(v, q) {
			return true
		}
	}
	return false
}

func priorityBucket(r record.Record, fields []string, q string) int {
	for _, f := range fields {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.Text(f))), q) {
			return 0
		}
	}
	return 1
}

// DateRange keeps records dated within [from, to]. Records whose date cannot
// be parsed are kept.
func DateRange(records []record.Record, field string, from, to *time.Time) []record.Record {
	if (from == nil && to == nil) || field == "" || len(records) == 0 {
		return records
	}
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		t, ok := ParseDate(r.Text(field))
		if !ok {
			out = append(out, r)
			continue
		}
		if from != nil && t.Before(*from) {
			continue
		}
		if to != nil && t.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Categories keeps records whose title-cased field values equal every active
// categorical filter.
func Categories(records []record.Record, s State) []record.Record {
	if len(s.categories) == 0 || len(records) == 0 {
		return records
	}
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		keep := true
		for _, c := range s.categories {
			if normalize.TitleCase(r.Text(c.field)) != c.value {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// AmountRange keeps records whose numeric field lies in [lo, hi].
// Missing and non-numeric values read as 0.
func AmountRange(records []record.Record, field string, lo, hi *float64) []record.Record {
	if (lo == nil && hi == nil) || field == "" || len(records) == 0 {
		return records
	}
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		v := r.Number(field)
		if lo != nil && v < *lo {
			continue
		}
		if hi != nil && v > *hi {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders a copy of records by priority mode; ties keep their order.
func Sort(records []record.Record, schema *record.Schema, p Priority) []record.Record {
	if len(records) < 2 {
		return records
	}
	var key func(a, b record.Record) int
	switch p {
	case PriorityUrgency:
		key = func(a, b record.Record) int {
			return cmp.Compare(urgency(b, schema), urgency(a, schema))
		}
	case PriorityRecency:
		if schema.DateField == "" {
			return records
		}
		key = func(a, b record.Record) int {
			return strings.Compare(b.Text(schema.DateField), a.Text(schema.DateField))
		}
	case PriorityAmount:
		if schema.NumericField == "" {
			return records
		}
		key = func(a, b record.Record) int {
			return cmp.Compare(b.Number(schema.NumericField), a.Number(schema.NumericField))
		}
	default:
		return records
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, key)
	return out
}

// urgency scores 2 for an emergency and 1 more for a referral.
func urgency(r record.Record, schema *record.Schema) int {
	score := 0
	if schema.EmergencyField != "" && IsFlagSet(r.Text(schema.EmergencyField)) {
		score += 2
	}
	if schema.ReferralField != "" && IsFlagSet(r.Text(schema.ReferralField)) {
		score++
	}
	return score
}

// IsFlagSet reports a "Y" indicator value, case-insensitively.
func IsFlagSet(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "y")
}
