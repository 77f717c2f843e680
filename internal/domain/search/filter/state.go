// Package filter narrows and orders a record batch: text search, date range,
// categorical equality, code root, numeric range and priority sort, in that order.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/normalize"
)

// Priority is the optional final ordering of the pipeline.
type Priority string

// Priority modes.
const (
	PriorityNone Priority = ""
	// PriorityUrgency orders emergencies first, then referrals.
	PriorityUrgency Priority = "urgency"
	// PriorityRecency orders by the raw date string, newest first.
	PriorityRecency Priority = "recency"
	PriorityAmount  Priority = "amount"
)

// IsValid checks if the priority is one of the supported values.
func (p Priority) IsValid() bool {
	return p == PriorityNone || p == PriorityUrgency || p == PriorityRecency || p == PriorityAmount
}

// queryCutset is stripped from both ends of a search query.
const queryCutset = " \t\r\n\"'“”‚‹›«»"

// allValues are categorical values meaning "no filter".
var allValues = map[string]struct{}{
	"all":  {},
	"الكل": {},
}

// State is the user's current filter selection. The zero value filters nothing.
type State struct {
	query      string
	deferred   bool
	from       *time.Time
	to         *time.Time
	categories []category
	code       *codeFilter
	min        *float64
	max        *float64
	priority   Priority
}

type category struct {
	field string
	value string
}

// Option configures a State.
type Option func(*State) error

// NewState validates and creates a filter State.
func NewState(opts ...Option) (State, error) {
	var s State
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return State{}, err
		}
	}
	if s.from != nil && s.to != nil && s.from.After(*s.to) {
		return State{}, domain.NewFieldError("from", "must not be after to")
	}
	if s.min != nil && s.max != nil && *s.min > *s.max {
		return State{}, domain.NewFieldError("min", "must not be greater than max")
	}
	return s, nil
}

// WithQuery sets the search text. Surrounding whitespace and quotes are ignored.
func WithQuery(q string) Option {
	return func(s *State) error {
		s.query = strings.Trim(q, queryCutset)
		return nil
	}
}

// WithSearchDeferred keeps the query but skips the text search stage,
// for hosts that search only on explicit submit.
func WithSearchDeferred() Option {
	return func(s *State) error {
		s.deferred = true
		return nil
	}
}

// WithDateRange bounds the date field. Either bound may be empty.
// The upper bound covers its whole calendar day.
func WithDateRange(from, to string) Option {
	return func(s *State) error {
		if from = strings.TrimSpace(from); from != "" {
			t, ok := ParseDate(from)
			if !ok {
				return domain.NewFieldError("from", fmt.Sprintf("unparseable date %q", from))
			}
			t = startOfDay(t)
			s.from = &t
		}
		if to = strings.TrimSpace(to); to != "" {
			t, ok := ParseDate(to)
			if !ok {
				return domain.NewFieldError("to", fmt.Sprintf("unparseable date %q", to))
			}
			t = endOfDay(t)
			s.to = &t
		}
		return nil
	}
}

// WithRecentDays keeps the last days calendar days up to and including now.
func WithRecentDays(now time.Time, days int) Option {
	return func(s *State) error {
		if days <= 0 {
			return domain.NewFieldError("period", "days must be positive")
		}
		from := startOfDay(now).AddDate(0, 0, -(days - 1))
		to := endOfDay(now)
		s.from, s.to = &from, &to
		return nil
	}
}

// WithCategory requires field to equal value after title casing.
// An empty value or "all" leaves the field unfiltered.
func WithCategory(field, value string) Option {
	return func(s *State) error {
		if field == "" {
			return domain.NewFieldError("category", "field is required")
		}
		value = normalize.TitleCase(value)
		if _, ok := allValues[strings.ToLower(value)]; ok || value == "" {
			return nil
		}
		for i := range s.categories {
			if s.categories[i].field == field {
				s.categories[i].value = value
				return nil
			}
		}
		s.categories = append(s.categories, category{field: field, value: value})
		return nil
	}
}

// WithAmountRange bounds the numeric field, inclusive. Nil bounds are open.
func WithAmountRange(lo, hi *float64) Option {
	return func(s *State) error {
		if lo != nil {
			v := *lo
			s.min = &v
		}
		if hi != nil {
			v := *hi
			s.max = &v
		}
		return nil
	}
}

// WithPriority sets the final ordering.
func WithPriority(p Priority) Option {
	return func(s *State) error {
		if !p.IsValid() {
			return domain.NewFieldError("sort", fmt.Sprintf("unknown priority %q", p))
		}
		s.priority = p
		return nil
	}
}

// Query returns the trimmed search text.
func (s State) Query() string { return s.query }

// Searching reports whether the text search stage is active.
func (s State) Searching() bool {
	return !s.deferred && normalize.Normalize(s.query) != ""
}

// From returns the inclusive lower date bound.
func (s State) From() *time.Time { return s.from }

// To returns the inclusive upper date bound (end of day).
func (s State) To() *time.Time { return s.to }

// Category returns the active value for field.
func (s State) Category(field string) (string, bool) {
	for _, c := range s.categories {
		if c.field == field {
			return c.value, true
		}
	}
	return "", false
}

// Code returns the code field and the root it must share. root is empty when
// the filter fell back to free text.
func (s State) Code() (field, root string, ok bool) {
	if s.code == nil {
		return "", "", false
	}
	return s.code.field, s.code.root, true
}

// Min returns the inclusive lower numeric bound.
func (s State) Min() *float64 { return s.min }

// Max returns the inclusive upper numeric bound.
func (s State) Max() *float64 { return s.max }

// Priority returns the final ordering mode.
func (s State) Priority() Priority { return s.priority }

// IsEmpty reports whether the state filters and reorders nothing.
func (s State) IsEmpty() bool {
	return !s.Searching() && s.from == nil && s.to == nil && len(s.categories) == 0 &&
		s.code == nil && s.min == nil && s.max == nil && s.priority == PriorityNone
}
