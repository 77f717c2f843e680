package chi

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
)

// PeriodLastWeek selects the recent-days window instead of from/to.
const PeriodLastWeek = "last_week"

// FilterParams are the record query parameters shared by query, summary and export.
type FilterParams struct {
	Q        *string  `json:"q,omitempty"`
	Deferred *bool    `json:"deferred,omitempty"`
	From     *string  `json:"from,omitempty"`
	To       *string  `json:"to,omitempty"`
	Period   *string  `json:"period,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Sort     *string  `json:"sort,omitempty"`
	// Categories holds one value per categorical parameter of the kind's schema.
	Categories map[string]string `json:"-"`
	// Code is the diagnosis code filter, bound under the schema's code parameter.
	Code *string `json:"-"`
}

// PageParams select a window of the filtered records.
type PageParams struct {
	Offset *int `json:"offset,omitempty"`
	Limit  *int `json:"limit,omitempty"`
}

// SuggestParams are the autocomplete parameters.
type SuggestParams struct {
	Q     *string `json:"q,omitempty"`
	Limit *int    `json:"limit,omitempty"`
}

func bindKind(r *http.Request) (record.Kind, error) {
	var kind string
	err := runtime.BindStyledParameterWithOptions("simple", "kind", chi.URLParam(r, "kind"), &kind,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("%w: parameter kind: %w", domain.ErrInvalidRequest, err)
	}
	k := record.Kind(kind)
	if !k.IsValid() {
		return "", fmt.Errorf("kind %q: %w", kind, domain.ErrUnknownKind)
	}
	return k, nil
}

func bindQuery(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
		return domain.NewFieldError(name, err.Error())
	}
	return nil
}

// bindFilterParams reads the filter parameters of a request for schema.
func bindFilterParams(q url.Values, schema *record.Schema) (FilterParams, error) {
	var p FilterParams
	for _, b := range []struct {
		name string
		dest any
	}{
		{"q", &p.Q},
		{"deferred", &p.Deferred},
		{"from", &p.From},
		{"to", &p.To},
		{"period", &p.Period},
		{"min", &p.Min},
		{"max", &p.Max},
		{"sort", &p.Sort},
	} {
		if err := bindQuery(q, b.name, b.dest); err != nil {
			return FilterParams{}, err
		}
	}

	p.Categories = make(map[string]string, len(schema.Categorical))
	for _, c := range schema.Categorical {
		var v *string
		if err := bindQuery(q, c.Param, &v); err != nil {
			return FilterParams{}, err
		}
		if v != nil {
			p.Categories[c.Param] = *v
		}
	}
	if param := schema.CodeFilter.Param; param != "" {
		if err := bindQuery(q, param, &p.Code); err != nil {
			return FilterParams{}, err
		}
	}
	return p, nil
}

func bindPageParams(q url.Values) (PageParams, error) {
	var p PageParams
	if err := bindQuery(q, "offset", &p.Offset); err != nil {
		return PageParams{}, err
	}
	if err := bindQuery(q, "limit", &p.Limit); err != nil {
		return PageParams{}, err
	}
	if p.Offset != nil && *p.Offset < 0 {
		return PageParams{}, domain.NewFieldError("offset", "must not be negative")
	}
	if p.Limit != nil && *p.Limit < 0 {
		return PageParams{}, domain.NewFieldError("limit", "must not be negative")
	}
	return p, nil
}

func bindSuggestParams(q url.Values) (SuggestParams, error) {
	var p SuggestParams
	if err := bindQuery(q, "q", &p.Q); err != nil {
		return SuggestParams{}, err
	}
	if err := bindQuery(q, "limit", &p.Limit); err != nil {
		return SuggestParams{}, err
	}
	return p, nil
}

// filtersFromMap converts the string filters of a chat context into FilterParams.
func filtersFromMap(m map[string]string, schema *record.Schema) (FilterParams, error) {
	q := make(url.Values, len(m))
	for k, v := range m {
		q.Set(k, v)
	}
	return bindFilterParams(q, schema)
}

// State builds the pipeline state. now and recentDays resolve period=last_week.
func (p FilterParams) State(schema *record.Schema, now time.Time, recentDays int) (filter.State, error) {
	var opts []filter.Option
	if p.Q != nil {
		opts = append(opts, filter.WithQuery(*p.Q))
	}
	if p.Deferred != nil && *p.Deferred {
		opts = append(opts, filter.WithSearchDeferred())
	}

	switch {
	case p.Period != nil && *p.Period != "":
		if *p.Period != PeriodLastWeek {
			return filter.State{}, domain.NewFieldError("period", fmt.Sprintf("unknown period %q", *p.Period))
		}
		opts = append(opts, filter.WithRecentDays(now, recentDays))
	case p.From != nil || p.To != nil:
		opts = append(opts, filter.WithDateRange(deref(p.From), deref(p.To)))
	}

	for _, c := range schema.Categorical {
		if v, ok := p.Categories[c.Param]; ok {
			opts = append(opts, filter.WithCategory(c.Field, v))
		}
	}
	if p.Code != nil && schema.CodeFilter.Field != "" {
		opts = append(opts, filter.WithCodeRoot(schema.CodeFilter.Field, *p.Code))
	}
	if p.Min != nil || p.Max != nil {
		opts = append(opts, filter.WithAmountRange(p.Min, p.Max))
	}
	if p.Sort != nil {
		opts = append(opts, filter.WithPriority(filter.Priority(*p.Sort)))
	}

	s, err := filter.NewState(opts...)
	if err != nil {
		return filter.State{}, fmt.Errorf("filter state: %w", err)
	}
	return s, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
