package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
)

// Preset is a saved filter selection.
//
//	[presets.urgent_op]
//	kind = "medical"
//	sort = "urgency"
//	period = "last_week"
//
//	[presets.urgent_op.filters]
//	claim_type = "OP"
type Preset struct {
	Kind     string            `toml:"kind"`
	Query    string            `toml:"q"`
	Deferred bool              `toml:"deferred"`
	From     string            `toml:"from"`
	To       string            `toml:"to"`
	Period   string            `toml:"period"` // "last_week"
	Min      *float64          `toml:"min"`
	Max      *float64          `toml:"max"`
	Sort     string            `toml:"sort"`
	Limit    int               `toml:"limit"`
	Filters  map[string]string `toml:"filters"` // categorical or code parameter -> value
}

// presetFile is the layout of a presets TOML file.
type presetFile struct {
	RecentDays int               `toml:"recent_days"`
	Presets    map[string]Preset `toml:"presets"`
}

// loadPresets reads a presets file. Unknown keys are rejected so typos surface.
func loadPresets(path string) (presetFile, error) {
	var f presetFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return presetFile{}, fmt.Errorf("decode presets %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return presetFile{}, fmt.Errorf("presets %s: unknown keys %v", path, keys)
	}
	if f.RecentDays <= 0 {
		f.RecentDays = 7
	}
	return f, nil
}

// merge overlays the non-zero fields of o on p.
func (p Preset) merge(o Preset) Preset {
	if o.Kind != "" {
		p.Kind = o.Kind
	}
	if o.Query != "" {
		p.Query = o.Query
	}
	if o.Deferred {
		p.Deferred = true
	}
	if o.From != "" || o.To != "" {
		p.From, p.To, p.Period = o.From, o.To, ""
	}
	if o.Period != "" {
		p.Period = o.Period
	}
	if o.Min != nil {
		p.Min = o.Min
	}
	if o.Max != nil {
		p.Max = o.Max
	}
	if o.Sort != "" {
		p.Sort = o.Sort
	}
	if o.Limit != 0 {
		p.Limit = o.Limit
	}
	if len(o.Filters) > 0 {
		merged := make(map[string]string, len(p.Filters)+len(o.Filters))
		for k, v := range p.Filters {
			merged[k] = v
		}
		for k, v := range o.Filters {
			merged[k] = v
		}
		p.Filters = merged
	}
	return p
}

// State builds the pipeline state of the preset for schema.
func (p Preset) State(schema *record.Schema, now time.Time, recentDays int) (filter.State, error) {
	var opts []filter.Option
	if p.Query != "" {
		opts = append(opts, filter.WithQuery(p.Query))
	}
	if p.Deferred {
		opts = append(opts, filter.WithSearchDeferred())
	}

	switch p.Period {
	case "":
		if p.From != "" || p.To != "" {
			opts = append(opts, filter.WithDateRange(p.From, p.To))
		}
	case "last_week":
		opts = append(opts, filter.WithRecentDays(now, recentDays))
	default:
		return filter.State{}, domain.NewFieldError("period", fmt.Sprintf("unknown period %q", p.Period))
	}

	params := make([]string, 0, len(p.Filters))
	for param := range p.Filters {
		params = append(params, param)
	}
	sort.Strings(params)
	for _, param := range params {
		if param == schema.CodeFilter.Param && param != "" {
			opts = append(opts, filter.WithCodeRoot(schema.CodeFilter.Field, p.Filters[param]))
			continue
		}
		c, ok := schema.CategoricalByParam(param)
		if !ok {
			return filter.State{}, domain.NewFieldError(param, fmt.Sprintf("not a %s filter", schema.Kind))
		}
		opts = append(opts, filter.WithCategory(c.Field, p.Filters[param]))
	}
	if p.Min != nil || p.Max != nil {
		opts = append(opts, filter.WithAmountRange(p.Min, p.Max))
	}
	if p.Sort != "" {
		opts = append(opts, filter.WithPriority(filter.Priority(p.Sort)))
	}

	s, err := filter.NewState(opts...)
	if err != nil {
		return filter.State{}, fmt.Errorf("filter state: %w", err)
	}
	return s, nil
}
