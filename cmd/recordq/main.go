/*
Recordq runs the record filter pipeline over a local JSON or CSV export,
without a database or server.

	recordq -kind drugs -file drugs.csv -q para -sort amount
	recordq -kind medical -file medical.json -presets presets.toml -preset urgent_op -format csv
	recordq -kind drugs -file drugs.csv -suggest ibup

Categorical filters are passed as -filter param=value and may be repeated.
Flags given on the command line override the selected preset.
*/
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/suggest"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/summary"
	"github.com/laya1n/Haseef-sub000/internal/version"
	recordsuc "github.com/laya1n/Haseef-sub000/internal/usecase/records"
)

// filterFlags collects repeated -filter param=value flags.
type filterFlags map[string]string

func (f filterFlags) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f filterFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(k) == "" {
		return fmt.Errorf("want param=value, got %q", s)
	}
	f[strings.TrimSpace(k)] = v
	return nil
}

type options struct {
	file       string
	presets    string
	preset     string
	format     string
	suggest    string
	alerts     bool
	offset     int
	recentDays int
	flags      Preset
}

func main() {
	var (
		opts    options
		filters = filterFlags{}
		minV    = flag.Float64("min", 0, "Minimum amount (inclusive)")
		maxV    = flag.Float64("max", 0, "Maximum amount (inclusive)")
	)
	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug logging")
	flag.StringVar(&opts.flags.Kind, "kind", "", "Record kind: medical, insurance or drugs")
	flag.StringVar(&opts.file, "file", "", "JSON or CSV file holding the records")
	flag.StringVar(&opts.presets, "presets", "", "TOML file with saved filter presets")
	flag.StringVar(&opts.preset, "preset", "", "Preset name to apply")
	flag.StringVar(&opts.flags.Query, "q", "", "Search text")
	flag.StringVar(&opts.flags.From, "from", "", "Lower date bound")
	flag.StringVar(&opts.flags.To, "to", "", "Upper date bound (whole day)")
	flag.StringVar(&opts.flags.Period, "period", "", "Relative date window: last_week")
	flag.StringVar(&opts.flags.Sort, "sort", "", "Ordering: urgency, recency or amount")
	flag.Var(filters, "filter", "Categorical or code filter param=value (repeatable)")
	flag.IntVar(&opts.flags.Limit, "limit", 0, "Records to print (0 prints all)")
	flag.IntVar(&opts.offset, "offset", 0, "Records to skip")
	flag.BoolVar(&opts.alerts, "alerts", false, "Keep only emergency and referral records, emergencies first")
	flag.StringVar(&opts.format, "format", "table", "Output: table, json or csv")
	flag.StringVar(&opts.suggest, "suggest", "", "Print autocomplete candidates for a prefix instead of records")
	flag.Parse()

	if *showVersion {
		fmt.Println("recordq", version.String())
		return
	}

	log.SetReportTimestamp(false)
	if *debugMode {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	// Only bounds given explicitly count; zero is a valid bound.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min":
			opts.flags.Min = minV
		case "max":
			opts.flags.Max = maxV
		}
	})
	opts.flags.Filters = filters

	if err := run(opts, os.Stdout); err != nil {
		log.Fatal("recordq failed", "err", err)
	}
}

func run(opts options, out io.Writer) error {
	p := Preset{}
	opts.recentDays = 7
	if opts.presets != "" {
		f, err := loadPresets(opts.presets)
		if err != nil {
			return err
		}
		opts.recentDays = f.RecentDays
		if opts.preset != "" {
			saved, ok := f.Presets[opts.preset]
			if !ok {
				return fmt.Errorf("preset %q not found in %s", opts.preset, opts.presets)
			}
			p = saved
			log.Debug("Applied preset", "name", opts.preset)
		}
	} else if opts.preset != "" {
		return errors.New("-preset needs -presets")
	}
	p = p.merge(opts.flags)
	if opts.offset < 0 {
		return fmt.Errorf("-offset must not be negative, got %d", opts.offset)
	}
	if p.Limit < 0 {
		return fmt.Errorf("-limit must not be negative, got %d", p.Limit)
	}

	kind := record.Kind(p.Kind)
	schema, ok := record.SchemaFor(kind)
	if !ok {
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	records, err := readRecords(opts.file, &schema)
	if err != nil {
		return err
	}
	log.Debug("Loaded records", "kind", kind, "count", len(records), "file", opts.file)

	if opts.suggest != "" {
		return printSuggestions(out, records, &schema, opts.suggest)
	}

	state, err := p.State(&schema, time.Now(), opts.recentDays)
	if err != nil {
		return err
	}

	start := time.Now()
	filtered := filter.Apply(records, &schema, state)
	if opts.alerts {
		filtered, _ = summary.Alerts(filtered, &schema)
		if state.Priority() == filter.PriorityNone {
			filtered = filter.Sort(filtered, &schema, filter.PriorityUrgency)
		}
	}
	sum := summary.Summarize(filtered, &schema)
	log.Debug("Pipeline done", "matched", len(filtered), "took", time.Since(start))

	page := filtered
	if opts.offset > 0 || p.Limit > 0 {
		limit := p.Limit
		if limit <= 0 {
			limit = len(filtered)
		}
		page = window(filtered, opts.offset, limit)
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Total   int             `json:"total"`
			Items   []record.Record `json:"items"`
			Summary summary.Summary `json:"summary"`
		}{len(filtered), page, sum})
	case "csv":
		return record.EncodeCSV(out, schema.Fields, page)
	case "table":
		if err := printTable(out, schema.Fields, page); err != nil {
			return err
		}
		printSummary(out, sum)
		return nil
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func readRecords(path string, schema *record.Schema) ([]record.Record, error) {
	if path == "" {
		return nil, errors.New("-file is required")
	}
	format, ok := recordsuc.FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: want a .json or .csv file", path)
	}
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer func() { _ = f.Close() }()

	recs, err := record.Decode(format, f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return schema.Canonicalize(recs), nil
}

// window is filter.Page without the page size cap.
func window(records []record.Record, offset, limit int) []record.Record {
	if offset >= len(records) {
		return nil
	}
	return records[offset:min(offset+limit, len(records))]
}

func printSuggestions(out io.Writer, records []record.Record, schema *record.Schema, q string) error {
	idx := suggest.NewIndex(suggest.Build(records, schema.Candidates), suggest.DefaultConfig())
	cands := idx.Suggest(q, 0)
	if len(cands) == 0 {
		if c, ok := idx.DidYouMean(q); ok {
			_, err := fmt.Fprintf(out, "no match, did you mean %q (%s)?\n", c.Label, c.Kind)
			return err
		}
		_, err := fmt.Fprintln(out, "no match")
		return err
	}
	for _, c := range cands {
		if _, err := fmt.Fprintf(out, "%-10s %s\n", c.Kind, c.Label); err != nil {
			return err
		}
	}
	return nil
}

func printTable(out io.Writer, columns []string, records []record.Record) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = r.Text(c)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}

func printSummary(out io.Writer, s summary.Summary) {
	fmt.Fprintf(out, "\ntotal %d, alerts %d\n", s.Total, s.Alerts)
	for _, b := range summary.Top(s.Grouped, 10) {
		fmt.Fprintf(out, "  %-30s %d\n", b.Label, b.Count)
	}
}
