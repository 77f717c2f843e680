package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/filter"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func drugsSchema(t *testing.T) *record.Schema {
	t.Helper()
	sc, ok := record.SchemaFor(record.Drugs)
	if !ok {
		t.Fatal("drugs schema missing")
	}
	return &sc
}

func TestLoadPresets(t *testing.T) {
	path := writeFile(t, "presets.toml", `
recent_days = 3

[presets.cheap_para]
kind = "drugs"
q = "para"
max = 20.0
sort = "amount"

[presets.cheap_para.filters]
doctor = "dr. ahmed ali"
`)

	f, err := loadPresets(path)
	if err != nil {
		t.Fatalf("loadPresets: %v", err)
	}
	if f.RecentDays != 3 {
		t.Errorf("RecentDays = %d, want 3", f.RecentDays)
	}
	p, ok := f.Presets["cheap_para"]
	if !ok {
		t.Fatal("preset cheap_para missing")
	}
	if p.Kind != "drugs" || p.Query != "para" || p.Sort != "amount" {
		t.Errorf("preset = %+v", p)
	}
	if p.Max == nil || *p.Max != 20 {
		t.Errorf("Max = %v, want 20", p.Max)
	}
	if p.Min != nil {
		t.Errorf("Min = %v, want nil", *p.Min)
	}
	if p.Filters["doctor"] != "dr. ahmed ali" {
		t.Errorf("Filters = %v", p.Filters)
	}
}

func TestLoadPresets_DefaultRecentDays(t *testing.T) {
	path := writeFile(t, "presets.toml", "[presets.all]\nkind = \"medical\"\n")

	f, err := loadPresets(path)
	if err != nil {
		t.Fatalf("loadPresets: %v", err)
	}
	if f.RecentDays != 7 {
		t.Errorf("RecentDays = %d, want 7", f.RecentDays)
	}
}

func TestLoadPresets_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[presets.x]\nkind = \"drugs\"\nqeury = \"typo\"\n", "qeury"},
		{"bad syntax", "[presets.x\n", "decode presets"},
		{"wrong type", "recent_days = \"seven\"\n", "decode presets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "presets.toml", tt.content)
			_, err := loadPresets(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadPresets_MissingFile(t *testing.T) {
	if _, err := loadPresets(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPresetMerge(t *testing.T) {
	lo := 5.0
	base := Preset{
		Kind:    "drugs",
		Query:   "para",
		Period:  "last_week",
		Sort:    "amount",
		Limit:   10,
		Filters: map[string]string{"doctor": "Dr. Ahmed Ali", "drug": "Paracetamol"},
	}

	got := base.merge(Preset{
		Query:   "ibu",
		From:    "2024-03-01",
		Min:     &lo,
		Filters: map[string]string{"drug": "Ibuprofen"},
	})

	if got.Kind != "drugs" || got.Sort != "amount" || got.Limit != 10 {
		t.Errorf("unset fields changed: %+v", got)
	}
	if got.Query != "ibu" {
		t.Errorf("Query = %q, want ibu", got.Query)
	}
	if got.Period != "" || got.From != "2024-03-01" {
		t.Errorf("explicit dates should replace the period: period=%q from=%q", got.Period, got.From)
	}
	if got.Min == nil || *got.Min != 5 {
		t.Errorf("Min = %v, want 5", got.Min)
	}
	if got.Filters["doctor"] != "Dr. Ahmed Ali" || got.Filters["drug"] != "Ibuprofen" {
		t.Errorf("Filters = %v", got.Filters)
	}
	if base.Filters["drug"] != "Paracetamol" {
		t.Error("merge modified the base filters")
	}
}

func TestPresetState(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	schema := drugsSchema(t)

	s, err := Preset{
		Query:   "para",
		Period:  "last_week",
		Sort:    "amount",
		Filters: map[string]string{"doctor": "dr. ahmed ali", "drug": "all"},
	}.State(schema, now, 7)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if s.Query() != "para" {
		t.Errorf("Query = %q", s.Query())
	}
	if s.Priority() != filter.PriorityAmount {
		t.Errorf("Priority = %q", s.Priority())
	}
	if s.From() == nil || !s.From().Equal(time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("From = %v, want 2025-03-06", s.From())
	}
	if v, ok := s.Category("doctor_name"); !ok || v != "Dr. Ahmed Ali" {
		t.Errorf("doctor_name = %q, %v", v, ok)
	}
	if _, ok := s.Category("service_description"); ok {
		t.Error("drug=all should not filter")
	}
}

func TestPresetState_MedicalCode(t *testing.T) {
	sc, _ := record.SchemaFor(record.Medical)
	s, err := Preset{Filters: map[string]string{"icd": "e11.9", "patient": "sara omar"}}.State(&sc, time.Now(), 7)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if field, root, ok := s.Code(); !ok || field != "ICD10CODE" || root != "E11" {
		t.Errorf("Code() = %q, %q, %v", field, root, ok)
	}
	if v, ok := s.Category("patient_name"); !ok || v != "Sara Omar" {
		t.Errorf("patient_name = %q, %v", v, ok)
	}

	// Drugs carry no diagnosis codes.
	if _, err := (Preset{Filters: map[string]string{"icd": "E11"}}).State(drugsSchema(t), time.Now(), 7); err == nil {
		t.Error("icd filter accepted for drugs")
	}
}

func TestPresetState_Errors(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	schema := drugsSchema(t)

	tests := []struct {
		name   string
		preset Preset
		field  string
	}{
		{"unknown period", Preset{Period: "yesterday"}, "period"},
		{"foreign filter", Preset{Filters: map[string]string{"company": "Acme"}}, "company"},
		{"bad sort", Preset{Sort: "alphabetical"}, "sort"},
		{"bad date", Preset{From: "soon"}, "from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.preset.State(schema, now, 7)
			if !errors.Is(err, domain.ErrInvalidFilter) {
				t.Fatalf("error = %v, want ErrInvalidFilter", err)
			}
			var fe *domain.FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Errorf("field error = %v, want field %s", err, tt.field)
			}
		})
	}
}

const drugsFixture = `[
 {"Name":"Dr. Ahmed Ali","Patient Name":"Sara","ServiceCode":"P100","ServiceDescription":"Paracetamol","Net Amount":12.5,"Treatment Date":"2024-03-01"},
 {"Name":"Dr. Ahmed Ali","Patient Name":"Omar","ServiceCode":"I200","ServiceDescription":"Ibuprofen","Net Amount":30,"Treatment Date":"2024-03-05"},
 {"Name":"Dr. Mona Saleh","Patient Name":"Laila","ServiceCode":"A300","ServiceDescription":"Amoxicillin","Net Amount":55,"Treatment Date":"2024-02-20"}
]`

func TestRun_JSON(t *testing.T) {
	file := writeFile(t, "drugs.json", drugsFixture)
	lo := 20.0

	var out bytes.Buffer
	err := run(options{
		file:   file,
		format: "json",
		flags:  Preset{Kind: "drugs", Min: &lo, Sort: "amount"},
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var got struct {
		Total int             `json:"total"`
		Items []record.Record `json:"items"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.Total != 2 || len(got.Items) != 2 {
		t.Fatalf("total = %d, items = %d, want 2", got.Total, len(got.Items))
	}
	if name := got.Items[0].Text("service_description"); name != "Amoxicillin" {
		t.Errorf("first item = %q, want Amoxicillin", name)
	}
}

func TestRun_PresetAndLimit(t *testing.T) {
	file := writeFile(t, "drugs.json", drugsFixture)
	presets := writeFile(t, "presets.toml", `
[presets.ahmed]
kind = "drugs"

[presets.ahmed.filters]
doctor = "Dr. Ahmed Ali"
`)

	var out bytes.Buffer
	err := run(options{
		file:    file,
		presets: presets,
		preset:  "ahmed",
		format:  "csv",
		flags:   Preset{Limit: 1},
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d csv lines, want header plus 1:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "Ahmed") {
		t.Errorf("row = %q, want an Ahmed record", lines[1])
	}
}

func TestRun_Suggest(t *testing.T) {
	file := writeFile(t, "drugs.json", drugsFixture)

	var out bytes.Buffer
	if err := run(options{file: file, suggest: "ibu", flags: Preset{Kind: "drugs"}}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Ibuprofen") {
		t.Errorf("output %q does not offer Ibuprofen", out.String())
	}
}

func TestRun_MedicalAlerts(t *testing.T) {
	file := writeFile(t, "medical.json", `[
 {"Name":"Dr. Ahmed Ali","Patient Name":"Sara","ICD10CODE":"E11.9","EMER_IND":"N","REFER_IND":"Y"},
 {"Name":"Dr. Ahmed Ali","Patient Name":"Omar","ICD10CODE":"E11.2","EMER_IND":"N","REFER_IND":"N"},
 {"Name":"Dr. Mona Saleh","Patient Name":"Laila","ICD10CODE":"E11","EMER_IND":"Y","REFER_IND":"N"},
 {"Name":"Dr. Mona Saleh","Patient Name":"Huda","ICD10CODE":"J45","EMER_IND":"Y","REFER_IND":"N"}
]`)

	var out bytes.Buffer
	err := run(options{
		file:   file,
		format: "json",
		alerts: true,
		flags:  Preset{Kind: "medical", Filters: map[string]string{"icd": "E11"}},
	}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var got struct {
		Total int              `json:"total"`
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if got.Total != 2 || len(got.Items) != 2 ||
		got.Items[0]["patient_name"] != "Laila" || got.Items[1]["patient_name"] != "Sara" {
		t.Errorf("alerts = %+v, want Laila then Sara", got)
	}
}

func TestRun_Errors(t *testing.T) {
	file := writeFile(t, "drugs.json", drugsFixture)

	tests := []struct {
		name string
		opts options
		want string
	}{
		{"unknown kind", options{file: file, flags: Preset{Kind: "dental"}}, "unknown kind"},
		{"missing file flag", options{flags: Preset{Kind: "drugs"}}, "-file"},
		{"bad extension", options{file: "records.xlsx", flags: Preset{Kind: "drugs"}}, ".json or .csv"},
		{"preset without file", options{file: file, preset: "x", flags: Preset{Kind: "drugs"}}, "-presets"},
		{"unknown format", options{file: file, format: "yaml", flags: Preset{Kind: "drugs"}}, "unknown format"},
		{"negative offset", options{file: file, offset: -1, flags: Preset{Kind: "drugs", Limit: 5}}, "-offset"},
		{"negative limit", options{file: file, flags: Preset{Kind: "drugs", Limit: -2}}, "-limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.opts, &bytes.Buffer{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
