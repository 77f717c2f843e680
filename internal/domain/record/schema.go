package record

import "strings"

// Kind is a record family served by the dashboard.
type Kind string

// Record kinds.
const (
	Medical   Kind = "medical"
	Insurance Kind = "insurance"
	Drugs     Kind = "drugs"
)

// Kinds lists every kind in display order.
func Kinds() []Kind { return []Kind{Medical, Insurance, Drugs} }

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Medical || k == Insurance || k == Drugs
}

// Candidate kinds offered by autocomplete.
const (
	CandidateDoctor  = "doctor"
	CandidatePatient = "patient"
	CandidateDrug    = "drug"
	CandidateCode    = "code"
	CandidateCompany = "company"
	CandidateText    = "text"
)

// CandidateField marks a field whose distinct values feed autocomplete.
type CandidateField struct {
	Field string
	Kind  string
}

// Categorical is an equality filter exposed under a query parameter name.
type Categorical struct {
	Param string
	Field string
}

// Grouping selects the bucket key of the grouped count table.
// FirstName extracts the first non-honorific token (doctor charts).
type Grouping struct {
	Field     string
	FirstName bool
}

// Schema tells the pipeline which fields of a kind to read.
type Schema struct {
	Kind           Kind
	Fields         []string // export column order
	Searchable     []string
	Priority       []string // subset of Searchable whose prefix hits rank first
	Candidates     []CandidateField
	Categorical    []Categorical
	CodeFilter     Categorical // matched on the diagnosis code root; zero when the kind has no codes
	NumericField   string
	DateField      string
	EmergencyField string
	ReferralField  string
	DistinctFields []string
	Grouping       Grouping
	// Aliases maps spreadsheet headers to field names.
	Aliases map[string]string
}

// CategoricalByParam finds the categorical filter bound to a query parameter.
func (s *Schema) CategoricalByParam(param string) (Categorical, bool) {
	for _, c := range s.Categorical {
		if c.Param == param {
			return c, true
		}
	}
	return Categorical{}, false
}

// Canonicalize renames aliased columns to field names. Input records are not modified;
// records without aliased columns are returned as-is.
func (s *Schema) Canonicalize(records []Record) []Record {
	if len(s.Aliases) == 0 {
		return records
	}
	aliases := make(map[string]string, len(s.Aliases))
	for k, v := range s.Aliases {
		aliases[foldHeader(k)] = v
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r
		renamed := false
		for k := range r {
			if _, ok := aliases[foldHeader(k)]; ok {
				renamed = true
				break
			}
		}
		if !renamed {
			continue
		}
		c := make(Record, len(r))
		for k, v := range r {
			if name, ok := aliases[foldHeader(k)]; ok && name != k {
				if _, taken := r[name]; !taken {
					c[name] = v
				}
				continue
			}
			c[k] = v
		}
		out[i] = c
	}
	return out
}

func foldHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// SchemaFor returns the built-in schema of a kind.
func SchemaFor(kind Kind) (Schema, bool) {
	s, ok := DefaultSchemas()[kind]
	return s, ok
}

// DefaultSchemas returns the built-in schemas, keyed by kind.
func DefaultSchemas() map[Kind]Schema {
	return map[Kind]Schema{
		Medical:   medicalSchema(),
		Insurance: insuranceSchema(),
		Drugs:     drugsSchema(),
	}
}

func medicalSchema() Schema {
	fields := []string{
		"doctor_name", "patient_name", "treatment_date", "ICD10CODE",
		"chief_complaint", "significant_signs", "claim_type",
		"refer_ind", "emer_ind", "contract",
	}
	return Schema{
		Kind:       Medical,
		Fields:     fields,
		Searchable: fields,
		Priority:   []string{"doctor_name", "patient_name", "ICD10CODE"},
		Candidates: []CandidateField{
			{Field: "doctor_name", Kind: CandidateDoctor},
			{Field: "patient_name", Kind: CandidatePatient},
			{Field: "ICD10CODE", Kind: CandidateCode},
		},
		Categorical: []Categorical{
			{Param: "doctor", Field: "doctor_name"},
			{Param: "patient", Field: "patient_name"},
			{Param: "claim_type", Field: "claim_type"},
		},
		CodeFilter:     Categorical{Param: "icd", Field: "ICD10CODE"},
		DateField:      "treatment_date",
		EmergencyField: "emer_ind",
		ReferralField:  "refer_ind",
		DistinctFields: []string{"doctor_name", "patient_name"},
		Grouping:       Grouping{Field: "doctor_name", FirstName: true},
		Aliases: map[string]string{
			"Name":              "doctor_name",
			"Patient Name":      "patient_name",
			"Treatment Date":    "treatment_date",
			"Chief Complaint":   "chief_complaint",
			"SignificantSignes": "significant_signs",
			"CLAIM_TYPE":        "claim_type",
			"REFER_IND":         "refer_ind",
			"EMER_IND":          "emer_ind",
			"Contract":          "contract",
		},
	}
}

func insuranceSchema() Schema {
	return Schema{
		Kind: Insurance,
		Fields: []string{
			"inv_no", "company", "contract", "claim_type",
			"gross_amount_no_vat", "vat_amount", "discount", "deductible",
			"special_discount", "net_amount", "pay_to",
			"refer_ind", "emer_ind", "treatment_date",
		},
		Searchable: []string{
			"inv_no", "company", "contract", "claim_type", "pay_to", "treatment_date",
		},
		Priority: []string{"company", "inv_no"},
		Candidates: []CandidateField{
			{Field: "company", Kind: CandidateCompany},
			{Field: "claim_type", Kind: CandidateText},
			{Field: "pay_to", Kind: CandidateText},
		},
		Categorical: []Categorical{
			{Param: "company", Field: "company"},
			{Param: "claim_type", Field: "claim_type"},
		},
		NumericField:   "net_amount",
		DateField:      "treatment_date",
		EmergencyField: "emer_ind",
		ReferralField:  "refer_ind",
		DistinctFields: []string{"company"},
		Grouping:       Grouping{Field: "company"},
		Aliases: map[string]string{
			"INV NO.":           "inv_no",
			"Company":           "company",
			"Contract":          "contract",
			"CLAIM_TYPE":        "claim_type",
			"Gross_AmountNoVat": "gross_amount_no_vat",
			"Vat Amount":        "vat_amount",
			"Discount":          "discount",
			"Deductible":        "deductible",
			"Special Discount":  "special_discount",
			"Net Amount":        "net_amount",
			"Pay to":            "pay_to",
			"REFER_IND":         "refer_ind",
			"EMER_IND":          "emer_ind",
			"Treatment Date":    "treatment_date",
		},
	}
}

func drugsSchema() Schema {
	fields := []string{
		"doctor_name", "patient_name", "service_code", "service_description",
		"quantity", "item_unit_price", "gross_amount", "vat_amount",
		"discount", "net_amount", "date",
	}
	return Schema{
		Kind:       Drugs,
		Fields:     fields,
		Searchable: fields,
		Priority:   []string{"doctor_name", "service_description", "service_code"},
		Candidates: []CandidateField{
			{Field: "doctor_name", Kind: CandidateDoctor},
			{Field: "service_description", Kind: CandidateDrug},
			{Field: "patient_name", Kind: CandidatePatient},
			{Field: "service_code", Kind: CandidateCode},
		},
		Categorical: []Categorical{
			{Param: "doctor", Field: "doctor_name"},
			{Param: "drug", Field: "service_description"},
		},
		NumericField:   "net_amount",
		DateField:      "date",
		DistinctFields: []string{"doctor_name", "service_description"},
		Grouping:       Grouping{Field: "service_description"},
		Aliases: map[string]string{
			"Name":               "doctor_name",
			"Patient Name":       "patient_name",
			"ServiceCode":        "service_code",
			"ServiceDescription": "service_description",
			"QTY":                "quantity",
			"Item_Unit_Price":    "item_unit_price",
			"Gross Amount":       "gross_amount",
			"VAT Amount":         "vat_amount",
			"Discount":           "discount",
			"Net Amount":         "net_amount",
			"Treatment Date":     "date",
		},
	}
}
