package filter

import (
	"regexp"
	"strings"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
	"github.com/laya1n/Haseef-sub000/internal/domain/search/normalize"
)

// codePattern finds an ICD-10 style code: a letter, one or two digits, an optional subcode.
var codePattern = regexp.MustCompile(`[A-Za-z]\d{1,2}(?:\.\d+)?`)

// codeFilter matches a diagnosis code field by code root.
type codeFilter struct {
	field string
	root  string // upper-case root of a recognised code, "" for free text
	text  string // normalized input, used when no code was recognised
}

// WithCodeRoot keeps records whose code field shares the root of code, so
// "E11" and "E11.9" both match "E11.2". Input without a recognisable code
// matches as a normalized substring. An empty code or "all" leaves the field unfiltered.
func WithCodeRoot(field, code string) Option {
	return func(s *State) error {
		if field == "" {
			return domain.NewFieldError("code", "field is required")
		}
		code = strings.TrimSpace(code)
		if _, ok := allValues[strings.ToLower(code)]; ok || code == "" {
			s.code = nil
			return nil
		}
		cf := &codeFilter{field: field}
		if root := CodeRoot(code); root != "" {
			cf.root = root
		} else {
			cf.text = normalize.Normalize(code)
		}
		s.code = cf
		return nil
	}
}

// CodeRoot returns the upper-case root of the first code found in v ("e11.9" gives "E11"),
// or "" when v holds no code.
func CodeRoot(v string) string {
	code := codePattern.FindString(v)
	if code == "" {
		return ""
	}
	root, _, _ := strings.Cut(code, ".")
	return strings.ToUpper(root)
}

func (c *codeFilter) match(v string) bool {
	if c.root != "" {
		return strings.HasPrefix(CodeRoot(v), c.root)
	}
	return c.text != "" && strings.Contains(normalize.Normalize(v), c.text)
}

// Codes keeps records whose code field matches the active code filter.
func Codes(records []record.Record, s State) []record.Record {
	if s.code == nil || len(records) == 0 {
		return records
	}
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if s.code.match(r.Text(s.code.field)) {
			out = append(out, r)
		}
	}
	return out
}
