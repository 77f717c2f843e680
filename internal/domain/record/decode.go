package record

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/laya1n/Haseef-sub000/internal/domain"
)

// Upload formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Decode parses an uploaded batch in the given format.
func Decode(format string, r io.Reader) ([]Record, error) {
	switch format {
	case FormatJSON:
		return DecodeJSON(r)
	case FormatCSV:
		return DecodeCSV(r)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidBatch, format)
	}
}

// DecodeJSON reads either a JSON array of objects or an object with a "records" array.
// Nested objects and arrays are rejected: records are flat. Integers keep full
// precision; numbers beyond int64 keep their literal text.
func DecodeJSON(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	first, err := firstByte(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidBatch)
		}
		return nil, fmt.Errorf("read batch: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var rows []map[string]any
	if first == '[' {
		if err := dec.Decode(&rows); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBatch, err)
		}
	} else {
		var envelope struct {
			Records []map[string]any `json:"records"`
		}
		if err := dec.Decode(&envelope); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBatch, err)
		}
		rows = envelope.Records
	}

	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		for k, v := range row {
			switch x := v.(type) {
			case map[string]any, []any:
				return nil, fmt.Errorf("%w: record %d field %q is not a scalar", domain.ErrInvalidBatch, i, k)
			case json.Number:
				row[k] = jsonNumber(x)
			}
		}
		out = append(out, Record(row))
	}
	return out, nil
}

// firstByte peeks the first non-space byte without consuming it.
func firstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// jsonNumber narrows a decoded number to int64 or float64 when that is lossless.
func jsonNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if strings.ContainsAny(n.String(), ".eE") {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return n
}

// DecodeCSV reads a header row followed by data rows. Short rows leave trailing fields unset.
func DecodeCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty body", domain.ErrInvalidBatch)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBatch, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBatch, err)
		}
		rec := make(Record, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			rec[name] = row[i]
		}
		out = append(out, rec)
	}
	return out, nil
}

// EncodeCSV writes records under the given columns, header first.
func EncodeCSV(w io.Writer, columns []string, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(columns))
	for _, r := range records {
		for i, c := range columns {
			row[i] = r.Text(c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
