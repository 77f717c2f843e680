package record

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/laya1n/Haseef-sub000/internal/domain"
)

func TestDecodeJSON_Array(t *testing.T) {
	recs, err := DecodeJSON(strings.NewReader(`[{"doctor_name":"Sara Omar","net_amount":15}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Text("doctor_name") != "Sara Omar" || recs[0].Number("net_amount") != 15 {
		t.Errorf("unexpected record %v", recs[0])
	}
}

func TestDecodeJSON_Envelope(t *testing.T) {
	recs, err := DecodeJSON(strings.NewReader(` {"records":[{"a":"1"},{"a":null}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[1].Text("a") != "" {
		t.Error("null should read as empty")
	}
}

func TestDecodeJSON_NumberPrecision(t *testing.T) {
	body := `[{"inv_no": 12345678901234567, "net_amount": 12.5, "ref": 123456789012345678901234567890}]`
	recs, err := DecodeJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := recs[0]
	if got := r.Text("inv_no"); got != "12345678901234567" {
		t.Errorf("inv_no text = %q, want 12345678901234567", got)
	}
	if got := r.Number("net_amount"); got != 12.5 {
		t.Errorf("net_amount = %v, want 12.5", got)
	}
	if got := r.Text("ref"); got != "123456789012345678901234567890" {
		t.Errorf("ref text = %q", got)
	}
	if got := r.Number("ref"); got < 1.2e29 {
		t.Errorf("ref number = %v", got)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", "  "},
		{"malformed", "[{"},
		{"nested object", `[{"a":{"b":1}}]`},
		{"nested array", `{"records":[{"a":[1,2]}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tc.body))
			if !errors.Is(err, domain.ErrInvalidBatch) {
				t.Errorf("expected ErrInvalidBatch, got %v", err)
			}
		})
	}
}

func TestDecodeCSV(t *testing.T) {
	body := "\ufeffdoctor_name, net_amount,date\n" +
		"\"Dr. Ahmed, Ali\",10,2024-01-31\n" +
		"Sara Omar,20\n"

	recs, err := DecodeCSV(strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Text("doctor_name") != "Dr. Ahmed, Ali" {
		t.Errorf("quoted field: %v", recs[0])
	}
	if recs[0].Number("net_amount") != 10 {
		t.Errorf("trimmed header not applied: %v", recs[0])
	}
	if _, ok := recs[1]["date"]; ok {
		t.Error("short row should leave trailing field unset")
	}
}

func TestDecodeCSV_Empty(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	if !errors.Is(err, domain.ErrInvalidBatch) {
		t.Errorf("expected ErrInvalidBatch, got %v", err)
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := Decode("xlsx", strings.NewReader("x"))
	if !errors.Is(err, domain.ErrInvalidBatch) {
		t.Errorf("expected ErrInvalidBatch, got %v", err)
	}
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	recs := []Record{
		{"doctor_name": "Dr. Ahmed, Ali", "net_amount": 10.5},
		{"doctor_name": "Sara"},
	}
	if err := EncodeCSV(&buf, []string{"doctor_name", "net_amount"}, recs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "doctor_name,net_amount\n\"Dr. Ahmed, Ali\",10.5\nSara,\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}
