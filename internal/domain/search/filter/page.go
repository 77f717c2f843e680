package filter

import "github.com/laya1n/Haseef-sub000/internal/domain/record"

// DefaultPageSize is used when a host asks for a page without a limit.
const DefaultPageSize = 50

// MaxPageSize caps a single page.
const MaxPageSize = 1000

// Page returns the window [offset, offset+limit) of records.
// limit <= 0 selects DefaultPageSize; limits above MaxPageSize are capped.
func Page(records []record.Record, offset, limit int) []record.Record {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []record.Record{}
	}
	end := min(offset+limit, len(records))
	return records[offset:end]
}
