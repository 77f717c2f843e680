package batch

// Hash fields of the batch meta key.
const (
	fieldID       = "id"
	fieldCount    = "count"
	fieldSource   = "source"
	fieldLoadedAt = "loaded_at"
)
