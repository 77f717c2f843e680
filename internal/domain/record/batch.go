package record

import "time"

// BatchMeta describes a stored batch without its records.
type BatchMeta struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Count    int       `json:"count"`
	Source   string    `json:"source"` // "seed:<path>" or "upload:<format>"
	LoadedAt time.Time `json:"loaded_at"`
}

// Batch is an immutable snapshot of one kind's records. Replacing a batch
// always produces a new ID.
type Batch struct {
	BatchMeta
	Records []Record
}

// Upload is a raw upload kept in the archive.
type Upload struct {
	Key        string    `json:"key"`
	Kind       Kind      `json:"kind"`
	BatchID    string    `json:"batch_id"`
	Format     string    `json:"format"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}
