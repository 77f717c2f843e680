package records

import (
	"context"

	"github.com/laya1n/Haseef-sub000/internal/domain/record"
)

// BatchRepository defines the storage contract for record batches.
type BatchRepository interface {
	Meta(ctx context.Context, kind record.Kind) (record.BatchMeta, error)
	MetaAll(ctx context.Context, kinds []record.Kind) ([]record.BatchMeta, error)
	Load(ctx context.Context, kind record.Kind) (record.Batch, error)
	Save(ctx context.Context, b record.Batch) error
}

// UploadArchive keeps raw uploads.
type UploadArchive interface {
	Put(ctx context.Context, kind record.Kind, batchID, format string, raw []byte) (record.Upload, error)
	List(ctx context.Context, kind record.Kind) ([]record.Upload, error)
	Get(ctx context.Context, kind record.Kind, batchID, format string) ([]byte, error)
}
