// Package archive keeps the raw bytes of every accepted upload in object storage.
package archive

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/laya1n/Haseef-sub000/internal/domain"
	"github.com/laya1n/Haseef-sub000/internal/domain/record"
)

// Object describes a stored object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the object storage backend (S3 or in-memory).
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Repo archives raw uploads under {prefix}{kind}/{batchID}.{format}.
type Repo struct {
	objects ObjectStore
	prefix  string
}

// New creates an archive repository.
func New(objects ObjectStore, prefix string) *Repo {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Repo{objects: objects, prefix: prefix}
}

// Put stores the raw upload of batchID.
func (r *Repo) Put(ctx context.Context, kind record.Kind, batchID, format string, raw []byte) (record.Upload, error) {
	key := r.key(kind, batchID, format)
	if err := r.objects.Put(ctx, key, raw); err != nil {
		return record.Upload{}, fmt.Errorf("archive upload %s: %w", batchID, err)
	}
	return record.Upload{
		Key:        key,
		Kind:       kind,
		BatchID:    batchID,
		Format:     format,
		Size:       int64(len(raw)),
		UploadedAt: time.Now().UTC(),
	}, nil
}

// List returns archived uploads of kind, newest first.
func (r *Repo) List(ctx context.Context, kind record.Kind) ([]record.Upload, error) {
	objs, err := r.objects.List(ctx, r.kindPrefix(kind))
	if err != nil {
		return nil, fmt.Errorf("list uploads %s: %w", kind, err)
	}
	out := make([]record.Upload, 0, len(objs))
	for _, o := range objs {
		base := path.Base(o.Key)
		ext := path.Ext(base)
		out = append(out, record.Upload{
			Key:        o.Key,
			Kind:       kind,
			BatchID:    strings.TrimSuffix(base, ext),
			Format:     strings.TrimPrefix(ext, "."),
			Size:       o.Size,
			UploadedAt: o.LastModified,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// Get returns the raw bytes of an archived upload.
func (r *Repo) Get(ctx context.Context, kind record.Kind, batchID, format string) ([]byte, error) {
	data, err := r.objects.Get(ctx, r.key(kind, batchID, format))
	if err != nil {
		return nil, fmt.Errorf("get upload %s: %w", batchID, err)
	}
	return data, nil
}

func (r *Repo) kindPrefix(kind record.Kind) string {
	return r.prefix + string(kind) + "/"
}

func (r *Repo) key(kind record.Kind, batchID, format string) string {
	return r.kindPrefix(kind) + batchID + "." + format
}

// errNotFound builds the missing-object error shared by backends.
func errNotFound(key string) error {
	return fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
}
