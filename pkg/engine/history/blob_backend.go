package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/DrSkyle/stowage/pkg/storage"
)

// BlobBackend stores the log as one JSONL object in a blob store (e.g. S3).
type BlobBackend struct {
	Store storage.BlobStore
	Key   string

	mu sync.Mutex
}

// NewBlobBackend initializes a blob-backed log.
func NewBlobBackend(store storage.BlobStore, key string) *BlobBackend {
	return &BlobBackend{Store: store, Key: key}
}

func (b *BlobBackend) Append(ctx context.Context, entries ...Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Object stores have no append: read-modify-write.
	existing, err := b.Store.Get(ctx, b.Key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	data, err := encode(entries)
	if err != nil {
		return err
	}
	return b.Store.Put(ctx, b.Key, append(existing, data...))
}

func (b *BlobBackend) Load(ctx context.Context) ([]Entry, error) {
	data, err := b.Store.Get(ctx, b.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(bufio.NewScanner(bytes.NewReader(data)))
}
