// Package lazarus archives items that left the station with an undocked
// container, so a disposal can be audited after the fact.
package lazarus

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/storage"
)

// Tombstone is the last known record of a removed item.
type Tombstone struct {
	ItemID          string     `json:"itemId"`
	Item            cargo.Item `json:"item"`
	Reason          string     `json:"reason,omitempty"`
	SourceContainer string     `json:"sourceContainer"`
	UndockingDate   time.Time  `json:"undockingDate"`
	Timestamp       int64      `json:"timestamp"`
}

// NewTombstone creates a new preservation record.
func NewTombstone(it cargo.Item, reason cargo.WasteReason, container string, undocked time.Time) *Tombstone {
	return &Tombstone{
		ItemID:          it.ID,
		Item:            it.Clone(),
		Reason:          string(reason),
		SourceContainer: container,
		UndockingDate:   cargo.Day(undocked),
		Timestamp:       time.Now().Unix(),
	}
}

// Key is where the tombstone lives under prefix: {prefix}/{container}/{item}.json.
func (t *Tombstone) Key(prefix string) string {
	return path.Join(prefix, t.SourceContainer, fmt.Sprintf("%s.json", t.ItemID))
}

// Save writes the tombstone to the store.
func (t *Tombstone) Save(ctx context.Context, store storage.BlobStore, prefix string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize tombstone: %w", err)
	}
	return store.Put(ctx, t.Key(prefix), data)
}

// LoadTombstone reads a tombstone from the store.
func LoadTombstone(ctx context.Context, store storage.BlobStore, key string) (*Tombstone, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var t Tombstone
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tombstone: %w", err)
	}
	return &t, nil
}

// List loads every tombstone under prefix, ordered by key.
func List(ctx context.Context, store storage.BlobStore, prefix string) ([]*Tombstone, error) {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]*Tombstone, 0, len(keys))
	for _, k := range keys {
		t, err := LoadTombstone(ctx, store, k)
		if err != nil {
			return nil, fmt.Errorf("tombstone %s: %w", k, err)
		}
		out = append(out, t)
	}
	return out, nil
}
