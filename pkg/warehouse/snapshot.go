package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DrSkyle/stowage/pkg/storage"
)

// Load reads a snapshot from store. A missing key yields a fresh state on startDate.
func Load(ctx context.Context, store storage.BlobStore, key string, startDate time.Time) (*State, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return New(startDate), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	s := New(startDate)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	s.fillMaps()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the state as indented JSON.
func Save(ctx context.Context, store storage.BlobStore, key string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return store.Put(ctx, key, data)
}

func (s *State) fillMaps() {
	if s.Containers == nil {
		s.Containers = New(s.CurrentDate).Containers
	}
	if s.Items == nil {
		s.Items = New(s.CurrentDate).Items
	}
	if s.Placements == nil {
		s.Placements = New(s.CurrentDate).Placements
	}
	if s.Waste == nil {
		s.Waste = New(s.CurrentDate).Waste
	}
	if s.Returns == nil {
		s.Returns = New(s.CurrentDate).Returns
	}
}
