// Package history records the activity log: one entry per item touched by a
// committed operation.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActionType classifies a log entry.
type ActionType string

const (
	ActionPlacement     ActionType = "placement"
	ActionRetrieval     ActionType = "retrieval"
	ActionRearrangement ActionType = "rearrangement"
	ActionDisposal      ActionType = "disposal"
	ActionSimulation    ActionType = "simulation"
)

// Details carries the movement and reason of an entry.
type Details struct {
	FromContainer string `json:"fromContainer,omitempty"`
	ToContainer   string `json:"toContainer,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Entry is one activity log line.
type Entry struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	UserID     string     `json:"userId,omitempty"`
	ActionType ActionType `json:"actionType"`
	ItemID     string     `json:"itemId,omitempty"`
	Details    Details    `json:"details"`
}

// NewEntry stamps a fresh ID on an entry.
func NewEntry(action ActionType, itemID, userID string, at time.Time, d Details) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Timestamp:  at.UTC(),
		UserID:     userID,
		ActionType: action,
		ItemID:     itemID,
		Details:    d,
	}
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Start      time.Time
	End        time.Time
	ItemID     string
	UserID     string
	ActionType ActionType
	Limit      int
}

// Match reports whether e passes every set field; the time window is inclusive.
func (f Filter) Match(e Entry) bool {
	if !f.Start.IsZero() && e.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Timestamp.After(f.End) {
		return false
	}
	if f.ItemID != "" && e.ItemID != f.ItemID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.ActionType != "" && e.ActionType != f.ActionType {
		return false
	}
	return true
}

// Backend defines the storage interface for entries.
type Backend interface {
	Append(ctx context.Context, entries ...Entry) error
	Load(ctx context.Context) ([]Entry, error)
}

// Client manages the activity log.
type Client struct {
	backend Backend
}

// NewClient initializes a history client.
// Defaults to an in-memory backend.
func NewClient(backend Backend) *Client {
	if backend == nil {
		backend = &MemoryBackend{}
	}
	return &Client{
		backend: backend,
	}
}

// Record appends entries in order.
func (c *Client) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return c.backend.Append(ctx, entries...)
}

// Query returns matching entries oldest first, keeping the newest Limit when set.
func (c *Client) Query(ctx context.Context, f Filter) ([]Entry, error) {
	all, err := c.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// NewLocalBackend creates a file-based backend at the specified path.
func NewLocalBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// FileBackend implements local JSONL storage.
type FileBackend struct {
	Path string
}

func (b *FileBackend) Append(ctx context.Context, entries ...Entry) error {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(b.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := encode(entries)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

func (b *FileBackend) Load(ctx context.Context) ([]Entry, error) {
	f, err := os.Open(b.Path)
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(bufio.NewScanner(f))
}

// MemoryBackend keeps entries in process; used by tests and ephemeral engines.
type MemoryBackend struct {
	mu      sync.Mutex
	entries []Entry
}

func (b *MemoryBackend) Append(ctx context.Context, entries ...Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entries...)
	return nil
}

func (b *MemoryBackend) Load(ctx context.Context) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...), nil
}

func encode(entries []Entry) ([]byte, error) {
	var out []byte
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out, nil
}

// decode skips malformed lines.
func decode(scanner *bufio.Scanner) ([]Entry, error) {
	var entries []Entry
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
