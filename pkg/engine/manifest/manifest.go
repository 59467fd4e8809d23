// Package manifest loads bulk container and item records from YAML and splits
// them into valid records and per-row errors.
package manifest

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DrSkyle/stowage/pkg/cargo"
)

type containerRow struct {
	ID     string  `yaml:"containerId"`
	Zone   string  `yaml:"zone"`
	Width  float64 `yaml:"width"`
	Depth  float64 `yaml:"depth"`
	Height float64 `yaml:"height"`
}

type itemRow struct {
	ID            string  `yaml:"itemId"`
	Name          string  `yaml:"name"`
	Width         float64 `yaml:"width"`
	Depth         float64 `yaml:"depth"`
	Height        float64 `yaml:"height"`
	Mass          float64 `yaml:"mass"`
	Priority      int     `yaml:"priority"`
	ExpiryDate    string  `yaml:"expiryDate"`
	UsageLimit    *int    `yaml:"usageLimit"`
	PreferredZone string  `yaml:"preferredZone"`
}

type document struct {
	Containers []containerRow `yaml:"containers"`
	Items      []itemRow      `yaml:"items"`
}

// Manifest is the validated content of an import file.
type Manifest struct {
	Containers      []cargo.Container `json:"containers"`
	Items           []cargo.Item      `json:"items"`
	ContainerErrors []cargo.RowError  `json:"containerErrors"`
	ItemErrors      []cargo.RowError  `json:"itemErrors"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML manifest. A malformed document is an error; a bad
// record is reported as a RowError and left out.
func Parse(data []byte) (*Manifest, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", cargo.ErrInvalidInput, err)
	}

	m := &Manifest{}

	containers := make([]cargo.Container, len(doc.Containers))
	for i, r := range doc.Containers {
		containers[i] = cargo.Container{
			ID:         r.ID,
			Zone:       r.Zone,
			Dimensions: cargo.Vec3{Width: r.Width, Depth: r.Depth, Height: r.Height},
		}
	}
	m.ContainerErrors = cargo.ValidateContainers(containers)
	m.Containers = keep(containers, m.ContainerErrors)

	items := make([]cargo.Item, len(doc.Items))
	var dateErrs []cargo.RowError
	for i, r := range doc.Items {
		it := cargo.Item{
			ID:            r.ID,
			Name:          r.Name,
			Dimensions:    cargo.Vec3{Width: r.Width, Depth: r.Depth, Height: r.Height},
			Mass:          r.Mass,
			Priority:      r.Priority,
			UsageLimit:    r.UsageLimit,
			PreferredZone: r.PreferredZone,
		}
		if r.ExpiryDate != "" {
			exp, err := parseDate(r.ExpiryDate)
			if err != nil {
				dateErrs = append(dateErrs, cargo.RowError{Row: i + 1, Message: fmt.Sprintf("item %s: %v", r.ID, err)})
			} else {
				it.ExpiryDate = &exp
			}
		}
		items[i] = it
	}
	m.ItemErrors = merge(dateErrs, cargo.ValidateItems(items))
	m.Items = keep(items, m.ItemErrors)

	return m, nil
}

// parseDate accepts a plain date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable expiry date %q", s)
	}
	return t.UTC(), nil
}

// merge keeps the first error reported for each row, ordered by row.
func merge(a, b []cargo.RowError) []cargo.RowError {
	seen := make(map[int]bool)
	var out []cargo.RowError
	for _, e := range append(append([]cargo.RowError(nil), a...), b...) {
		if seen[e.Row] {
			continue
		}
		seen[e.Row] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Row < out[j].Row })
	return out
}

func keep[T any](rows []T, errs []cargo.RowError) []T {
	bad := make(map[int]bool, len(errs))
	for _, e := range errs {
		bad[e.Row] = true
	}
	var out []T
	for i, r := range rows {
		if !bad[i+1] {
			out = append(out, r)
		}
	}
	return out
}
