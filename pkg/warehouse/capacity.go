package warehouse

import (
	"sort"
	"time"
)

// ContainerUsage is one row of the capacity dashboard.
type ContainerUsage struct {
	ContainerID    string  `json:"containerId"`
	Zone           string  `json:"zone"`
	Volume         float64 `json:"volume"`
	OccupiedVolume float64 `json:"occupiedVolume"`
	Utilization    float64 `json:"utilization"`
	ItemCount      int     `json:"itemCount"`
}

// Status summarises the warehouse.
type Status struct {
	CurrentDate    time.Time        `json:"currentDate"`
	Containers     []ContainerUsage `json:"containers"`
	TotalVolume    float64          `json:"totalVolume"`
	OccupiedVolume float64          `json:"occupiedVolume"`
	KnownItems     int              `json:"knownItems"`
	StoredItems    int              `json:"storedItems"`
	WasteItems     int              `json:"wasteItems"`
	PendingReturns []string         `json:"pendingReturns"`
}

// Status computes per-container utilization in insertion order.
func (s *State) Status() Status {
	out := Status{
		CurrentDate: s.CurrentDate,
		KnownItems:  len(s.Items),
		StoredItems: len(s.Placements),
		WasteItems:  len(s.Waste),
	}
	for _, sp := range s.Layout().Spaces() {
		u := ContainerUsage{
			ContainerID:    sp.Container.ID,
			Zone:           sp.Container.Zone,
			Volume:         sp.Container.Volume(),
			OccupiedVolume: sp.OccupiedVolume(),
			ItemCount:      sp.Len(),
		}
		if u.Volume > 0 {
			u.Utilization = u.OccupiedVolume / u.Volume
		}
		out.TotalVolume += u.Volume
		out.OccupiedVolume += u.OccupiedVolume
		out.Containers = append(out.Containers, u)
	}
	for id := range s.Returns {
		out.PendingReturns = append(out.PendingReturns, id)
	}
	sort.Strings(out.PendingReturns)
	return out
}
