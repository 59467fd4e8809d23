// Package cargo defines the stowage domain records shared by every planner.
package cargo

import (
	"math"
	"time"
)

// Epsilon absorbs float noise in coordinate comparisons.
const Epsilon = 1e-9

// Vec3 is a point or extent in a container's local frame.
// Depth 0 is the open face of the container.
type Vec3 struct {
	Width  float64 `json:"width" yaml:"width"`
	Depth  float64 `json:"depth" yaml:"depth"`
	Height float64 `json:"height" yaml:"height"`
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{Width: v.Width + o.Width, Depth: v.Depth + o.Depth, Height: v.Height + o.Height}
}

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{Width: v.Width - o.Width, Depth: v.Depth - o.Depth, Height: v.Height - o.Height}
}

// Volume is the product of the three extents.
func (v Vec3) Volume() float64 {
	return v.Width * v.Depth * v.Height
}

// Positive reports whether every extent is strictly positive.
func (v Vec3) Positive() bool {
	return v.Width > 0 && v.Depth > 0 && v.Height > 0
}

// Equal compares within Epsilon.
func (v Vec3) Equal(o Vec3) bool {
	return math.Abs(v.Width-o.Width) <= Epsilon &&
		math.Abs(v.Depth-o.Depth) <= Epsilon &&
		math.Abs(v.Height-o.Height) <= Epsilon
}

// Container is an immutable storage volume.
type Container struct {
	ID         string `json:"containerId" yaml:"containerId"`
	Zone       string `json:"zone" yaml:"zone"`
	Dimensions Vec3   `json:"dimensions" yaml:"dimensions"`
}

// Volume of the container interior.
func (c Container) Volume() float64 {
	return c.Dimensions.Volume()
}

// Item is a flat record; optional fields are pointers.
type Item struct {
	ID            string     `json:"itemId" yaml:"itemId"`
	Name          string     `json:"name" yaml:"name"`
	Dimensions    Vec3       `json:"dimensions" yaml:"dimensions"`
	Mass          float64    `json:"mass" yaml:"mass"`
	Priority      int        `json:"priority" yaml:"priority"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty" yaml:"expiryDate,omitempty"`
	UsageLimit    *int       `json:"usageLimit,omitempty" yaml:"usageLimit,omitempty"`
	PreferredZone string     `json:"preferredZone,omitempty" yaml:"preferredZone,omitempty"`
}

// Volume of the item's bounding box.
func (i Item) Volume() float64 {
	return i.Dimensions.Volume()
}

// RemainingUses returns the usage counter, or math.MaxInt when unlimited.
func (i Item) RemainingUses() int {
	if i.UsageLimit == nil {
		return math.MaxInt
	}
	return *i.UsageLimit
}

// ExpiresBy reports whether the item is expired on the given date.
// Both sides are compared at day granularity.
func (i Item) ExpiresBy(date time.Time) bool {
	return i.ExpiryDate != nil && !Day(*i.ExpiryDate).After(Day(date))
}

// Clone deep-copies the optional fields.
func (i Item) Clone() Item {
	out := i
	if i.ExpiryDate != nil {
		t := *i.ExpiryDate
		out.ExpiryDate = &t
	}
	if i.UsageLimit != nil {
		n := *i.UsageLimit
		out.UsageLimit = &n
	}
	return out
}

// Position is an axis-aligned box inside a container.
type Position struct {
	Start Vec3 `json:"startCoordinates" yaml:"startCoordinates"`
	End   Vec3 `json:"endCoordinates" yaml:"endCoordinates"`
}

// NewPosition anchors dims at start.
func NewPosition(start, dims Vec3) Position {
	return Position{Start: start, End: start.Add(dims)}
}

// Size returns End-Start.
func (p Position) Size() Vec3 {
	return p.End.Sub(p.Start)
}

// Placement binds an item to a container position.
type Placement struct {
	ItemID      string   `json:"itemId" yaml:"itemId"`
	ContainerID string   `json:"containerId" yaml:"containerId"`
	Position    Position `json:"position" yaml:"position"`
}

// Action names a single physical step.
type Action string

const (
	ActionRemove    Action = "remove"
	ActionSetAside  Action = "setAside"
	ActionRetrieve  Action = "retrieve"
	ActionPlaceBack Action = "placeBack"
	ActionMove      Action = "move"
	ActionPlace     Action = "place"
)

// Location is a container plus a position; an empty container means the holding area.
type Location struct {
	ContainerID string    `json:"containerId,omitempty"`
	Position    *Position `json:"position,omitempty"`
}

// MoveStep is one numbered instruction of a plan.
type MoveStep struct {
	Step     int       `json:"step"`
	Action   Action    `json:"action"`
	ItemID   string    `json:"itemId"`
	ItemName string    `json:"itemName,omitempty"`
	From     *Location `json:"from,omitempty"`
	To       *Location `json:"to,omitempty"`
}

// Renumber assigns consecutive step numbers starting at first.
func Renumber(steps []MoveStep, first int) []MoveStep {
	for i := range steps {
		steps[i].Step = first + i
	}
	return steps
}

// WasteReason classifies why an item must leave the station.
type WasteReason string

const (
	ReasonExpired   WasteReason = "Expired"
	ReasonOutOfUses WasteReason = "Out of Uses"
)

// WasteRecord is an item flagged for return.
type WasteRecord struct {
	ItemID       string      `json:"itemId"`
	Name         string      `json:"name"`
	Reason       WasteReason `json:"reason"`
	ClassifiedOn time.Time   `json:"classifiedOn"`
	Placement    *Placement  `json:"placement,omitempty"`
}

// UnplacedReason explains a per-item placement failure.
type UnplacedReason string

const (
	UnplacedNoCapacity UnplacedReason = "NoCapacity"
	UnplacedBlocked    UnplacedReason = "BlockedByPolicy"
)

// Unplaced reports an item the planner could not store.
type Unplaced struct {
	ItemID string         `json:"itemId"`
	Reason UnplacedReason `json:"reason"`
	Detail string         `json:"detail,omitempty"`
}

// RowError reports an invalid imported record; rows are 1-based.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ManifestItem is one entry on a return manifest.
type ManifestItem struct {
	ItemID          string      `json:"itemId"`
	Name            string      `json:"name"`
	Reason          WasteReason `json:"reason"`
	Mass            float64     `json:"mass"`
	Volume          float64     `json:"volume"`
	SourceContainer string      `json:"sourceContainer,omitempty"`
}

// ReturnManifest summarises what leaves with an undocking container.
type ReturnManifest struct {
	UndockingContainerID string         `json:"undockingContainerId"`
	UndockingDate        time.Time      `json:"undockingDate"`
	Items                []ManifestItem `json:"returnItems"`
	Remaining            []ManifestItem `json:"remainingItems"`
	TotalVolume          float64        `json:"totalVolume"`
	TotalMass            float64        `json:"totalWeight"`
	MaxWeight            float64        `json:"maxWeight"`
	BudgetExceeded       bool           `json:"budgetExceeded"`
	AdditionalUndockings int            `json:"additionalUndockings"`
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
