// Package depletion advances the simulated clock one day at a time, consuming
// item uses and classifying expired or exhausted items as waste.
package depletion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// UsageRef names an item used every simulated day, by ID or by name.
type UsageRef struct {
	ItemID string `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Request advances by Days or to ToDate; exactly one must be set.
type Request struct {
	Days            *int       `json:"numOfDays,omitempty"`
	ToDate          *time.Time `json:"toTimestamp,omitempty"`
	ItemsUsedPerDay []UsageRef `json:"itemsToBeUsedPerDay,omitempty"`
}

// ItemRef identifies an item in a result list.
type ItemRef struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
}

// UsedItem reports an item's uses left after the advance; nil means unlimited.
type UsedItem struct {
	ItemID        string `json:"itemId"`
	Name          string `json:"name"`
	RemainingUses *int   `json:"remainingUses"`
}

// Result summarises an advance.
type Result struct {
	NewDate       time.Time  `json:"newDate"`
	ItemsUsed     []UsedItem `json:"itemsUsed"`
	ItemsExpired  []ItemRef  `json:"itemsExpired"`
	ItemsDepleted []ItemRef  `json:"itemsDepletedToday"`
}

// days validates req against the current date and returns the number of days to simulate.
func (r Request) days(current time.Time) (int, error) {
	switch {
	case r.Days != nil && r.ToDate != nil:
		return 0, fmt.Errorf("%w: give either days or a target date, not both", cargo.ErrInvalidInput)
	case r.Days == nil && r.ToDate == nil:
		return 0, fmt.Errorf("%w: give either days or a target date", cargo.ErrInvalidInput)
	case r.Days != nil:
		if *r.Days < 0 {
			return 0, fmt.Errorf("%w: days must not be negative, got %d", cargo.ErrInvalidInput, *r.Days)
		}
		return *r.Days, nil
	}
	target := cargo.Day(*r.ToDate)
	if target.Before(current) {
		return 0, fmt.Errorf("%w: target date %s precedes current date %s", cargo.ErrInvalidInput,
			target.Format(time.DateOnly), current.Format(time.DateOnly))
	}
	return int(target.Sub(current).Hours() / 24), nil
}

// resolve maps usage references to item IDs, preserving order and dropping repeats.
func resolve(st *warehouse.State, refs []UsageRef) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		id := ref.ItemID
		if id != "" {
			if _, ok := st.Items[id]; !ok {
				return nil, fmt.Errorf("%w: item %s", cargo.ErrNotFound, id)
			}
		} else {
			matches := st.ItemsByName(func(n string) bool { return strings.EqualFold(n, ref.Name) })
			if ref.Name == "" || len(matches) == 0 {
				return nil, fmt.Errorf("%w: item named %q", cargo.ErrNotFound, ref.Name)
			}
			id = matches[0].ID
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Advance simulates each day in order, mutating st. Items already classified as
// waste are not reprocessed. Within a day usage is applied before expiry, so an
// item exhausted and expiring on the same day is recorded as out of uses.
func Advance(ctx context.Context, st *warehouse.State, req Request) (*Result, error) {
	n, err := req.days(st.CurrentDate)
	if err != nil {
		return nil, err
	}
	used, err := resolve(st, req.ItemsUsedPerDay)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	usedSeen := make(map[string]bool)
	for day := 1; day <= n; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := st.CurrentDate.AddDate(0, 0, 1)

		for _, id := range used {
			if st.IsWaste(id) {
				continue
			}
			it := st.Items[id]
			usedSeen[id] = true
			if it.UsageLimit == nil {
				continue
			}
			left := *it.UsageLimit
			if left > 0 {
				left--
			}
			it.UsageLimit = &left
			st.Items[id] = it
			if left == 0 && st.MarkWaste(it, cargo.ReasonOutOfUses, date) {
				res.ItemsDepleted = append(res.ItemsDepleted, ItemRef{ItemID: id, Name: it.Name})
			}
		}

		for _, id := range sortedIDs(st) {
			it := st.Items[id]
			if st.IsWaste(id) || !it.ExpiresBy(date) {
				continue
			}
			if st.MarkWaste(it, cargo.ReasonExpired, date) {
				res.ItemsExpired = append(res.ItemsExpired, ItemRef{ItemID: id, Name: it.Name})
			}
		}

		st.CurrentDate = date
	}

	for _, id := range used {
		if !usedSeen[id] {
			continue
		}
		it := st.Items[id]
		u := UsedItem{ItemID: id, Name: it.Name}
		if it.UsageLimit != nil {
			left := *it.UsageLimit
			u.RemainingUses = &left
		}
		res.ItemsUsed = append(res.ItemsUsed, u)
	}
	res.NewDate = st.CurrentDate
	return res, nil
}

// IdentifyWaste classifies every item that is expired on the current date or has
// no uses left. It returns the newly classified records and the full waste set,
// both ordered by item ID. Calling it twice in a row classifies nothing new.
func IdentifyWaste(st *warehouse.State) (fresh, all []cargo.WasteRecord) {
	var ids []string
	for _, id := range sortedIDs(st) {
		it := st.Items[id]
		if st.IsWaste(id) {
			continue
		}
		switch {
		case it.UsageLimit != nil && *it.UsageLimit <= 0:
			st.MarkWaste(it, cargo.ReasonOutOfUses, st.CurrentDate)
		case it.ExpiresBy(st.CurrentDate):
			st.MarkWaste(it, cargo.ReasonExpired, st.CurrentDate)
		default:
			continue
		}
		ids = append(ids, id)
	}

	all = st.WasteRecords()
	byID := make(map[string]cargo.WasteRecord, len(all))
	for _, w := range all {
		byID[w.ItemID] = w
	}
	for _, id := range ids {
		fresh = append(fresh, byID[id])
	}
	return fresh, all
}

func sortedIDs(st *warehouse.State) []string {
	ids := make([]string, 0, len(st.Items))
	for id := range st.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
