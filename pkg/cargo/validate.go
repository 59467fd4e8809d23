package cargo

import "fmt"

// ValidateContainers checks container records and returns one RowError per bad row.
// Rows are numbered from 1 in input order.
func ValidateContainers(containers []Container) []RowError {
	var errs []RowError
	seen := make(map[string]bool, len(containers))
	for i, c := range containers {
		row := i + 1
		switch {
		case c.ID == "":
			errs = append(errs, RowError{Row: row, Message: "missing containerId"})
		case seen[c.ID]:
			errs = append(errs, RowError{Row: row, Message: fmt.Sprintf("duplicate containerId %q", c.ID)})
		case !c.Dimensions.Positive():
			errs = append(errs, RowError{Row: row, Message: fmt.Sprintf("container %s: dimensions must be positive", c.ID)})
		}
		seen[c.ID] = true
	}
	return errs
}

// ValidateItems checks item records and returns one RowError per bad row.
func ValidateItems(items []Item) []RowError {
	var errs []RowError
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		if msg := itemProblem(it, seen); msg != "" {
			errs = append(errs, RowError{Row: i + 1, Message: msg})
		}
		seen[it.ID] = true
	}
	return errs
}

func itemProblem(it Item, seen map[string]bool) string {
	switch {
	case it.ID == "":
		return "missing itemId"
	case seen[it.ID]:
		return fmt.Sprintf("duplicate itemId %q", it.ID)
	case !it.Dimensions.Positive():
		return fmt.Sprintf("item %s: dimensions must be positive", it.ID)
	case it.Mass <= 0:
		return fmt.Sprintf("item %s: mass must be positive", it.ID)
	case it.Priority < 1 || it.Priority > 100:
		return fmt.Sprintf("item %s: priority %d outside 1..100", it.ID, it.Priority)
	case it.UsageLimit != nil && *it.UsageLimit < 0:
		return fmt.Sprintf("item %s: usage limit cannot be negative", it.ID)
	}
	return ""
}
