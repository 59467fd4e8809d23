package tui

import (
	"fmt"
	"strings"
)

func (m Model) viewList() string {
	s := strings.Builder{}
	containers := m.status.Containers

	if len(containers) == 0 {
		return "\n   " + dimStyle.Render("No containers registered.") + "\n"
	}

	start, end := m.calculateWindow(len(containers))

	headerTxt := fmt.Sprintf("  %-12s | %-15s | %-*s | %6s | %s", "CONTAINER", "ZONE", m.progress.Width, "FILL", "USED", "ITEMS")
	s.WriteString(dimStyle.Render(headerTxt) + "\n")
	s.WriteString(dimStyle.Render("  "+strings.Repeat("─", len(headerTxt)-2)) + "\n")

	for i := start; i < end; i++ {
		u := containers[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		id := u.ContainerID
		if len(id) > 12 {
			id = id[:9] + "..."
		}
		zone := u.Zone
		if len(zone) > 15 {
			zone = zone[:15]
		}

		line := fmt.Sprintf("%s%-12s | %-15s | %s | %5.1f%% | %d",
			cursor, id, zone, m.progress.ViewAs(u.Utilization), u.Utilization*100, u.ItemCount)
		if i == m.cursor {
			line = special.Render(line)
		}
		s.WriteString(line + "\n")
	}

	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("  %d of %d item(s) stored", m.status.StoredItems, m.status.KnownItems))
	if m.status.TotalVolume > 0 {
		s.WriteString(fmt.Sprintf(", %.1f%% of volume used", m.status.OccupiedVolume/m.status.TotalVolume*100))
	}
	s.WriteString("\n")
	if m.status.WasteItems > 0 {
		s.WriteString(danger.Render(fmt.Sprintf("  %d waste item(s) awaiting return", m.status.WasteItems)) + "\n")
	}
	if len(m.status.PendingReturns) > 0 {
		s.WriteString(warning.Render("  pending returns: "+strings.Join(m.status.PendingReturns, ", ")) + "\n")
	}
	return s.String()
}

// calculateWindow keeps the cursor visible in a list of total rows.
func (m Model) calculateWindow(total int) (int, int) {
	visible := m.height - 10
	if visible < 3 {
		visible = 3
	}
	if total <= visible {
		return 0, total
	}
	start := m.cursor - visible/2
	if start < 0 {
		start = 0
	}
	end := start + visible
	if end > total {
		end = total
		start = end - visible
	}
	return start, end
}
