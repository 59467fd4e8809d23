package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DrSkyle/stowage/pkg/cargo"
)

func (m Model) viewDetails() string {
	if m.cursor >= len(m.status.Containers) {
		return ""
	}
	u := m.status.Containers[m.cursor]

	var rows []cargo.Placement
	for _, p := range m.snapshot.Placements {
		if p.ContainerID == u.ContainerID {
			rows = append(rows, p)
		}
	}
	// Open face first, then bottom up.
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].Position.Start, rows[j].Position.Start
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		if a.Width != b.Width {
			return a.Width < b.Width
		}
		return rows[i].ItemID < rows[j].ItemID
	})

	title := titleStyle.Render(fmt.Sprintf("%s · %s", u.ContainerID, u.Zone))
	c := m.snapshot.Containers[u.ContainerID]
	meta := dimStyle.Render(fmt.Sprintf("%gx%gx%g cm, %d item(s), %.1f%% full",
		c.Dimensions.Width, c.Dimensions.Depth, c.Dimensions.Height, u.ItemCount, u.Utilization*100))

	lines := []string{}
	for _, p := range rows {
		it := m.snapshot.Items[p.ItemID]
		line := fmt.Sprintf("  %-12s %-20s p%-3d depth %-6g", it.ID, truncate(it.Name, 20), it.Priority, p.Position.Start.Depth)
		switch {
		case m.snapshot.IsWaste(it.ID):
			line = danger.Render(line + " WASTE")
		case it.ExpiryDate != nil:
			line += dimStyle.Render(" exp " + it.ExpiryDate.Format("2006-01-02"))
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, dimStyle.Render("  (empty)"))
	}

	visible := m.height - 8
	if visible < 3 {
		visible = 3
	}
	scroll := m.detailsScroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	end := scroll + visible
	if end > len(lines) {
		end = len(lines)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		title,
		meta,
		"",
		strings.Join(lines[scroll:end], "\n"),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
