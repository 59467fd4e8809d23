// Package report renders plans, manifests and the capacity dashboard as text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/depletion"
	"github.com/DrSkyle/stowage/pkg/engine/history"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// Writer renders to w. Styling follows w's terminal capabilities; non-terminals get plain text.
type Writer struct {
	w      io.Writer
	title  lipgloss.Style
	dim    lipgloss.Style
	alert  lipgloss.Style
	accent lipgloss.Style
}

func NewWriter(w io.Writer) *Writer {
	r := lipgloss.NewRenderer(w)
	return &Writer{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99")),
		dim:    r.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
		alert:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF3366")),
		accent: r.NewStyle().Foreground(lipgloss.Color("#874BFD")),
	}
}

// Steps prints a numbered move list.
func (r *Writer) Steps(title string, steps []cargo.MoveStep) {
	fmt.Fprintln(r.w, r.title.Render(title))
	if len(steps) == 0 {
		fmt.Fprintln(r.w, r.dim.Render("  (no steps)"))
		return
	}
	for _, s := range steps {
		fmt.Fprintf(r.w, "  %3d. %-9s %-12s %s\n", s.Step, s.Action, s.ItemID, route(s))
	}
}

// Placements prints where each item landed.
func (r *Writer) Placements(ps []cargo.Placement) {
	fmt.Fprintln(r.w, r.title.Render("PLACEMENTS"))
	for _, p := range ps {
		fmt.Fprintf(r.w, "  %-12s %-10s %s\n", p.ItemID, p.ContainerID, box(p.Position))
	}
}

// Unplaced prints per-item failures.
func (r *Writer) Unplaced(us []cargo.Unplaced) {
	if len(us) == 0 {
		return
	}
	fmt.Fprintln(r.w, r.alert.Render("UNPLACED"))
	for _, u := range us {
		fmt.Fprintf(r.w, "  %-12s %-15s %s\n", u.ItemID, u.Reason, u.Detail)
	}
}

// RowErrors prints import rejects.
func (r *Writer) RowErrors(kind string, errs []cargo.RowError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(r.w, r.alert.Render(strings.ToUpper(kind)+" ERRORS"))
	for _, e := range errs {
		fmt.Fprintf(r.w, "  row %-4d %s\n", e.Row, e.Message)
	}
}

// Waste prints waste records.
func (r *Writer) Waste(records []cargo.WasteRecord) {
	fmt.Fprintln(r.w, r.title.Render("WASTE"))
	if len(records) == 0 {
		fmt.Fprintln(r.w, r.dim.Render("  (none)"))
		return
	}
	for _, w := range records {
		where := "not stored"
		if w.Placement != nil {
			where = w.Placement.ContainerID + " " + box(w.Placement.Position)
		}
		fmt.Fprintf(r.w, "  %-12s %-12s %-11s %s\n", w.ItemID, w.Reason, date(w.ClassifiedOn), where)
	}
}

// Manifest prints a return manifest.
func (r *Writer) Manifest(m cargo.ReturnManifest) {
	fmt.Fprintln(r.w, r.title.Render("RETURN MANIFEST "+m.UndockingContainerID))
	fmt.Fprintf(r.w, "  undocking: %s\n", date(m.UndockingDate))
	for _, it := range m.Items {
		fmt.Fprintf(r.w, "  + %-12s %-12s %8s kg %10s cm3  from %s\n", it.ItemID, it.Reason, num(it.Mass), num(it.Volume), it.SourceContainer)
	}
	for _, it := range m.Remaining {
		fmt.Fprintf(r.w, "  - %-12s %-12s %8s kg %10s cm3  stays in %s\n", it.ItemID, it.Reason, num(it.Mass), num(it.Volume), it.SourceContainer)
	}
	fmt.Fprintf(r.w, "  total: %s kg / %s kg, %s cm3\n", num(m.TotalMass), num(m.MaxWeight), num(m.TotalVolume))
	if m.BudgetExceeded {
		fmt.Fprintln(r.w, r.alert.Render(fmt.Sprintf("  waste exceeds the weight budget; %d more undocking(s) needed", m.AdditionalUndockings)))
	}
}

// Status prints the capacity dashboard.
func (r *Writer) Status(s warehouse.Status) {
	fmt.Fprintln(r.w, r.title.Render("STOWAGE STATUS "+date(s.CurrentDate)))
	for _, c := range s.Containers {
		fmt.Fprintf(r.w, "  %-10s %-15s %s %5.1f%%  %d item(s)\n", c.ContainerID, c.Zone, bar(c.Utilization, 20), c.Utilization*100, c.ItemCount)
	}
	util := 0.0
	if s.TotalVolume > 0 {
		util = s.OccupiedVolume / s.TotalVolume
	}
	fmt.Fprintf(r.w, "  stored %d of %d known item(s), %5.1f%% of volume used\n", s.StoredItems, s.KnownItems, util*100)
	if s.WasteItems > 0 {
		fmt.Fprintln(r.w, r.alert.Render(fmt.Sprintf("  %d waste item(s) awaiting return", s.WasteItems)))
	}
	if len(s.PendingReturns) > 0 {
		fmt.Fprintln(r.w, r.accent.Render("  pending returns: "+strings.Join(s.PendingReturns, ", ")))
	}
}

// Advance prints the outcome of a time simulation.
func (r *Writer) Advance(res depletion.Result) {
	fmt.Fprintln(r.w, r.title.Render("SIMULATED TO "+date(res.NewDate)))
	for _, u := range res.ItemsUsed {
		left := "unlimited"
		if u.RemainingUses != nil {
			left = strconv.Itoa(*u.RemainingUses)
		}
		fmt.Fprintf(r.w, "  used     %-12s %-20s %s left\n", u.ItemID, u.Name, left)
	}
	for _, it := range res.ItemsExpired {
		fmt.Fprintln(r.w, r.alert.Render(fmt.Sprintf("  expired  %-12s %s", it.ItemID, it.Name)))
	}
	for _, it := range res.ItemsDepleted {
		fmt.Fprintln(r.w, r.alert.Render(fmt.Sprintf("  depleted %-12s %s", it.ItemID, it.Name)))
	}
}

// Entries prints activity log lines, oldest first.
func (r *Writer) Entries(entries []history.Entry) {
	fmt.Fprintln(r.w, r.title.Render("ACTIVITY"))
	if len(entries) == 0 {
		fmt.Fprintln(r.w, r.dim.Render("  (none)"))
		return
	}
	for _, e := range entries {
		user := e.UserID
		if user == "" {
			user = "-"
		}
		line := fmt.Sprintf("  %s %-13s %-12s %-10s", e.Timestamp.Format("2006-01-02 15:04:05"), e.ActionType, e.ItemID, user)
		if e.Details.FromContainer != "" || e.Details.ToContainer != "" {
			line += " " + orDash(e.Details.FromContainer) + " -> " + orDash(e.Details.ToContainer)
		}
		if e.Details.Reason != "" {
			line += " (" + e.Details.Reason + ")"
		}
		fmt.Fprintln(r.w, line)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func route(s cargo.MoveStep) string {
	switch {
	case s.From != nil && s.To != nil:
		return location(s.From) + " -> " + location(s.To)
	case s.From != nil:
		return location(s.From)
	case s.To != nil:
		return "-> " + location(s.To)
	}
	return "holding area"
}

func location(l *cargo.Location) string {
	if l.ContainerID == "" {
		return "holding area"
	}
	if l.Position == nil {
		return l.ContainerID
	}
	return l.ContainerID + " " + box(*l.Position)
}

func box(p cargo.Position) string {
	return fmt.Sprintf("(%s,%s,%s)-(%s,%s,%s)",
		num(p.Start.Width), num(p.Start.Depth), num(p.Start.Height),
		num(p.End.Width), num(p.End.Depth), num(p.End.Height))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func date(t time.Time) string {
	return t.Format(time.DateOnly)
}

func bar(frac float64, width int) string {
	n := int(frac*float64(width) + 0.5)
	if n > width {
		n = width
	}
	if n < 0 {
		n = 0
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", width-n) + "]"
}
