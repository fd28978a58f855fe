package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/optimizer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	fullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	wasteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))

	dynStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Italic(true)

	padStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	cell = lipgloss.NewStyle().PaddingRight(2)
)

func rowStyle(r row) lipgloss.Style {
	switch {
	case r.dynamic:
		return dynStyle
	case r.empty:
		return padStyle
	case r.waste == 0:
		return fullStyle
	default:
		return wasteStyle
	}
}

// Table renders the slot table of l with lipgloss.
func Table(l *layout.Layout) string {
	rs := rows(l)
	cols := [4][]string{{"SLOT"}, {"USED"}, {"WASTE"}, {"OCCUPANCY"}}
	fields := []string{"FIELDS"}
	for i, r := range rs {
		st := rowStyle(r)
		cols[0] = append(cols[0], fmt.Sprint(r.index))
		cols[1] = append(cols[1], st.Render(r.usedText()))
		cols[2] = append(cols[2], st.Render(r.wasteText()))
		cols[3] = append(cols[3], st.Render(Bar(l.Slots[i])))
		fields = append(fields, strings.Join(r.fields, " "))
	}

	blocks := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		c[0] = headerStyle.Render(c[0])
		blocks = append(blocks, cell.Render(lipgloss.JoinVertical(lipgloss.Left, c...)))
	}
	fields[0] = headerStyle.Render(fields[0])
	blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, fields...))
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// Styled renders an audit report for a terminal.
func Styled(title string, r *layout.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(Table(r.Layout))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("slots: %d (lower bound %d), wasted: %d bytes",
		r.SlotCount, r.LowerBound, r.TotalWaste)))
	return b.String()
}

// StyledSummary renders an optimization result for a terminal.
func StyledSummary(res *optimizer.Result) string {
	var b strings.Builder
	b.WriteString(Styled("Optimized layout", layout.Audit(res.Layout, res.LowerBound)))
	b.WriteString("\n")
	if res.Input.Feasible {
		delta := fmt.Sprintf("%+d slots, %+d cost versus input (%d slots, cost %d)",
			res.SlotDelta, res.CostDelta, res.Input.Slots, res.Input.Cost)
		st := fullStyle
		if res.SlotDelta == 0 && res.CostDelta == 0 {
			st = dimStyle
		}
		b.WriteString(st.Render(delta))
	} else {
		b.WriteString(padStyle.Render("input order breaks a constraint"))
	}
	b.WriteString("\n")
	mode := "exact"
	if !res.Exact {
		mode = "heuristic"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s search, %d nodes, %d equally optimal orders, cost %d",
		mode, res.Explored, res.Ties, res.Cost)))
	return b.String()
}
